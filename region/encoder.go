// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package region

import (
	"github.com/usbarmory/mpuplan/bits"
	"github.com/usbarmory/mpuplan/mpuattr"
)

// BAR and ASR field positions, named after the CMSIS ARM_MPU_RBAR/RASR bit
// layout.
const (
	barRegionPos = 0
	barRegionLen = 4
	barValidPos  = 4
	barBasePos   = 5

	asrEnablePos = 0
	asrSizePos   = 1
	asrSizeLen   = 5
	asrSrdPos    = 8
	asrSrdLen    = 8
	asrBPos      = 16
	asrCPos      = 17
	asrSPos      = 18
	asrTexPos    = 19
	asrTexLen    = 3
	asrApPos     = 24
	asrApLen     = 3
	asrXnPos     = 28
)

// Encode converts a PlannedDescriptor into its two hardware register words:
// BAR (base address register) and ASR (attribute & size register).
func Encode(d PlannedDescriptor) (bar, asr uint32) {
	bar = d.Base &^ 0x1F
	bits.Set(&bar, barValidPos)
	bits.SetN(&bar, barRegionPos, (1<<barRegionLen)-1, d.RegionNumber)

	bits.Set(&asr, asrEnablePos)
	bits.SetN(&asr, asrSizePos, (1<<asrSizeLen)-1, uint32(d.SizeClass))
	bits.SetN(&asr, asrSrdPos, (1<<asrSrdLen)-1, uint32(d.SubRegionDisableMask))
	bits.SetTo(&asr, asrBPos, d.Attrs.B() != 0)
	bits.SetTo(&asr, asrCPos, d.Attrs.C() != 0)
	bits.SetTo(&asr, asrSPos, d.Attrs.S() != 0)
	bits.SetN(&asr, asrTexPos, (1<<asrTexLen)-1, uint32(d.Attrs.TEX()))
	bits.SetN(&asr, asrApPos, (1<<asrApLen)-1, uint32(d.AP))
	bits.SetTo(&asr, asrXnPos, d.Exec == mpuattr.NeverExecute)

	return
}

// Decode reconstructs a PlannedDescriptor from its BAR/ASR register words.
// The Attrs field is left zero-valued when the (TEX,S,C,B) tuple
// does not match one of the named Attributes variants.
func Decode(bar, asr uint32) PlannedDescriptor {
	tex := uint8(bits.GetN(&asr, asrTexPos, (1<<asrTexLen)-1))
	s := boolToBit(bits.Get(&asr, asrSPos))
	c := boolToBit(bits.Get(&asr, asrCPos))
	b := boolToBit(bits.Get(&asr, asrBPos))

	attrs, _ := mpuattr.FromTuple(tex, s, c, b)

	exec := mpuattr.Executable
	if bits.Get(&asr, asrXnPos) {
		exec = mpuattr.NeverExecute
	}

	return PlannedDescriptor{
		RegionNumber:         bits.GetN(&bar, barRegionPos, (1<<barRegionLen)-1),
		Base:                 bar &^ 0x1F,
		SizeClass:            uint8(bits.GetN(&asr, asrSizePos, (1<<asrSizeLen)-1)),
		SubRegionDisableMask: uint8(bits.GetN(&asr, asrSrdPos, (1<<asrSrdLen)-1)),
		Exec:                 exec,
		AP:                   mpuattr.AccessPermission(bits.GetN(&asr, asrApPos, (1<<asrApLen)-1)),
		Attrs:                attrs,
	}
}

func boolToBit(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

// Enabled reports whether the ASR word's enable bit is set.
func Enabled(asr uint32) bool {
	return bits.Get(&asr, asrEnablePos)
}
