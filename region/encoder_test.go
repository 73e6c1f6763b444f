// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package region

import (
	"testing"

	"github.com/usbarmory/mpuplan/mpuattr"
)

func TestEncodeGolden(t *testing.T) {
	d := PlannedDescriptor{
		RegionNumber:         11,
		Base:                 0x00480000,
		SizeClass:            18,
		SubRegionDisableMask: 0x80,
		Exec:                 mpuattr.NeverExecute,
		AP:                   mpuattr.APFull,
		Attrs:                mpuattr.NormalWriteThroughNoWriteAllocate,
	}

	bar, asr := Encode(d)
	if bar != 0x0048001B {
		t.Errorf("BAR = 0x%08x, want 0x0048001B", bar)
	}
	if asr != 0x13068025 {
		t.Errorf("ASR = 0x%08x, want 0x13068025", asr)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	cases := []PlannedDescriptor{
		{RegionNumber: 0, Base: 0x00000000, SizeClass: 31, SubRegionDisableMask: 0, Exec: mpuattr.NeverExecute, AP: mpuattr.APNone, Attrs: mpuattr.NoAccess},
		{RegionNumber: 11, Base: 0x00480000, SizeClass: 18, SubRegionDisableMask: 0x80, Exec: mpuattr.NeverExecute, AP: mpuattr.APFull, Attrs: mpuattr.NormalWriteThroughNoWriteAllocate},
		{RegionNumber: 7, Base: 0x00400000, SizeClass: 17, SubRegionDisableMask: 0xc0, Exec: mpuattr.Executable, AP: mpuattr.APReadOnly, Attrs: mpuattr.NormalWriteBackReadWriteAllocate},
		{RegionNumber: 1, Base: 0x01000000, SizeClass: 24, SubRegionDisableMask: 0, Exec: mpuattr.NeverExecute, AP: mpuattr.APFull, Attrs: mpuattr.DeviceShareable},
	}

	for _, want := range cases {
		bar, asr := Encode(want)
		got := Decode(bar, asr)

		if got.RegionNumber != want.RegionNumber ||
			got.Base != want.Base ||
			got.SizeClass != want.SizeClass ||
			got.SubRegionDisableMask != want.SubRegionDisableMask ||
			got.Exec != want.Exec ||
			got.AP != want.AP ||
			got.Attrs != want.Attrs {
			t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
		}
	}
}

func TestEnabled(t *testing.T) {
	if !Enabled(1) {
		t.Error("Enabled(1) = false, want true")
	}
	if Enabled(0) {
		t.Error("Enabled(0) = true, want false")
	}
}
