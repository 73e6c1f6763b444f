// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.
//
// +build tamago,arm staticcheck

// Package mpuhw programs planned MPU descriptors into the live ARMv7-M MPU
// register block, following the disable-interrupts / barrier / write /
// barrier / restore sequence the architecture reference manual requires
// around a region update.
package mpuhw

import (
	"github.com/usbarmory/mpuplan/internal/reg"
	"github.com/usbarmory/mpuplan/region"
)

// MPU System Control Space register offsets (ARMv7-M architecture
// reference manual, MPU_TYPE at the base of the block).
const (
	mpuTypeOffset = 0x00
	mpuCtrlOffset = 0x04
	mpuRnrOffset  = 0x08
	mpuRbarOffset = 0x0C
	mpuRasrOffset = 0x10
)

const (
	ctrlEnablePos     = 0
	ctrlPrivDefEnaPos = 2

	typeDRegionPos  = 8
	typeDRegionMask = 0xFF
)

// defined in barrier_arm.s: raw PRIMASK save/restore and the ARMv7-M
// DSB/ISB barrier instructions the manual requires bracketing an MPU
// register write.
func maskInterrupts() uint32
func restoreInterrupts(primask uint32)
func dsb()
func isb()

// disableGuard disables interrupts for the life of fn, restoring the prior
// mask on return. It is the idiomatic-Go equivalent of the reference tool's
// RAII interrupt guard: an explicit deferred restore instead of a
// constructor/destructor pair.
func disableGuard(fn func()) {
	primask := maskInterrupts()
	defer restoreInterrupts(primask)
	fn()
}

// Programmer loads planned MPU descriptors into the live hardware MPU
// register block mapped at Base.
type Programmer struct {
	Base uint32
}

// Load programs every descriptor in table into the hardware MPU. Each
// region's prior descriptor is cleared (RASR written 0) before its
// replacement is written, avoiding a window where a stale RBAR/RASR pair
// from a previous table could apply to the wrong address range.
func (p *Programmer) Load(table region.MpuTable) {
	disableGuard(func() {
		dsb()
		isb()

		for _, d := range table.Descriptors {
			bar, asr := region.Encode(d)

			reg.Write(p.Base+mpuRnrOffset, d.RegionNumber)
			reg.Write(p.Base+mpuRasrOffset, 0)
			reg.Write(p.Base+mpuRbarOffset, bar)
			reg.Write(p.Base+mpuRasrOffset, asr)
		}

		dsb()
		isb()
	})
}

// Disable clears the MPU's global enable bit, taking it fully offline. Other
// MPU_CTRL bits (PRIVDEFENA, HFNMIENA) are left untouched.
func (p *Programmer) Disable() {
	disableGuard(func() {
		dsb()
		isb()
		reg.Clear(p.Base+mpuCtrlOffset, ctrlEnablePos)
		dsb()
		isb()
	})
}

// Enable sets the MPU's global enable bit along with PRIVDEFENA, so
// privileged code falls back to the architecturally-defined background
// map outside of any planned region.
func (p *Programmer) Enable() {
	disableGuard(func() {
		dsb()
		isb()
		reg.Set(p.Base+mpuCtrlOffset, ctrlEnablePos)
		reg.Set(p.Base+mpuCtrlOffset, ctrlPrivDefEnaPos)
		dsb()
		isb()
	})
}

// Enabled reports whether the MPU's global enable bit is currently set.
func (p *Programmer) Enabled() bool {
	return reg.Get(p.Base+mpuCtrlOffset, ctrlEnablePos, 1) != 0
}

// RegionCount reports the number of MPU regions implemented by the
// hardware (MPU_TYPE.DREGION), for validating a planned table against the
// actual silicon before calling Load.
func (p *Programmer) RegionCount() uint32 {
	return reg.Get(p.Base+mpuTypeOffset, typeDRegionPos, typeDRegionMask)
}
