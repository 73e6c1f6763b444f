// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package region implements the ARMv7-M MPU region planner: decomposing an
// arbitrary byte range into a minimal set of hardware-representable
// descriptors, and encoding/decoding those descriptors to/from the two
// 32-bit registers the MPU actually holds.
package region

import (
	"errors"

	"github.com/usbarmory/mpuplan/mpuattr"
)

// TableCap is the maximum number of active MPU regions a single table may
// hold, matching the ARMv7-M architectural region count on Cortex-M7 class
// parts.
const TableCap = 16

var (
	// ErrRangeTooSmall is returned when end-start is smaller than the
	// minimum representable subregion granularity.
	ErrRangeTooSmall = errors.New("region: range smaller than 32 bytes")

	// ErrOverBudget is returned when covering a range would need more
	// descriptors than remain in the table.
	ErrOverBudget = errors.New("region: descriptor budget exceeded")

	// ErrNoRegionSlot is returned when the starting region number is
	// already at or beyond TableCap.
	ErrNoRegionSlot = errors.New("region: no region slot available")
)

// RegionRequest is one entry of a memory-map document: a byte range tagged
// with the access attributes the caller wants the MPU to enforce over it.
type RegionRequest struct {
	Start    uint32
	End      uint32 // inclusive
	Exec     mpuattr.ExecPolicy
	AP       mpuattr.AccessPermission
	Attrs    mpuattr.Attributes
	Comment  string
	Priority uint32 // region-number slot in the final table
}

// PlannedDescriptor is one hardware-representable MPU region, prior to
// encoding into its two register words.
type PlannedDescriptor struct {
	RegionNumber         uint32
	Base                 uint32
	SizeClass            uint8 // [4,31], encodes 32B..4GiB
	SubRegionDisableMask uint8
	Exec                 mpuattr.ExecPolicy
	AP                   mpuattr.AccessPermission
	Attrs                mpuattr.Attributes
	Comment              string
}

// sizeBytes returns the full region size in bytes (ignoring subregions),
// i.e. 2^(SizeClass+1). The whole 4GiB region (SizeClass 31) cannot be
// represented in a uint32 and is returned as 0, matching the sentinel the
// teacher's display logic uses for the same case.
func (d PlannedDescriptor) sizeBytes() uint32 {
	if d.SizeClass == 31 {
		return 0
	}
	return 1 << (uint(d.SizeClass) + 1)
}

// subregionBytes returns the size of one of the region's 8 subregions.
func (d PlannedDescriptor) subregionBytes() uint32 {
	if d.SizeClass == 31 {
		return 0x20000000
	}
	return d.sizeBytes() / 8
}

// SizeBytes is the exported form of sizeBytes, for use by packages composing
// or rendering a planned table (e.g. rangeview).
func (d PlannedDescriptor) SizeBytes() uint32 {
	return d.sizeBytes()
}

// SubregionBytes is the exported form of subregionBytes.
func (d PlannedDescriptor) SubregionBytes() uint32 {
	return d.subregionBytes()
}

// MpuTable is an ordered list of descriptors, slot index equal to region
// number, capped at TableCap.
type MpuTable struct {
	Descriptors []PlannedDescriptor
}

// Add appends d to the table, failing if the table is already at capacity.
func (t *MpuTable) Add(d PlannedDescriptor) error {
	if len(t.Descriptors) >= TableCap {
		return ErrOverBudget
	}
	t.Descriptors = append(t.Descriptors, d)
	return nil
}
