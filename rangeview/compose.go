// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package rangeview

import "github.com/usbarmory/mpuplan/region"

// ComposeTable decomposes every enabled descriptor's active subregions into
// contiguous spans and flattens a whole MpuTable into a disjoint view of the
// 32-bit address space. Where two descriptors' spans overlap, ARMv7-M
// precedence applies: the higher region number wins, which Effective applies
// when reading back a composed interval.
func ComposeTable(table region.MpuTable) *DisjointRangeVector[*region.PlannedDescriptor] {
	var ranges []RangeValue[*region.PlannedDescriptor]

	for i := range table.Descriptors {
		d := &table.Descriptors[i]
		for _, sp := range activeSpans(*d) {
			ranges = append(ranges, RangeValue[*region.PlannedDescriptor]{
				Start: sp[0],
				Stop:  sp[1],
				Value: d,
			})
		}
	}

	return New[*region.PlannedDescriptor](0, 0xFFFFFFFF, ranges)
}

// activeSpans returns the contiguous byte spans a descriptor actually
// enables, merging runs of adjacent enabled subregions (an 8-bit SRD mask
// can describe up to 4 separate runs, e.g. 0b01011010).
func activeSpans(d region.PlannedDescriptor) [][2]uint32 {
	if d.SizeClass == 31 {
		return [][2]uint32{{0, 0xFFFFFFFF}}
	}

	sub := d.SubregionBytes()
	enabled := ^d.SubRegionDisableMask

	var spans [][2]uint32
	i := 0
	for i < 8 {
		if enabled&(1<<uint(i)) == 0 {
			i++
			continue
		}
		runStart := i
		for i < 8 && enabled&(1<<uint(i)) != 0 {
			i++
		}
		spans = append(spans, [2]uint32{
			d.Base + uint32(runStart)*sub,
			d.Base + uint32(i)*sub - 1,
		})
	}
	return spans
}

// Effective returns the descriptor that wins ARMv7-M precedence (highest
// region number) over a composed interval, or nil if nothing maps it.
func Effective(iv DisjointInterval[*region.PlannedDescriptor]) *region.PlannedDescriptor {
	var winner *region.PlannedDescriptor
	for _, rv := range iv.Overlapping {
		if winner == nil || rv.Value.RegionNumber >= winner.RegionNumber {
			winner = rv.Value
		}
	}
	return winner
}
