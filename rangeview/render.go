// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package rangeview

import (
	"fmt"
	"io"
	"strings"

	"github.com/usbarmory/mpuplan/mpuattr"
	"github.com/usbarmory/mpuplan/region"
)

// FormatSize renders a byte count as a compact human string (B/K/M/G),
// stripped to at most one decimal place with trailing zeros removed, e.g.
// 1024 -> "1K", 1572864 -> "1.5M", 3 -> "3".
func FormatSize(sizeInBytes uint64) string {
	const (
		ki = 1024
		mi = 1024 * 1024
		gi = 1024 * 1024 * 1024
	)

	switch {
	case sizeInBytes >= gi:
		return formatFraction1dp(sizeInBytes, gi) + "G"
	case sizeInBytes >= mi:
		return formatFraction1dp(sizeInBytes, mi) + "M"
	case sizeInBytes >= ki:
		return formatFraction1dp(sizeInBytes, ki) + "K"
	default:
		return fmt.Sprintf("%d", sizeInBytes)
	}
}

// formatFraction1dp formats numerator/denominator to one decimal place,
// trailing zeros and a trailing decimal point stripped. Unlike the original
// C routine (which halves numerator and denominator to dodge a uint32
// overflow in the scaled multiply), this widens to uint64 so the multiply
// never overflows and no halving trick is needed.
func formatFraction1dp(numerator, denominator uint64) string {
	fixedPoint := (numerator + denominator/20) * 10 / denominator
	s := fmt.Sprintf("%d.%01d", fixedPoint/10, fixedPoint%10)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}

// RenderMemoryMap writes the composed disjoint address view as a columnar
// memory map: a header, a rule, and one line per interval giving its
// [start,end], human size, winning region number ("." when unmapped) and
// access description.
func RenderMemoryMap(w io.Writer, rv *DisjointRangeVector[*region.PlannedDescriptor]) error {
	if _, err := fmt.Fprintf(w, "start    end      size   #  description\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "-------- -------- ------ -- -----------\n"); err != nil {
		return err
	}

	for _, iv := range rv.Intervals {
		size := uint64(iv.Stop) - uint64(iv.Start) + 1
		sizeStr := FormatSize(size)

		winner := Effective(iv)
		if winner == nil {
			if _, err := fmt.Fprintf(w, "%08x %08x %4s  . unmapped\n", iv.Start, iv.Stop, sizeStr); err != nil {
				return err
			}
			continue
		}

		desc := mpuattr.Describe(winner.Exec, winner.AP, winner.Attrs)
		if _, err := fmt.Fprintf(w, "%08x %08x %4s %2d %s\n", iv.Start, iv.Stop, sizeStr, winner.RegionNumber, desc); err != nil {
			return err
		}
	}

	return nil
}

// regionSizeLabel is the size token used in a descriptor block's
// SIZE_<n>B placeholder: "4G" for the whole-address-space region (size
// class 31, which cannot be represented as a uint32 byte count), otherwise
// FormatSize of its actual byte size.
func regionSizeLabel(d region.PlannedDescriptor) string {
	if d.SizeClass == 31 {
		return "4G"
	}
	return FormatSize(uint64(d.SizeBytes()))
}

// RenderDescriptorBlock writes one active descriptor in the persisted
// "{ BAR = ..., ASR = ... }" form, matching the register-macro layout
// generated code pastes directly into a static MPU table. The block is
// preceded by the descriptor's comment, if any, and by a subregion breakdown
// table when the descriptor disables any of its 8 subregions.
func RenderDescriptorBlock(w io.Writer, d region.PlannedDescriptor) error {
	if d.Comment != "" {
		if _, err := fmt.Fprintf(w, "// %s\n", d.Comment); err != nil {
			return err
		}
	}

	if d.SubRegionDisableMask != 0 {
		if err := renderSubregionTable(w, d); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "{ BAR = RBAR(%d, 0x%08x),\n  ASR = RASR_EX(%s, %s, %s, 0x%02x, SIZE_%sB) }\n",
		d.RegionNumber, d.Base, d.Exec, d.AP, d.Attrs, d.SubRegionDisableMask, regionSizeLabel(d))
	return err
}

// renderSubregionTable writes the "region mask enabled start end" breakdown
// of a descriptor's 8 subregions, one row per subregion.
func renderSubregionTable(w io.Writer, d region.PlannedDescriptor) error {
	subregionSize := d.SubregionBytes()
	enabledMask := ^d.SubRegionDisableMask & 0xff

	if _, err := fmt.Fprintf(w, "   subregion_size=%s, subregions=0x%02x\n", FormatSize(uint64(subregionSize)), enabledMask); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "   region mask enabled start      end\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "   ------ ---- ------- ---------- ----------\n"); err != nil {
		return err
	}

	for i := uint32(0); i < 8; i++ {
		bit := uint8(1 << i)
		start := d.Base + subregionSize*i
		end := d.Base + subregionSize*(i+1) - 1

		if enabledMask&bit != 0 {
			if _, err := fmt.Fprintf(w, "      %d   0x%02x    Y    0x%08x 0x%08x <-- enabled\n", i, bit, start, end); err != nil {
				return err
			}
		} else {
			if _, err := fmt.Fprintf(w, "      %d   0x%02x    N    0x%08x 0x%08x\n", i, bit, start, end); err != nil {
				return err
			}
		}
	}

	return nil
}

// renderDisabledBlock writes an unused region slot in the padded-table form:
// a bare "{ BAR = RBAR(n, 0x0), ASR = 0 }" block, no subregion table, and no
// comment beyond "unused". Region 0 is never padded: a table that planned no
// regions at all emits nothing for its first slot, matching the reference
// tool's own guard against printing a wholly-empty table.
func renderDisabledBlock(w io.Writer, regionNumber uint32) error {
	if regionNumber == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "// unused\n"); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "{ BAR = RBAR(%d, 0x%08x),\n  ASR = 0 }\n", regionNumber, 0)
	return err
}

// RenderDescriptorBlocks writes every descriptor in table, in region-number
// order, then pads the remaining region slots up to tableSize with disabled
// placeholder blocks so the emitted table has tableSize entries. A disabled
// slot at region 0 is not printed (see renderDisabledBlock), so a table with
// no descriptors emits tableSize-1 blocks.
func RenderDescriptorBlocks(w io.Writer, table region.MpuTable, tableSize int) error {
	for _, d := range table.Descriptors {
		_, asr := region.Encode(d)
		if region.Enabled(asr) {
			if err := RenderDescriptorBlock(w, d); err != nil {
				return err
			}
		} else if err := renderDisabledBlock(w, d.RegionNumber); err != nil {
			return err
		}
	}

	for n := len(table.Descriptors); n < tableSize; n++ {
		if err := renderDisabledBlock(w, uint32(n)); err != nil {
			return err
		}
	}

	return nil
}
