// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package region

import (
	"math/bits"

	"github.com/usbarmory/mpuplan/mpuattr"
)

// Cover decomposes [start,end] (inclusive) into the fewest possible
// PlannedDescriptors whose union of active bytes spans [start,end],
// starting at region number firstRegionNumber. It returns the descriptors
// and the next free region number on success.
//
// The match is not byte-exact at the top of the range: a right-hand
// remainder shorter than 32 bytes is left uncovered, and where end+1 is the
// last byte of a subregion that subregion is used and covers end+1 as well
// (see trySubregionSize). A left-hand remainder shorter than 32 bytes makes
// Cover fail with ErrRangeTooSmall.
//
// The decomposition finds, at each step, the largest single hardware region
// (applying the subregion-disable trick) that fits centered inside the
// remaining gap, emits it, and recurses on the uncovered prefix and suffix.
func Cover(start, end uint32, exec mpuattr.ExecPolicy, ap mpuattr.AccessPermission, attrs mpuattr.Attributes, firstRegionNumber uint32) ([]PlannedDescriptor, uint32, error) {
	if firstRegionNumber >= TableCap {
		return nil, firstRegionNumber, ErrNoRegionSlot
	}
	if end < start || end-start < 31 {
		return nil, firstRegionNumber, ErrRangeTooSmall
	}

	var out []PlannedDescriptor
	next, err := cover(&out, start, end, exec, ap, attrs, firstRegionNumber)
	if err != nil {
		return nil, firstRegionNumber, err
	}
	return out, next, nil
}

func cover(out *[]PlannedDescriptor, start, end uint32, exec mpuattr.ExecPolicy, ap mpuattr.AccessPermission, attrs mpuattr.Attributes, regionNumber uint32) (uint32, error) {
	// Cover has already rejected a first region number at or beyond
	// TableCap, so running out of slots here means the decomposition needs
	// more descriptors than the table has left.
	if regionNumber >= TableCap {
		return regionNumber, ErrOverBudget
	}
	if len(*out) >= TableCap {
		return regionNumber, ErrOverBudget
	}
	if end < start || end-start < 31 {
		return regionNumber, ErrRangeTooSmall
	}

	base, subregionSize, mask, sizeClass, firstAddr, rightAddr := selectBestSize(start, end)

	*out = append(*out, PlannedDescriptor{
		RegionNumber:         regionNumber,
		Base:                 base,
		SizeClass:            sizeClass,
		SubRegionDisableMask: mask,
		Exec:                 exec,
		AP:                   ap,
		Attrs:                attrs,
	})
	regionNumber++
	_ = subregionSize

	leftAddr := firstAddr

	if leftAddr > start {
		var err error
		regionNumber, err = cover(out, start, leftAddr-1, exec, ap, attrs, regionNumber)
		if err != nil {
			return regionNumber, err
		}
	}

	// The strict "<" (not "<=") here is deliberate: it is the documented
	// off-by-one from the reference implementation, preserved bit-for-bit
	// because downstream memory maps are built relying on it (when the
	// central region stops one byte short of end, that last byte is left
	// uncovered instead of starting a new one-byte region). A remainder
	// shorter than 32 bytes cannot be expressed as a region and is likewise
	// left uncovered. rightAddr == 0 also signals the region reached the top
	// of the address space and wrapped.
	if rightAddr < end && rightAddr != 0 && end-rightAddr >= 31 {
		var err error
		regionNumber, err = cover(out, rightAddr, end, exec, ap, attrs, regionNumber)
		if err != nil {
			return regionNumber, err
		}
	}

	return regionNumber, nil
}

// selectBestSize finds the largest centrally-placed descriptor covering
// [start,end], returning its base address, subregion size, subregion-disable
// mask, size class, the address of its first active byte, and the address
// immediately following its last active byte (which may wrap to 0). For the
// whole address space [0,0xFFFFFFFF] that last value is end itself.
func selectBestSize(start, end uint32) (base, subregionSize uint32, mask uint8, sizeClass uint8, firstAddr, rightAddr uint32) {
	if start == 0 && end == 0xFFFFFFFF {
		subregionSize = 0x20000000
		base = 0
		_, mask, firstAddr = trySubregionSize(start, end, subregionSize, base)
		rightAddr = end
		sizeClass = 31
		return
	}

	actualSize := end - start + 1
	sizePwr2 := nextPow2(actualSize)
	if sizePwr2 < 256 {
		sizePwr2 = 256
	}

	maxSubregionSize := sizePwr2 / 2
	// 2^32 cannot be represented in a uint32; clamp rather than overflow
	// the power-of-two search.
	if actualSize > 0x80000000 {
		maxSubregionSize = 0x80000000
	}
	const minSubregionSize = 32

	var bestCoverage uint32
	var bestSubregionSize, bestBase uint32
	var bestMask uint8
	var bestFirstAddr uint32

	consider := func(ss, b uint32) bool {
		coverage, m, fa := trySubregionSize(start, end, ss, b)
		if coverage >= bestCoverage {
			bestCoverage, bestSubregionSize, bestBase, bestMask, bestFirstAddr = coverage, ss, b, m, fa
		}
		return m == 0
	}

	for ss := maxSubregionSize; ss >= minSubregionSize; ss /= 2 {
		regionSize := ss * 8

		b := start &^ (regionSize - 1)
		if consider(ss, b) {
			break
		}

		if b != start {
			b2 := (start + regionSize - 1) &^ (regionSize - 1)
			if consider(ss, b2) {
				break
			}
		}
	}

	base = bestBase
	subregionSize = bestSubregionSize
	mask = bestMask
	firstAddr = bestFirstAddr
	rightAddr = firstAddr + bestCoverage
	sizeClass = regionSizeToSizeClass(subregionSize * 8)
	return
}

// trySubregionSize computes, for a region of the given subregionSize rooted
// at base, how many contiguous bytes starting at-or-after start it can
// cover: the coverage in bytes, the resulting subregion-disable mask, and
// the address of the first active byte. Every subregion whose last byte is
// at most end+1 is counted, so the coverage can run one byte past end.
func trySubregionSize(start, end, subregionSize, base uint32) (coverage uint32, mask uint8, firstAddr uint32) {
	var firstSubregion uint32

	if start > base {
		firstSubregion = (start + (subregionSize - 1) - base) / subregionSize
		firstAddr = base + firstSubregion*subregionSize
	} else {
		firstSubregion = 0
		firstAddr = base
	}

	lastSubregion := (end + 1 - (subregionSize - 1) - base) / subregionSize
	if lastSubregion > 7 {
		lastSubregion = 7
	}

	var numSubregions uint32
	if firstSubregion > 7 || lastSubregion < firstSubregion {
		numSubregions = 0
	} else {
		numSubregions = lastSubregion - firstSubregion + 1
	}

	// if even the first subregion runs past end, nothing here works.
	if base+subregionSize-1 > end {
		numSubregions = 0
	}

	if numSubregions == 0 {
		mask = 0xff
	} else {
		validRegions := uint8(((uint32(1) << numSubregions) - 1) << firstSubregion)
		mask = 0xff &^ validRegions
	}

	coverage = numSubregions * subregionSize
	return
}

// nextPow2 rounds x up to the next power of two, returning x unchanged if it
// is already one.
func nextPow2(x uint32) uint32 {
	if x <= 1 {
		return 1
	}
	return 1 << uint(bits.Len32(x-1))
}

// regionSizeToSizeClass maps a region's byte size (a power of two) to the
// ASR SIZE field encoding.
func regionSizeToSizeClass(size uint32) uint8 {
	return uint8(bits.TrailingZeros32(size) - 1)
}
