// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package rangeview implements DisjointRangeVector, a generic structure that
// flattens a set of overlapping, priority-ordered ranges into a disjoint
// sequence of intervals, plus the ARMv7-M MPU-specific composition and
// memory-map rendering built on top of it.
package rangeview

import "sort"

// RangeValue associates an inclusive [Start,Stop] range with an arbitrary
// value.
type RangeValue[V any] struct {
	Start uint32
	Stop  uint32
	Value V
}

// DisjointInterval is one maximal sub-range of the address universe over
// which the set of overlapping input ranges is constant.
type DisjointInterval[V any] struct {
	Start       uint32
	Stop        uint32
	Overlapping []RangeValue[V]
}

// Empty reports whether no input range overlaps this interval.
func (d DisjointInterval[V]) Empty() bool {
	return len(d.Overlapping) == 0
}

// DisjointRangeVector holds the ordered, non-overlapping intervals that
// partition a universe [lo,hi] given a set of (possibly overlapping) input
// ranges.
type DisjointRangeVector[V any] struct {
	Intervals []DisjointInterval[V]
}

// New builds a DisjointRangeVector partitioning [lo,hi] from ranges. Inputs
// with Start > Stop are normalized by swapping. Construction never fails.
func New[V any](lo, hi uint32, ranges []RangeValue[V]) *DisjointRangeVector[V] {
	rs := make([]RangeValue[V], len(ranges))
	copy(rs, ranges)
	for i := range rs {
		if rs[i].Start > rs[i].Stop {
			rs[i].Start, rs[i].Stop = rs[i].Stop, rs[i].Start
		}
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].Start < rs[j].Start })

	rv := &DisjointRangeVector[V]{}

	if len(rs) == 0 {
		rv.Intervals = append(rv.Intervals, DisjointInterval[V]{Start: lo, Stop: hi})
		return rv
	}

	active := DisjointInterval[V]{Start: lo}
	overflow := false

	for _, r := range rs {
		if r.Start == active.Start {
			active.Overlapping = append(active.Overlapping, r)
			continue
		}

		for {
			stop := r.Start - 1
			for _, j := range active.Overlapping {
				if j.Stop < stop {
					stop = j.Stop
				}
			}
			active.Stop = stop
			rv.Intervals = append(rv.Intervals, cloneInterval(active))

			active.Start = active.Stop + 1
			active.Overlapping = evict(active.Overlapping, active.Start, false)

			if active.Stop == r.Start-1 {
				break
			}
		}
		active.Overlapping = append(active.Overlapping, r)
	}

	for len(active.Overlapping) > 0 {
		stop := active.Overlapping[0].Stop
		for _, j := range active.Overlapping {
			if j.Stop < stop {
				stop = j.Stop
			}
		}
		active.Stop = stop
		rv.Intervals = append(rv.Intervals, cloneInterval(active))

		nextStart := active.Stop + 1
		if nextStart < active.Stop {
			// stop+1 wrapped past 0xFFFFFFFF: the sweep has reached the
			// top of the address space. Checked explicitly here instead
			// of relying on a compiler-fooling dummy variable.
			overflow = true
			active.Start = active.Stop
			active.Overlapping = evict(active.Overlapping, active.Start, true)
		} else {
			active.Start = nextStart
			active.Overlapping = evict(active.Overlapping, active.Start, false)
		}
	}

	active.Stop = hi
	if !overflow && active.Stop >= active.Start {
		rv.Intervals = append(rv.Intervals, cloneInterval(active))
	}

	return rv
}

// evict drops ranges from the active set that no longer overlap the new
// cursor position. strict selects "<=" eviction (used at the top-of-address-
// space overflow boundary) instead of the ordinary "<".
func evict[V any](active []RangeValue[V], cursor uint32, strict bool) []RangeValue[V] {
	kept := active[:0]
	for _, x := range active {
		if strict {
			if x.Stop > cursor {
				kept = append(kept, x)
			}
		} else {
			if x.Stop >= cursor {
				kept = append(kept, x)
			}
		}
	}
	return kept
}

func cloneInterval[V any](active DisjointInterval[V]) DisjointInterval[V] {
	cp := make([]RangeValue[V], len(active.Overlapping))
	copy(cp, active.Overlapping)
	return DisjointInterval[V]{Start: active.Start, Stop: active.Stop, Overlapping: cp}
}

// Find returns the disjoint interval containing point, via binary search.
func (rv *DisjointRangeVector[V]) Find(point uint32) (DisjointInterval[V], bool) {
	lo, hi := 0, len(rv.Intervals)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		iv := rv.Intervals[mid]
		switch {
		case point > iv.Stop:
			lo = mid + 1
		case point < iv.Start:
			hi = mid - 1
		default:
			return iv, true
		}
	}
	return DisjointInterval[V]{}, false
}
