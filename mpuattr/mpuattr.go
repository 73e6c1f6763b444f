// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package mpuattr defines the closed set of ARMv7-M MPU access attribute,
// access permission and execute policy constants, and the human-readable
// descriptions used when rendering a planned memory map.
package mpuattr

import "fmt"

// ExecPolicy selects whether code execution is permitted from a region.
type ExecPolicy uint8

const (
	Executable   ExecPolicy = 0
	NeverExecute ExecPolicy = 1
)

func (p ExecPolicy) String() string {
	if p == Executable {
		return "EXECUTE"
	}
	return "NEVER_EXECUTE"
}

// AccessPermission is the ARMv7-M MPU AP field, reproduced here with the
// same numeric values CMSIS assigns (note the gap at 4, which the
// architecture reserves).
type AccessPermission uint8

const (
	APNone                            AccessPermission = 0
	APPrivilegedOnly                  AccessPermission = 1
	APPrivilegedReadWriteUserReadOnly AccessPermission = 2
	APFull                            AccessPermission = 3
	APPrivilegedReadOnly              AccessPermission = 5
	APReadOnly                        AccessPermission = 6
)

func (p AccessPermission) String() string {
	switch p {
	case APNone:
		return "ARM_MPU_AP_NONE"
	case APPrivilegedOnly:
		return "ARM_MPU_AP_PRIV"
	case APPrivilegedReadWriteUserReadOnly:
		return "ARM_MPU_AP_URO"
	case APFull:
		return "ARM_MPU_AP_FULL"
	case APPrivilegedReadOnly:
		return "ARM_MPU_AP_PRO"
	case APReadOnly:
		return "ARM_MPU_AP_RO"
	default:
		return fmt.Sprintf("ARM_MPU_AP_0x%x", uint8(p))
	}
}

// Attributes is an opaque bag encoding one of the closed set of ARMv7-M
// memory access attribute combinations. Each variant maps to a fixed
// (TEX, S, C, B) tuple; the planner never decomposes it.
type Attributes struct {
	name string
	tex  uint8
	s    uint8
	c    uint8
	b    uint8
}

// TEX, S, C, B return the raw attribute nibble fields.
func (a Attributes) TEX() uint8 { return a.tex }
func (a Attributes) S() uint8   { return a.s }
func (a Attributes) C() uint8   { return a.c }
func (a Attributes) B() uint8   { return a.b }

func (a Attributes) String() string { return a.name }

// key packs (TEX,S,C,B) for equality/lookup without exposing the struct's
// unexported fields to callers.
func (a Attributes) key() uint8 {
	return a.tex<<3 | a.s<<2 | a.c<<1 | a.b
}

var (
	NoAccess                                      = Attributes{"NO_ACCESS", 0, 0, 0, 0}
	StronglyOrdered                                = Attributes{"STRONGLY_ORDERED", 0, 1, 0, 0}
	DeviceShareable                                = Attributes{"DEVICE_SHAREABLE", 0, 1, 0, 1}
	NormalWriteThroughNoWriteAllocate              = Attributes{"NORMAL_WRITE_THROUGH_NO_WRITE_ALLOCATE", 0, 1, 1, 0}
	NormalWriteBackNoWriteAllocate                 = Attributes{"NORMAL_WRITE_BACK_NO_WRITE_ALLOCATE", 0, 1, 1, 1}
	NormalUncached                                 = Attributes{"NORMAL_UNCACHED", 1, 1, 0, 0}
	NormalWriteBackReadWriteAllocate               = Attributes{"NORMAL_WRITE_BACK_READ_AND_WRITE_ALLOCATE", 1, 1, 1, 1}
	NormalWriteBackReadWriteAllocateNonShareable   = Attributes{"NORMAL_WRITE_BACK_READ_AND_WRITE_ALLOCATE_NON_SHAREABLE", 1, 0, 1, 1}
	DeviceNonShareable                              = Attributes{"DEVICE_NON_SHAREABLE", 2, 0, 0, 0}
)

// byTuple maps (TEX,S,C,B) back to its named variant, used by the decoder.
var byTuple = map[uint8]Attributes{
	NoAccess.key():                                    NoAccess,
	StronglyOrdered.key():                              StronglyOrdered,
	DeviceShareable.key():                              DeviceShareable,
	NormalWriteThroughNoWriteAllocate.key():            NormalWriteThroughNoWriteAllocate,
	NormalWriteBackNoWriteAllocate.key():               NormalWriteBackNoWriteAllocate,
	NormalUncached.key():                               NormalUncached,
	NormalWriteBackReadWriteAllocate.key():             NormalWriteBackReadWriteAllocate,
	NormalWriteBackReadWriteAllocateNonShareable.key(): NormalWriteBackReadWriteAllocateNonShareable,
	DeviceNonShareable.key():                           DeviceNonShareable,
}

// FromTuple recovers the named Attributes variant matching (tex,s,c,b), used
// by the descriptor decoder when reconstructing a PlannedDescriptor from raw
// register bits. ok is false if the combination is not one of the named
// variants (the encoding is still well-formed, just unnamed).
func FromTuple(tex, s, c, b uint8) (a Attributes, ok bool) {
	key := tex<<3 | s<<2 | c<<1 | b
	a, ok = byTuple[key]
	return
}

// Describe renders the human-readable description used in the memory-map
// column output, mirroring the combination-dependent phrasing of the
// original C reference tool.
func Describe(exec ExecPolicy, ap AccessPermission, attrs Attributes) string {
	if exec == Executable {
		if attrs == NormalWriteBackReadWriteAllocate {
			if ap == APReadOnly {
				return "WRITE_BACK_READ_AND_WRITE_ALLOCATE (read-only, execute allowed)"
			}
			return "WRITE_BACK_READ_AND_WRITE_ALLOCATE (fully cached, execute allowed)"
		}
		return fmt.Sprintf("unknown %s combination with execute allowed", attrs)
	}

	if ap == APReadOnly {
		if attrs == NormalWriteBackReadWriteAllocate {
			return "WRITE_BACK_READ_AND_WRITE_ALLOCATE (read-only, execute allowed)"
		}
		return fmt.Sprintf("unknown %s combination with read-only access", attrs)
	}

	if ap == APNone {
		if attrs == NoAccess {
			return "NO_ACCESS"
		}
		return fmt.Sprintf("unknown %s combination with no access", attrs)
	}

	switch attrs {
	case StronglyOrdered:
		return "STRONGLY_ORDERED"
	case DeviceShareable:
		return "DEVICE_SHAREABLE"
	case NormalWriteThroughNoWriteAllocate:
		return "WRITE_THROUGH_NO_WRITE_ALLOCATE (logging)"
	case NormalWriteBackNoWriteAllocate:
		return "WRITE_BACK_NO_WRITE_ALLOCATE (logging & stats)"
	case NormalUncached:
		return "UNCACHED e.g. inbox/outbox, pktmem"
	case NormalWriteBackReadWriteAllocate:
		return "WRITE_BACK_READ_AND_WRITE_ALLOCATE (fully cached)"
	case NormalWriteBackReadWriteAllocateNonShareable:
		return "WRITE_BACK_READ_AND_WRITE_ALLOCATE_NON_SHAREABLE (fully cached and works with jtag)"
	case DeviceNonShareable:
		return "DEVICE_NON_SHAREABLE"
	default:
		return fmt.Sprintf("unknown %s combination", attrs)
	}
}
