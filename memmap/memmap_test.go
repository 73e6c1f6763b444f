// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package memmap

import (
	"errors"
	"testing"

	"github.com/usbarmory/mpuplan/mpuattr"
)

func TestLoadSizeAndEndAddrVariants(t *testing.T) {
	doc := []byte(`
- region:
    start_addr: 0x00400000
    size: 256K
    DisableExec: EXECUTE
    AccessPermission: ARM_MPU_AP_RO
    AccessAttributes: WRITE_BACK_READ_AND_WRITE_ALLOCATE
    comment: text and rodata
- region:
    start_addr: 0x00f00000
    end_addr: 0x00ffffff
    DisableExec: NEVER_EXECUTE
    AccessPermission: ARM_MPU_AP_FULL
    AccessAttributes: DEVICE_SHAREABLE
`)

	reqs, err := Load(doc, 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("got %d requests, want 2", len(reqs))
	}

	r0 := reqs[0]
	if r0.Start != 0x00400000 || r0.End != 0x0043ffff {
		t.Errorf("entry 0 range = [0x%x,0x%x], want [0x400000,0x43ffff]", r0.Start, r0.End)
	}
	if r0.Exec != mpuattr.Executable || r0.AP != mpuattr.APReadOnly || r0.Attrs != mpuattr.NormalWriteBackReadWriteAllocate {
		t.Errorf("entry 0 attrs = %+v", r0)
	}
	if r0.Priority != 0 {
		t.Errorf("entry 0 priority = %d, want 0", r0.Priority)
	}

	r1 := reqs[1]
	if r1.Start != 0x00f00000 || r1.End != 0x00ffffff {
		t.Errorf("entry 1 range = [0x%x,0x%x], want [0xf00000,0xffffff]", r1.Start, r1.End)
	}
	if r1.Priority != 1 {
		t.Errorf("entry 1 priority = %d, want 1", r1.Priority)
	}
}

func TestLoadDefaults(t *testing.T) {
	doc := []byte(`
- region:
    start_addr: 0x0
    end_addr: 0xff
`)
	reqs, err := Load(doc, 5)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r := reqs[0]
	if r.Exec != mpuattr.NeverExecute {
		t.Errorf("default Exec = %v, want NeverExecute", r.Exec)
	}
	if r.AP != mpuattr.APFull {
		t.Errorf("default AP = %v, want APFull", r.AP)
	}
	if r.Attrs != mpuattr.NoAccess {
		t.Errorf("default Attrs = %v, want NoAccess", r.Attrs)
	}
	if r.Priority != 5 {
		t.Errorf("priority = %d, want 5", r.Priority)
	}
}

func TestLoadUnknownEnum(t *testing.T) {
	doc := []byte(`
- region:
    start_addr: 0x0
    size: 0x100
    AccessAttributes: BOGUS_VALUE
`)
	_, err := Load(doc, 0)
	if err == nil {
		t.Fatal("expected error for unknown AccessAttributes token")
	}

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v (%T), want *ParseError", err, err)
	}
	if !errors.Is(pe, ErrUnknownEnum) {
		t.Errorf("ParseError does not wrap ErrUnknownEnum: %v", pe)
	}
}

func TestLoadMissingRange(t *testing.T) {
	doc := []byte(`
- region:
    start_addr: 0x0
    comment: oops no size or end_addr
`)
	_, err := Load(doc, 0)
	if !errors.Is(err, ErrMissingRange) {
		t.Fatalf("err = %v, want ErrMissingRange", err)
	}
}

func TestParseSizeHexAndSuffixes(t *testing.T) {
	cases := []struct {
		in   string
		want uint32
	}{
		{"0x1000", 0x1000},
		{"256K", 256 * 1024},
		{"256KB", 256 * 1024},
		{"4M", 4 * 1024 * 1024},
		{"1G", 1 << 30},
		{"42", 42},
	}
	for _, c := range cases {
		got, err := parseSize(c.in)
		if err != nil {
			t.Errorf("parseSize(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseSize(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}
