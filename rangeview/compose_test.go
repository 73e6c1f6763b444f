// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package rangeview

import (
	"bytes"
	"strings"
	"testing"

	"github.com/usbarmory/mpuplan/mpuattr"
	"github.com/usbarmory/mpuplan/region"
)

// typicalEmbeddedTable reproduces the three live descriptors behind golden
// scenario 5 ("Composition rendering"): a read-only executable code region,
// a shareable device span, and a strongly-ordered peripheral window, each
// surrounded by unmapped background.
func typicalEmbeddedTable() region.MpuTable {
	var table region.MpuTable

	// 0x00400000-0x00437fff, 224K (256K region, top 32K subregion disabled).
	table.Add(region.PlannedDescriptor{
		RegionNumber:         7,
		Base:                 0x00400000,
		SizeClass:            17,
		SubRegionDisableMask: 0x80,
		Exec:                 mpuattr.Executable,
		AP:                   mpuattr.APReadOnly,
		Attrs:                mpuattr.NormalWriteBackReadWriteAllocate,
	})

	// 0x01000000-0x02ffffff, 32M.
	table.Add(region.PlannedDescriptor{
		RegionNumber: 1,
		Base:         0x01000000,
		SizeClass:    24,
		Exec:         mpuattr.NeverExecute,
		AP:           mpuattr.APFull,
		Attrs:        mpuattr.DeviceShareable,
	})

	// 0xe0000000-0xe000ffff, 64K.
	table.Add(region.PlannedDescriptor{
		RegionNumber: 6,
		Base:         0xe0000000,
		SizeClass:    15,
		Exec:         mpuattr.NeverExecute,
		AP:           mpuattr.APFull,
		Attrs:        mpuattr.StronglyOrdered,
	})

	return table
}

func TestComposeTableAndEffective(t *testing.T) {
	table := typicalEmbeddedTable()
	rv := ComposeTable(table)

	iv, ok := rv.Find(0x00420000)
	if !ok {
		t.Fatal("Find(0x00420000): not found")
	}
	winner := Effective(iv)
	if winner == nil || winner.RegionNumber != 7 {
		t.Fatalf("Effective at 0x00420000 = %+v, want region 7", winner)
	}

	iv, ok = rv.Find(0x00000000)
	if !ok {
		t.Fatal("Find(0x00000000): not found")
	}
	if Effective(iv) != nil {
		t.Fatalf("Effective at 0x0: want unmapped")
	}
}

// TestRenderMemoryMapGoldenScenario5 reproduces spec golden scenario 5's
// composition rendering table line for line (the rows it shows; the
// abridged "…" gap between region 7 and region 1 is a real, unasserted row
// here since this table has only 3 live descriptors instead of the full
// 16-slot one the golden text summarizes).
func TestRenderMemoryMapGoldenScenario5(t *testing.T) {
	table := typicalEmbeddedTable()
	rv := ComposeTable(table)

	var buf bytes.Buffer
	if err := RenderMemoryMap(&buf, rv); err != nil {
		t.Fatalf("RenderMemoryMap: %v", err)
	}
	out := buf.String()

	want := []string{
		"start    end      size   #  description\n",
		"-------- -------- ------ -- -----------\n",
		"00000000 003fffff   4M  . unmapped\n",
		"00400000 00437fff 224K  7 WRITE_BACK_READ_AND_WRITE_ALLOCATE (read-only, execute allowed)\n",
		"01000000 02ffffff  32M  1 DEVICE_SHAREABLE\n",
		"03000000 dfffffff 3.5G  . unmapped\n",
		"e0000000 e000ffff  64K  6 STRONGLY_ORDERED\n",
		"e0010000 ffffffff 511.9M  . unmapped\n",
	}
	for _, line := range want {
		if !strings.Contains(out, line) {
			t.Errorf("RenderMemoryMap output missing golden line %q\nfull output:\n%s", line, out)
		}
	}
}

func TestRenderDescriptorBlockActiveWithSubregions(t *testing.T) {
	d := region.PlannedDescriptor{
		RegionNumber:         7,
		Base:                 0x00400000,
		SizeClass:            17,
		SubRegionDisableMask: 0x80,
		Exec:                 mpuattr.Executable,
		AP:                   mpuattr.APReadOnly,
		Attrs:                mpuattr.NormalWriteBackReadWriteAllocate,
		Comment:              "boot code",
	}

	var buf bytes.Buffer
	if err := RenderDescriptorBlock(&buf, d); err != nil {
		t.Fatalf("RenderDescriptorBlock: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"// boot code\n",
		"subregion_size=32K, subregions=0x7f\n",
		"region mask enabled start      end\n",
		"      7   0x80    N    0x00438000 0x0043ffff\n",
		"      6   0x40    Y    0x00430000 0x00437fff <-- enabled\n",
		"{ BAR = RBAR(7, 0x00400000),\n  ASR = RASR_EX(EXECUTE, ARM_MPU_AP_RO, NORMAL_WRITE_BACK_READ_AND_WRITE_ALLOCATE, 0x80, SIZE_256KB) }\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderDescriptorBlock output missing %q\nfull output:\n%s", want, out)
		}
	}
}

func TestRenderDescriptorBlocksPadsUnusedSlots(t *testing.T) {
	var table region.MpuTable
	table.Add(region.PlannedDescriptor{
		RegionNumber: 0,
		Base:         0x20000000,
		SizeClass:    17,
		Exec:         mpuattr.NeverExecute,
		AP:           mpuattr.APFull,
		Attrs:        mpuattr.NormalWriteBackReadWriteAllocate,
	})

	var buf bytes.Buffer
	if err := RenderDescriptorBlocks(&buf, table, 3); err != nil {
		t.Fatalf("RenderDescriptorBlocks: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "BAR = RBAR(0, 0x20000000)") {
		t.Errorf("output missing live region 0 block:\n%s", out)
	}
	if !strings.Contains(out, "// unused\n{ BAR = RBAR(1, 0x00000000),\n  ASR = 0 }\n") {
		t.Errorf("output missing padded region 1 block:\n%s", out)
	}
	if !strings.Contains(out, "// unused\n{ BAR = RBAR(2, 0x00000000),\n  ASR = 0 }\n") {
		t.Errorf("output missing padded region 2 block:\n%s", out)
	}
}
