// mpuplan memory map compiler
// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// The mpuplan command reads a YAML memory map document and emits the
// ARMv7-M MPU region table that enforces it: a human-readable composed
// memory map followed by a descriptor block per hardware region, ready to
// paste into a static MPU table initializer.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/usbarmory/mpuplan/memmap"
	"github.com/usbarmory/mpuplan/rangeview"
	"github.com/usbarmory/mpuplan/region"
)

func main() {
	log.SetFlags(0)

	var (
		memoryMapPath  string
		outputFilename string
		mpuTableSize   int
	)

	cmd := &cobra.Command{
		Use:           "mpuplan",
		Short:         "plan an ARMv7-M MPU region table from a memory map document",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mpuTableSize < 1 || mpuTableSize > region.TableCap {
				return fmt.Errorf("--mpu_table_size must be between 1 and %d", region.TableCap)
			}
			return run(memoryMapPath, outputFilename, mpuTableSize)
		},
	}

	cmd.Flags().StringVar(&memoryMapPath, "memory_map", "", "path to the YAML memory map document")
	cmd.Flags().StringVar(&outputFilename, "output_filename", "", "destination file for the generated table (default stdout)")
	cmd.Flags().IntVar(&mpuTableSize, "mpu_table_size", region.TableCap, "number of MPU regions available on the target (1-16)")

	if err := cmd.MarkFlagRequired("memory_map"); err != nil {
		log.Fatalf("mpuplan: %v", err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatalf("mpuplan: %v", err)
	}
}

func run(memoryMapPath, outputFilename string, mpuTableSize int) error {
	data, err := os.ReadFile(memoryMapPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", memoryMapPath, err)
	}

	reqs, err := memmap.Load(data, 0)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", memoryMapPath, err)
	}

	table, err := plan(reqs)
	if err != nil {
		return err
	}
	if len(table.Descriptors) > mpuTableSize {
		return fmt.Errorf("plan uses %d regions, exceeds --mpu_table_size=%d", len(table.Descriptors), mpuTableSize)
	}

	out := os.Stdout
	if outputFilename != "" {
		f, err := os.Create(outputFilename)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outputFilename, err)
		}
		defer f.Close()
		out = f
	}

	return render(out, table, mpuTableSize)
}

// plan decomposes every requested range into hardware descriptors,
// assigning region numbers in document order starting at 0.
func plan(reqs []region.RegionRequest) (region.MpuTable, error) {
	var table region.MpuTable

	nextRegion := uint32(0)
	for _, r := range reqs {
		descs, next, err := region.Cover(r.Start, r.End, r.Exec, r.AP, r.Attrs, nextRegion)
		if err != nil {
			return table, fmt.Errorf("region 0x%08x-0x%08x: %w", r.Start, r.End, err)
		}

		for i := range descs {
			descs[i].Comment = r.Comment
			if err := table.Add(descs[i]); err != nil {
				return table, fmt.Errorf("region 0x%08x-0x%08x: %w", r.Start, r.End, err)
			}
		}

		nextRegion = next
	}

	return table, nil
}

func render(out *os.File, table region.MpuTable, mpuTableSize int) error {
	rv := rangeview.ComposeTable(table)

	if err := rangeview.RenderMemoryMap(out, rv); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return err
	}

	return rangeview.RenderDescriptorBlocks(out, table, mpuTableSize)
}
