// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package memmap loads a YAML memory-map document — a sequence of "region"
// entries tagged with the access attributes the MPU should enforce over
// them — into region.RegionRequest values ready for region.Cover.
package memmap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/usbarmory/mpuplan/mpuattr"
	"github.com/usbarmory/mpuplan/region"
)

// ErrUnknownEnum is wrapped by a ParseError when a token does not match any
// of the valid values for its field.
var ErrUnknownEnum = errors.New("memmap: unknown enum value")

// ErrMissingRange is wrapped by a ParseError when an entry gives neither a
// size nor an end_addr.
var ErrMissingRange = errors.New("memmap: region has neither size nor end_addr")

// ParseError reports a document loader failure tagged with the line:column
// of the offending token, so a user can jump straight to the mistake.
type ParseError struct {
	Line, Column int
	Token        string
	Err          error
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%d:%d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%d:%d: %v: %q", e.Line, e.Column, e.Err, e.Token)
}

func (e *ParseError) Unwrap() error { return e.Err }

// sizeValue is a YAML scalar accepting either a "0x"-prefixed hex literal or
// a decimal literal optionally suffixed with K/KB, M/MB or G/GB.
type sizeValue uint32

func (v *sizeValue) UnmarshalYAML(node *yaml.Node) error {
	n, err := parseSize(node.Value)
	if err != nil {
		return &ParseError{Line: node.Line, Column: node.Column, Token: node.Value, Err: err}
	}
	*v = sizeValue(n)
	return nil
}

func parseSize(s string) (uint32, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("expected hexadecimal: %w", err)
		}
		return uint32(n), nil
	}

	mult := uint64(1)
	trimmed := s
	switch {
	case strings.HasSuffix(s, "GB"):
		mult, trimmed = 1<<30, strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "G"):
		mult, trimmed = 1<<30, strings.TrimSuffix(s, "G")
	case strings.HasSuffix(s, "MB"):
		mult, trimmed = 1<<20, strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "M"):
		mult, trimmed = 1<<20, strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "KB"):
		mult, trimmed = 1<<10, strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "K"):
		mult, trimmed = 1<<10, strings.TrimSuffix(s, "K")
	}

	n, err := strconv.ParseUint(strings.TrimSpace(trimmed), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("expected decimal: %w", err)
	}
	return uint32(n * mult), nil
}

// execValue is the YAML token form of mpuattr.ExecPolicy.
type execValue mpuattr.ExecPolicy

var execTokens = map[string]mpuattr.ExecPolicy{
	"EXECUTE":       mpuattr.Executable,
	"NEVER_EXECUTE": mpuattr.NeverExecute,
}

func (v *execValue) UnmarshalYAML(node *yaml.Node) error {
	p, ok := execTokens[node.Value]
	if !ok {
		return &ParseError{Line: node.Line, Column: node.Column, Token: node.Value, Err: fmt.Errorf("%w for DisableExec", ErrUnknownEnum)}
	}
	*v = execValue(p)
	return nil
}

// accessPermissionValue is the YAML token form of mpuattr.AccessPermission.
type accessPermissionValue mpuattr.AccessPermission

var accessPermissionTokens = map[string]mpuattr.AccessPermission{
	"ARM_MPU_AP_NONE": mpuattr.APNone,
	"ARM_MPU_AP_PRIV": mpuattr.APPrivilegedOnly,
	"ARM_MPU_AP_URO":  mpuattr.APPrivilegedReadWriteUserReadOnly,
	"ARM_MPU_AP_FULL": mpuattr.APFull,
	"ARM_MPU_AP_PRO":  mpuattr.APPrivilegedReadOnly,
	"ARM_MPU_AP_RO":   mpuattr.APReadOnly,
}

func (v *accessPermissionValue) UnmarshalYAML(node *yaml.Node) error {
	p, ok := accessPermissionTokens[node.Value]
	if !ok {
		return &ParseError{Line: node.Line, Column: node.Column, Token: node.Value, Err: fmt.Errorf("%w for AccessPermission", ErrUnknownEnum)}
	}
	*v = accessPermissionValue(p)
	return nil
}

// accessAttributesValue is the YAML token form of mpuattr.Attributes. Both
// the fully-qualified "NORMAL_..." names and the shorter aliases dropping
// the "NORMAL_" prefix are accepted, matching the reference tool's token
// table.
type accessAttributesValue struct {
	mpuattr.Attributes
}

var accessAttributesTokens = map[string]mpuattr.Attributes{
	"NO_ACCESS":                                mpuattr.NoAccess,
	"STRONGLY_ORDERED":                         mpuattr.StronglyOrdered,
	"DEVICE_SHAREABLE":                         mpuattr.DeviceShareable,
	"DEVICE_NON_SHAREABLE":                     mpuattr.DeviceNonShareable,
	"NORMAL_UNCACHED":                          mpuattr.NormalUncached,
	"NORMAL_WRITE_THROUGH_NO_WRITE_ALLOCATE":   mpuattr.NormalWriteThroughNoWriteAllocate,
	"NORMAL_WRITE_BACK_NO_WRITE_ALLOCATE":      mpuattr.NormalWriteBackNoWriteAllocate,
	"NORMAL_WRITE_BACK_READ_AND_WRITE_ALLOCATE": mpuattr.NormalWriteBackReadWriteAllocate,
	"NORMAL_WRITE_BACK_READ_AND_WRITE_ALLOCATE_NON_SHAREABLE": mpuattr.NormalWriteBackReadWriteAllocateNonShareable,

	// aliases dropping the "NORMAL_" prefix
	"UNCACHED":                          mpuattr.NormalUncached,
	"WRITE_THROUGH_NO_WRITE_ALLOCATE":   mpuattr.NormalWriteThroughNoWriteAllocate,
	"WRITE_BACK_NO_WRITE_ALLOCATE":      mpuattr.NormalWriteBackNoWriteAllocate,
	"WRITE_BACK_READ_AND_WRITE_ALLOCATE": mpuattr.NormalWriteBackReadWriteAllocate,
	"WRITE_BACK_READ_AND_WRITE_ALLOCATE_NON_SHAREABLE": mpuattr.NormalWriteBackReadWriteAllocateNonShareable,
}

func (v *accessAttributesValue) UnmarshalYAML(node *yaml.Node) error {
	a, ok := accessAttributesTokens[node.Value]
	if !ok {
		return &ParseError{Line: node.Line, Column: node.Column, Token: node.Value, Err: fmt.Errorf("%w for AccessAttributes", ErrUnknownEnum)}
	}
	v.Attributes = a
	return nil
}

// entryDoc is the per-entry builder a single YAML "region" block
// unmarshals into. Its lifetime is the entry: populated, validated and
// turned into a region.RegionRequest, then discarded — replacing the
// reference tool's process-wide globals threaded across the whole document
// traversal.
type entryDoc struct {
	StartAddr        sizeValue
	Size             sizeValue
	EndAddr          sizeValue
	DisableExec      execValue
	AccessPermission accessPermissionValue
	AccessAttributes accessAttributesValue
	Comment          string
}

// defaults mirror the reference tool's reset-on-"region" values: execution
// disabled, full access, no cache/shareability attributes.
func newEntryDoc() entryDoc {
	return entryDoc{
		DisableExec:      execValue(mpuattr.NeverExecute),
		AccessPermission: accessPermissionValue(mpuattr.APFull),
		AccessAttributes: accessAttributesValue{mpuattr.NoAccess},
	}
}

func (e *entryDoc) UnmarshalYAML(node *yaml.Node) error {
	*e = newEntryDoc()

	if node.Kind != yaml.MappingNode {
		return &ParseError{Line: node.Line, Column: node.Column, Err: errors.New("memmap: region entry must be a mapping")}
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "start_addr":
			if err := e.StartAddr.UnmarshalYAML(val); err != nil {
				return err
			}
		case "size":
			if err := e.Size.UnmarshalYAML(val); err != nil {
				return err
			}
		case "end_addr":
			if err := e.EndAddr.UnmarshalYAML(val); err != nil {
				return err
			}
		case "DisableExec":
			if err := e.DisableExec.UnmarshalYAML(val); err != nil {
				return err
			}
		case "AccessPermission":
			if err := e.AccessPermission.UnmarshalYAML(val); err != nil {
				return err
			}
		case "AccessAttributes":
			if err := e.AccessAttributes.UnmarshalYAML(val); err != nil {
				return err
			}
		case "comment", "attributes":
			e.Comment = val.Value
		default:
			return &ParseError{Line: key.Line, Column: key.Column, Token: key.Value, Err: errors.New("memmap: unknown field")}
		}
	}

	return nil
}

// document is the top-level shape: a sequence of entries, each wrapping a
// single "region" key.
type document []struct {
	Region entryDoc `yaml:"region"`
}

// Load parses a YAML memory-map document into RegionRequests in document
// order, assigning sequential Priority (region-number slot) values starting
// at firstRegionNumber.
func Load(data []byte, firstRegionNumber uint32) ([]region.RegionRequest, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		var te *yaml.TypeError
		if errors.As(err, &te) {
			return nil, &ParseError{Err: fmt.Errorf("memmap: %s", strings.Join(te.Errors, "; "))}
		}
		return nil, &ParseError{Err: fmt.Errorf("memmap: %w", err)}
	}

	reqs := make([]region.RegionRequest, 0, len(doc))
	regionNumber := firstRegionNumber

	for _, item := range doc {
		e := item.Region

		start := uint32(e.StartAddr)
		var end uint32
		switch {
		case e.Size != 0:
			end = start + uint32(e.Size) - 1
		case e.EndAddr != 0:
			end = uint32(e.EndAddr)
		default:
			return nil, &ParseError{Err: ErrMissingRange, Token: e.Comment}
		}

		reqs = append(reqs, region.RegionRequest{
			Start:    start,
			End:      end,
			Exec:     mpuattr.ExecPolicy(e.DisableExec),
			AP:       mpuattr.AccessPermission(e.AccessPermission),
			Attrs:    e.AccessAttributes.Attributes,
			Comment:  e.Comment,
			Priority: regionNumber,
		})
		regionNumber++
	}

	return reqs, nil
}
