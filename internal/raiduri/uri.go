// Package raiduri parses the --raids=<mode>:<devlist> grammar (spec §6)
// and turns each device reference into a concrete zbd.Backend through a
// caller-supplied factory. The libzbd-style and ZoneFS-style backends
// themselves are external collaborators out of this module's scope (spec
// §1); this package only owns the grammar and the seam a real driver
// plugs into, grounded on the teacher's flag-parsing style in
// internal/cobra/cobra.go (plain pflag.StringVar, no dedicated parser
// package) generalized to a real mini-grammar since spec §6 specifies one.
package raiduri

import (
	"fmt"
	"strings"

	"github.com/Anthya1104/zoneraid/internal/raidmode"
	"github.com/Anthya1104/zoneraid/internal/zbd"
)

// DevRefKind distinguishes the two backend families the grammar names.
type DevRefKind int

const (
	DevRefZBD DevRefKind = iota
	DevRefZoneFS
)

// DevRef is one parsed "dev:<name>" or "zonefs:<path>" device reference.
type DevRef struct {
	Kind DevRefKind
	Name string
}

// Spec is a fully parsed "--raids=<mode>:<devlist>" value.
type Spec struct {
	Mode    raidmode.Mode
	DevRefs []DevRef
}

// Parse parses spec per the grammar:
//
//	spec   := mode ":" devlist
//	mode   := "raid0" | "raid1" | "raida" | "raidc" | "raid5" | "raid6" | "raid10"
//	          | "0" | "1" | "a" | "c" | "5" | "6" | "10"   (case-insensitive)
//	devlist:= devref ("," devref)*
//	devref := "dev:" <device-name> | "zonefs:" <mount-path>
func Parse(spec string) (Spec, error) {
	modePart, rest, ok := strings.Cut(spec, ":")
	if !ok {
		return Spec{}, fmt.Errorf("raiduri: missing ':' separating mode from devlist in %q", spec)
	}

	mode, ok := raidmode.FromString(modePart)
	if !ok {
		return Spec{}, fmt.Errorf("raiduri: unknown raid mode %q", modePart)
	}

	if rest == "" {
		return Spec{}, fmt.Errorf("raiduri: empty device list in %q", spec)
	}

	var refs []DevRef
	for _, token := range strings.Split(rest, ",") {
		ref, err := parseDevRef(token)
		if err != nil {
			return Spec{}, err
		}
		refs = append(refs, ref)
	}

	return Spec{Mode: mode, DevRefs: refs}, nil
}

func parseDevRef(token string) (DevRef, error) {
	switch {
	case strings.HasPrefix(token, "dev:"):
		name := strings.TrimPrefix(token, "dev:")
		if name == "" {
			return DevRef{}, fmt.Errorf("raiduri: empty device name in %q", token)
		}
		return DevRef{Kind: DevRefZBD, Name: name}, nil
	case strings.HasPrefix(token, "zonefs:"):
		path := strings.TrimPrefix(token, "zonefs:")
		if path == "" {
			return DevRef{}, fmt.Errorf("raiduri: empty mount path in %q", token)
		}
		return DevRef{Kind: DevRefZoneFS, Name: path}, nil
	default:
		return DevRef{}, fmt.Errorf("raiduri: device reference %q must start with \"dev:\" or \"zonefs:\"", token)
	}
}

// Factory constructs the concrete backend a DevRef names. Production
// callers wire this to a real libzbd/zonefs driver; tests wire it to
// zbd.NewMock.
type Factory func(ref DevRef) (zbd.Backend, error)

// BuildDevices resolves every DevRef in a Spec through factory, in order,
// stopping at the first construction failure.
func BuildDevices(spec Spec, factory Factory) ([]zbd.Backend, error) {
	devices := make([]zbd.Backend, 0, len(spec.DevRefs))
	for _, ref := range spec.DevRefs {
		dev, err := factory(ref)
		if err != nil {
			return nil, fmt.Errorf("raiduri: building %v: %w", ref, err)
		}
		devices = append(devices, dev)
	}
	return devices, nil
}
