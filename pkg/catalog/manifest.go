package catalog

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/hwaldner/cloudcanvas/pkg/shape"
)

// manifest mirrors the TOML catalog file layout:
//
//	[component.firewall]
//	label = "Firewall"
//	class = "container"
//	width = 320
//	height = 240
//	boundary = "system"
//
//	[component.firewall.props]
//	mode = "stateful"
type manifest struct {
	Component map[string]manifestComponent `toml:"component"`
}

type manifestComponent struct {
	Label    string            `toml:"label"`
	Class    string            `toml:"class"` // "container" or "leaf" (default)
	Width    float64           `toml:"width"`
	Height   float64           `toml:"height"`
	Opacity  float64           `toml:"opacity"`
	Boundary string            `toml:"boundary"`
	Props    map[string]string `toml:"props"`
}

// LoadManifest extends the catalog with components from a TOML file.
// Entries with a key already present override the built-in definition.
// Omitted width/height fall back to the class default.
func (c *Catalog) LoadManifest(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read manifest %s: %w", path, err)
	}
	return c.loadManifestData(data)
}

func (c *Catalog) loadManifestData(data []byte) error {
	var m manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}

	for key, mc := range m.Component {
		comp := Component{
			Key:      key,
			Label:    mc.Label,
			Width:    mc.Width,
			Height:   mc.Height,
			Opacity:  mc.Opacity,
			Boundary: mc.Boundary,
			Props:    mc.Props,
		}
		switch mc.Class {
		case "container":
			comp.Class = shape.ClassContainer
			if comp.Width == 0 {
				comp.Width = defaultContainerW
			}
			if comp.Height == 0 {
				comp.Height = defaultContainerH
			}
			if comp.Boundary == "" {
				comp.Boundary = BoundaryGeneric
			}
		case "", "leaf":
			comp.Class = shape.ClassLeaf
			if comp.Width == 0 {
				comp.Width = defaultLeafW
			}
			if comp.Height == 0 {
				comp.Height = defaultLeafH
			}
		default:
			return fmt.Errorf("component %q: unknown class %q", key, mc.Class)
		}
		if err := c.add(comp); err != nil {
			return err
		}
	}
	return nil
}
