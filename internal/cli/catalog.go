package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/hwaldner/cloudcanvas/pkg/catalog"
	"github.com/hwaldner/cloudcanvas/pkg/shape"
)

// catalogCommand creates the catalog command for listing components.
func (c *CLI) catalogCommand() *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the component catalog",
		Long: `Catalog prints every component key a shape can be created from, with
its class, default geometry, and property defaults. A TOML manifest
extends the built-in set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := catalog.Default()
			if manifestPath != "" {
				if err := cat.LoadManifest(manifestPath); err != nil {
					return err
				}
			}
			printCatalog(cat)
			return nil
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "TOML manifest with additional components")

	return cmd
}

var (
	styleCatalogKey   = lipgloss.NewStyle().Foreground(colorCyan).Width(14)
	styleCatalogClass = lipgloss.NewStyle().Foreground(colorGray).Width(10)
)

func printCatalog(cat *catalog.Catalog) {
	fmt.Println(StyleTitle.Render("Components"))
	for _, comp := range cat.Components() {
		class := "leaf"
		if comp.Class == shape.ClassContainer {
			class = "container"
		}
		line := styleCatalogKey.Render(comp.Key) +
			styleCatalogClass.Render(class) +
			StyleValue.Render(comp.Label) +
			StyleDim.Render(fmt.Sprintf("  %gx%g", comp.Width, comp.Height))
		if comp.Boundary != "" {
			line += StyleDim.Render("  boundary=" + comp.Boundary)
		}
		fmt.Println(line)
		if len(comp.Props) > 0 {
			printDetail("defaults: %s", formatProps(comp.Props))
		}
	}
}

func formatProps(props map[string]string) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+props[k])
	}
	return strings.Join(parts, " ")
}
