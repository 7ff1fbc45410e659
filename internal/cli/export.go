package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hwaldner/cloudcanvas/pkg/errors"
	"github.com/hwaldner/cloudcanvas/pkg/layout"
	"github.com/hwaldner/cloudcanvas/pkg/pipeline"
	"github.com/hwaldner/cloudcanvas/pkg/store"
	"github.com/hwaldner/cloudcanvas/pkg/urlstate"
)

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	output    string // output file (single format) or base path (multiple)
	token     string // compressed URL state token instead of a file
	resolve   bool   // run geometric containment before generating
	layout    bool   // run hierarchical auto-layout before generating
	direction string // layout direction: top-down or left-right
	spacing   float64
	padding   float64
	pageID    string // restrict generation to one page
	noCache   bool   // bypass the artifact cache
}

// exportCommand creates the export command for generating diagram code.
func (c *CLI) exportCommand() *cobra.Command {
	var formatsStr string
	opts := exportOpts{
		direction: string(layout.DirectionTopDown),
		spacing:   layout.DefaultSpacing,
		padding:   layout.DefaultContainerPadding,
	}

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Generate diagram code from a snapshot",
		Long: `Export reads a snapshot (a file, stdin via "-", or a URL token via --token)
and generates one or more code representations. Supported formats are
mermaid-c4, mermaid-architecture, mermaid-flowchart, json, terraform, dot,
and svg (dot rendered through Graphviz).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.token == "" {
				return errors.New(errors.ErrCodeInvalidInput, "provide a snapshot file or --token")
			}
			return c.runExport(cmd, args, parseFormats(formatsStr), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): mermaid-c4 (default), mermaid-architecture, mermaid-flowchart, json, terraform, dot, svg (comma-separated)")
	cmd.Flags().StringVar(&opts.token, "token", "", "read the snapshot from a compressed URL state token")
	cmd.Flags().BoolVar(&opts.resolve, "resolve", false, "resolve geometric containment before generating")
	cmd.Flags().BoolVar(&opts.layout, "layout", false, "auto-layout the diagram before generating (implies --resolve)")
	cmd.Flags().StringVar(&opts.direction, "direction", opts.direction, "layout direction: top-down or left-right")
	cmd.Flags().Float64Var(&opts.spacing, "spacing", opts.spacing, "sibling spacing in canvas units")
	cmd.Flags().Float64Var(&opts.padding, "padding", opts.padding, "container padding in canvas units")
	cmd.Flags().StringVar(&opts.pageID, "page", "", "restrict generation to one page")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the artifact cache")

	return cmd
}

func (c *CLI) runExport(cmd *cobra.Command, args []string, formats []string, opts *exportOpts) error {
	snap, source, err := loadExportSnapshot(args, opts)
	if err != nil {
		return err
	}

	st := store.New()
	st.LoadSnapshot(snap)

	pipeOpts := pipeline.Options{
		Resolve:   opts.resolve || opts.layout,
		Layout:    opts.layout,
		Direction: layout.Direction(opts.direction),
		Spacing:   opts.spacing,
		Padding:   opts.padding,
		PageID:    opts.pageID,
		Formats:   formats,
		Logger:    c.Logger,
	}

	spinner := newSpinnerWithContext(cmd.Context(), "Generating diagram code")
	spinner.Start()
	result, err := c.newRunner(opts.noCache).Execute(cmd.Context(), st, pipeOpts)
	spinner.Stop()
	if err != nil {
		return err
	}

	printSuccess("Exported %s", source)
	printStats(result.Stats.ItemCount, result.Stats.ConnectionCount, result.CacheInfo.AllHit())

	base := exportBasePath(opts.output, args)
	for _, format := range formats {
		art := result.Artifacts[format]
		path := base + art.Extension
		if len(formats) == 1 && opts.output != "" {
			path = opts.output
		}
		if err := errors.ValidateOutputPath(path); err != nil {
			return err
		}
		if err := writeArtifact(path, art.Content); err != nil {
			return fmt.Errorf("%s: %w", format, err)
		}
		printFile(path)
	}
	return nil
}

// loadExportSnapshot resolves the snapshot source: --token wins, then the
// file argument. The second return names the source for display.
func loadExportSnapshot(args []string, opts *exportOpts) (store.Snapshot, string, error) {
	if opts.token != "" {
		snap, err := urlstate.Decode(opts.token)
		return snap, "url token", err
	}
	snap, err := readSnapshot(args[0])
	return snap, args[0], err
}

func writeArtifact(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

// exportBasePath derives the output base path from -o and the input file.
// Multiple formats append their own extensions to the base.
func exportBasePath(output string, args []string) string {
	if output != "" {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	if len(args) > 0 && args[0] != "-" {
		return strings.TrimSuffix(args[0], filepath.Ext(args[0]))
	}
	return "diagram"
}
