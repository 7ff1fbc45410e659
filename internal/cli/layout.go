package cli

import (
	"github.com/spf13/cobra"

	"github.com/hwaldner/cloudcanvas/pkg/containment"
	"github.com/hwaldner/cloudcanvas/pkg/layout"
	"github.com/hwaldner/cloudcanvas/pkg/store"
)

// layoutCommand creates the layout command for auto-arranging a snapshot.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output    string
		direction string
		spacing   float64
		padding   float64
	)

	cmd := &cobra.Command{
		Use:   "layout [file]",
		Short: "Resolve containment and auto-layout a snapshot",
		Long: `Layout reads a snapshot, resolves geometric containment, computes a
hierarchical layout (children arranged inside their containers, containers
grown to fit), and writes the updated snapshot back.

Without -o the input file is rewritten in place. Use "-" to read stdin and
write stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readSnapshot(args[0])
			if err != nil {
				return err
			}

			st := store.New()
			st.LoadSnapshot(snap)

			shapes := st.Shapes("")
			ops := containment.PassAll(shapes)
			st.ApplyReparents(ops)

			updates := layout.Compute(st.Shapes(""), layout.Direction(direction), spacing, layout.Options{
				ContainerPadding: padding,
			})
			layout.Apply(st, updates)

			dest := output
			if dest == "" {
				dest = args[0]
			}
			if err := writeSnapshot(st.Snapshot(), dest); err != nil {
				return err
			}

			if dest != "-" {
				printSuccess("Laid out %d shapes (%d reparented, %d moved)", len(shapes), len(ops), len(updates))
				printFile(dest)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: rewrite input)")
	cmd.Flags().StringVar(&direction, "direction", string(layout.DirectionTopDown), "layout direction: top-down or left-right")
	cmd.Flags().Float64Var(&spacing, "spacing", layout.DefaultSpacing, "sibling spacing in canvas units")
	cmd.Flags().Float64Var(&padding, "padding", layout.DefaultContainerPadding, "container padding in canvas units")

	return cmd
}
