package cli

import (
	"github.com/spf13/cobra"

	"github.com/hwaldner/cloudcanvas/pkg/containment"
	"github.com/hwaldner/cloudcanvas/pkg/store"
)

// resolveCommand creates the resolve command for containment resolution.
func (c *CLI) resolveCommand() *cobra.Command {
	var (
		output string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [file]",
		Short: "Reparent shapes by geometric containment",
		Long: `Resolve reads a snapshot and reparents every shape to the smallest
container whose bounds enclose its center, leaving positions untouched.

Without -o the input file is rewritten in place. With --dry-run the
reparent operations are printed and nothing is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readSnapshot(args[0])
			if err != nil {
				return err
			}

			st := store.New()
			st.LoadSnapshot(snap)

			ops := containment.PassAll(st.Shapes(""))
			if dryRun {
				if len(ops) == 0 {
					printInfo("No shapes need reparenting")
					return nil
				}
				for _, op := range ops {
					target := op.NewParent
					if target == "" {
						target = "(root)"
					}
					printDetail("%s %s %s", op.ShapeID, iconArrow, target)
				}
				return nil
			}

			st.ApplyReparents(ops)

			dest := output
			if dest == "" {
				dest = args[0]
			}
			if err := writeSnapshot(st.Snapshot(), dest); err != nil {
				return err
			}

			if dest != "-" {
				printSuccess("Reparented %d shapes", len(ops))
				printFile(dest)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: rewrite input)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print reparent operations without writing")

	return cmd
}
