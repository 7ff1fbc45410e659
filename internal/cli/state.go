package cli

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/hwaldner/cloudcanvas/pkg/urlstate"
)

// stateCommand creates the state command for URL token management.
func (c *CLI) stateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Encode and decode compressed URL state tokens",
	}

	cmd.AddCommand(c.stateEncodeCommand())
	cmd.AddCommand(c.stateDecodeCommand())

	return cmd
}

// stateEncodeCommand creates the "state encode" subcommand.
func (c *CLI) stateEncodeCommand() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode a snapshot as a compressed URL token",
		Long: `Encode compresses a snapshot and prints it as a URL-safe token.
With --base-url the full shareable link is printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readSnapshot(args[0])
			if err != nil {
				return err
			}

			token, err := urlstate.Encode(snap)
			if err != nil {
				return err
			}

			if baseURL != "" {
				u, err := url.Parse(baseURL)
				if err != nil {
					return fmt.Errorf("parse base url: %w", err)
				}
				q := u.Query()
				q.Set(urlstate.DefaultParam, token)
				u.RawQuery = q.Encode()
				fmt.Println(u.String())
				return nil
			}

			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "print a full link with the token as the canvas parameter")

	return cmd
}

// stateDecodeCommand creates the "state decode" subcommand.
func (c *CLI) stateDecodeCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "decode [token]",
		Short: "Decode a URL token back into a snapshot",
		Long: `Decode expands a compressed URL token and prints the snapshot JSON.
The token may also be a full URL; the canvas parameter is extracted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := extractToken(args[0])
			snap, err := urlstate.Decode(token)
			if err != nil {
				return err
			}

			dest := output
			if dest == "" {
				dest = "-"
			}
			if err := writeSnapshot(snap, dest); err != nil {
				return err
			}
			if dest != "-" {
				printSuccess("Decoded %d shapes", len(snap.Shapes))
				printFile(dest)
			} else {
				fmt.Fprintln(os.Stdout)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the snapshot to a file instead of stdout")

	return cmd
}

// extractToken accepts either a bare token or a full URL carrying the token
// as the canvas query parameter.
func extractToken(s string) string {
	u, err := url.Parse(s)
	if err != nil || u.RawQuery == "" {
		return s
	}
	if token := u.Query().Get(urlstate.DefaultParam); token != "" {
		return token
	}
	return s
}
