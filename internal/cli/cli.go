// Package cli implements the cloudcanvas command-line interface.
//
// This package provides commands for exporting diagram snapshots to code
// formats, running containment resolution and auto-layout, encoding and
// decoding shareable URL tokens, and serving the share API over HTTP. The
// CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - export: Generate diagram code (mermaid, terraform, json, dot) from a snapshot
//   - layout: Resolve containment and auto-layout a snapshot in place
//   - resolve: Reparent shapes by geometric containment only
//   - state: Encode or decode compressed URL state tokens
//   - serve: Run the share and export HTTP server
//   - catalog: List the built-in component catalog
//   - cache: Manage the generated artifact cache
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hwaldner/cloudcanvas/pkg/buildinfo"
	"github.com/hwaldner/cloudcanvas/pkg/cache"
	"github.com/hwaldner/cloudcanvas/pkg/export"
	"github.com/hwaldner/cloudcanvas/pkg/pipeline"
	"github.com/hwaldner/cloudcanvas/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "cloudcanvas"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "CloudCanvas turns infrastructure diagrams into code",
		Long:         `CloudCanvas is a CLI tool for working with infrastructure diagram snapshots: it resolves containment, computes hierarchical layouts, and generates Mermaid, Terraform, JSON, and DOT representations.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.stateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) *pipeline.Runner {
	return pipeline.NewRunner(newCache(noCache), nil, c.Logger)
}

func newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/cloudcanvas/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Snapshot IO
// =============================================================================

// readSnapshot loads a snapshot from path, or from stdin when path is "-".
func readSnapshot(path string) (store.Snapshot, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return store.Snapshot{}, err
	}
	return store.UnmarshalSnapshot(data)
}

// writeSnapshot marshals a snapshot to path, or to stdout when path is "-".
func writeSnapshot(snap store.Snapshot, path string) error {
	data, err := store.MarshalSnapshot(snap)
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{export.FormatMermaidC4}
	}
	return strings.Split(s, ",")
}
