package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hwaldner/cloudcanvas/internal/server"
	"github.com/hwaldner/cloudcanvas/pkg/pipeline"
	"github.com/hwaldner/cloudcanvas/pkg/share"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr          string
	backend       string // memory, file, redis, or mongo
	shareDir      string
	redisAddr     string
	redisPassword string
	redisDB       int
	mongoURI      string
	shareTTL      time.Duration
	noCache       bool
}

// serveCommand creates the serve command for running the share server.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:     ":8080",
		backend:  "memory",
		shareTTL: share.DefaultTTL,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the share and export HTTP server",
		Long: `Serve starts an HTTP server that stores shared snapshots and exports
them through the generation pipeline.

Share backends:
  memory   in-process, lost on restart (default)
  file     JSON files under --share-dir
  redis    Redis with server-side TTL expiry
  mongo    MongoDB with sweep-based expiry`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.backend, "share-backend", opts.backend, "share storage backend: memory, file, redis, mongo")
	cmd.Flags().StringVar(&opts.shareDir, "share-dir", "", "directory for the file backend (default: ~/.config/cloudcanvas/shares)")
	cmd.Flags().StringVar(&opts.redisAddr, "redis-addr", "localhost:6379", "redis address for the redis backend")
	cmd.Flags().StringVar(&opts.redisPassword, "redis-password", "", "redis password for the redis backend")
	cmd.Flags().IntVar(&opts.redisDB, "redis-db", 0, "redis database for the redis backend")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo-uri", "mongodb://localhost:27017", "mongodb connection string for the mongo backend")
	cmd.Flags().DurationVar(&opts.shareTTL, "share-ttl", opts.shareTTL, "lifetime of stored shares (0 = never expire)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the artifact cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	shares, err := newShareStore(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shares.Close(closeCtx); err != nil {
			c.Logger.Warn("close share store", "err", err)
		}
	}()

	runner := pipeline.NewRunner(newCache(opts.noCache), nil, c.Logger)
	srv := server.New(shares, runner, c.Logger, server.Config{
		Addr:     opts.addr,
		ShareTTL: opts.shareTTL,
	})

	c.Logger.Info("starting server", "addr", opts.addr, "backend", opts.backend)
	return srv.Run(ctx)
}

// newShareStore builds the share backend selected by --share-backend.
func newShareStore(ctx context.Context, opts *serveOpts) (share.Store, error) {
	switch opts.backend {
	case "memory":
		return share.NewMemoryStore(), nil
	case "file":
		return share.NewFileStore(opts.shareDir)
	case "redis":
		return share.NewRedisStore(ctx, share.RedisConfig{
			Addr:     opts.redisAddr,
			Password: opts.redisPassword,
			DB:       opts.redisDB,
		})
	case "mongo":
		return share.NewMongoStore(ctx, share.MongoConfig{URI: opts.mongoURI})
	default:
		return nil, fmt.Errorf("unknown share backend: %s (must be 'memory', 'file', 'redis', or 'mongo')", opts.backend)
	}
}
