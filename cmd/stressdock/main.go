package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-pg/pg/v10"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/polycyber/stressdock/internal/config"
	"github.com/polycyber/stressdock/internal/daemon"
	"github.com/polycyber/stressdock/internal/monitor"
	"github.com/polycyber/stressdock/internal/ports"
	"github.com/polycyber/stressdock/internal/provision"
	"github.com/polycyber/stressdock/internal/provision/repo"
	"github.com/polycyber/stressdock/internal/roster"
)

var (
	flagCount  int
	flagImage  string
	flagHost   string
	flagRoster string
	flagExpose string
	flagTLS    bool
)

var rootCmd = &cobra.Command{
	Use:   "stressdock",
	Short: "Provision batches of containers against a remote daemon for load testing",
	Long: `stressdock creates many isolated containers against a remote
container-runtime daemon, assigning each workload a stable name derived from
its owner and a collision-free set of host ports. Flags override the
environment-based configuration.`,
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	f := rootCmd.Flags()
	f.IntVar(&flagCount, "count", 0, "number of workloads to provision")
	f.StringVar(&flagImage, "image", "", "image reference to run")
	f.StringVar(&flagHost, "host", "", "daemon host:port")
	f.StringVar(&flagRoster, "roster", "", "path to the owner roster file")
	f.StringVar(&flagExpose, "expose", "", "container ports to publish, e.g. 80/tcp,53/udp")
	f.BoolVar(&flagTLS, "tls", false, "use mutual TLS to reach the daemon")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := slog.Default()
	cfg := config.Load()

	flags := cmd.Flags()
	if flags.Changed("count") {
		cfg.Batch.Count = flagCount
	}
	if flags.Changed("image") {
		cfg.Batch.Image = flagImage
	}
	if flags.Changed("host") {
		cfg.Daemon.Host = flagHost
	}
	if flags.Changed("roster") {
		cfg.Batch.RosterPath = flagRoster
	}
	if flags.Changed("expose") {
		cfg.Batch.Expose = flagExpose
	}
	if flags.Changed("tls") {
		cfg.Daemon.TLS = flagTLS
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	owners, err := roster.Load(cfg.Batch.RosterPath)
	if err != nil {
		return err
	}

	exposed, err := ports.ParseRequirements(cfg.Batch.Expose)
	if err != nil {
		return err
	}

	profile := daemon.Profile{
		Host:       cfg.Daemon.Host,
		TLS:        cfg.Daemon.TLS,
		SkipVerify: cfg.Daemon.SkipVerify,
	}
	if profile.TLS {
		if err := daemon.LoadProfileMaterial(&profile,
			cfg.Daemon.CACertPath,
			cfg.Daemon.ClientCertPath,
			cfg.Daemon.ClientKeyPath,
		); err != nil {
			return err
		}
	}

	registry, err := buildRegistry(ctx, cfg)
	if err != nil {
		return err
	}

	var recorder provision.Recorder
	if cfg.Postgres.Addr != "" {
		db := pg.Connect(&pg.Options{
			Addr:     cfg.Postgres.Addr,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
		})
		defer db.Close()
		if _, err := db.Exec("SELECT 1"); err != nil {
			return fmt.Errorf("postgres ping (%s): %w", cfg.Postgres.Addr, err)
		}
		if err := repo.Migrate(db); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
		recorder = repo.NewRepository(db)
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := monitor.StartMetricsServer(ctx, cfg.Metrics.Addr, logger); err != nil {
				logger.Error("Metrics server error", "error", err)
			}
		}()
	}

	alloc := ports.NewAllocator(registry, logger)
	prov := provision.New(alloc, registry, provision.Config{
		Image:   cfg.Batch.Image,
		Owners:  owners,
		Exposed: exposed,
		Profile: profile,
	}, recorder, logger)

	logger.Info("Starting batch",
		"count", cfg.Batch.Count,
		"image", cfg.Batch.Image,
		"owners", len(owners),
		"daemon", cfg.Daemon.Host,
		"tls", cfg.Daemon.TLS,
	)

	results := prov.Run(ctx, cfg.Batch.Count)

	startFailures := 0
	for _, res := range results {
		if res.StartErr != nil {
			startFailures++
		}
	}
	usedPorts, _ := registry.Count(ctx)

	fmt.Printf("Created %d containers.\n", len(results))
	logger.Info("Run complete",
		"requested", cfg.Batch.Count,
		"created", len(results),
		"start_failures", startFailures,
		"used_ports", usedPorts,
	)
	return nil
}

func buildRegistry(ctx context.Context, cfg *config.Config) (ports.Registry, error) {
	switch cfg.Registry.Backend {
	case "", "memory":
		return ports.NewMemoryRegistry(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Registry.RedisAddr,
			Password: cfg.Registry.RedisPassword,
			DB:       cfg.Registry.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping (%s): %w", cfg.Registry.RedisAddr, err)
		}
		return ports.NewRedisRegistry(client, cfg.Registry.RedisKey), nil
	default:
		return nil, fmt.Errorf("unknown registry backend %q", cfg.Registry.Backend)
	}
}
