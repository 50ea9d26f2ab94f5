package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/vitalwatch/internal/api"
	"github.com/good-yellow-bee/vitalwatch/internal/api/health"
	"github.com/good-yellow-bee/vitalwatch/internal/insights"
	"github.com/good-yellow-bee/vitalwatch/internal/metrics"
	"github.com/good-yellow-bee/vitalwatch/internal/monitoring"
	"github.com/good-yellow-bee/vitalwatch/internal/storage"
	"github.com/good-yellow-bee/vitalwatch/pkg/config"
)

var (
	configFile string
	httpAddr   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "vitalwatch-server",
	Short: "VitalWatch Server - Patient vital sign monitoring",
	Long: `VitalWatch Server ingests patient vital readings, classifies them
against personalized thresholds, and manages the resulting alerts.`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vitalwatch-server %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	var cfg *Config

	// Load configuration from file if provided
	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
	}

	// Override with CLI flags
	if httpAddr != "" {
		cfg.Server.HTTPAddress = httpAddr
	}
	cfg.Verbose = verbose

	// Auto-create data directory
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// Initialize storage
	store := storage.NewSQLiteStorage(cfg.Database.Path)
	if err := store.Open(); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	log.Printf("database initialized at %s", cfg.Database.Path)

	var opts []monitoring.ServiceOption

	// Optional ClickHouse archive
	var buffered *storage.ArchiveBuffer
	if cfg.ClickHouse.Enabled {
		archive := storage.NewClickHouseArchive(&storage.ClickHouseConfig{
			Addresses:     cfg.ClickHouse.Addresses,
			Database:      cfg.ClickHouse.Database,
			Username:      cfg.ClickHouse.Username,
			Password:      cfg.ClickHouse.Password,
			Compression:   cfg.ClickHouse.Compression,
			RetentionDays: cfg.ClickHouse.RetentionDays,
		})
		if err := archive.Open(); err != nil {
			return fmt.Errorf("open clickhouse: %w", err)
		}

		if err := archive.Migrate(); err != nil {
			archive.Close()
			return fmt.Errorf("migrate clickhouse: %w", err)
		}
		log.Printf("clickhouse archive enabled at %v", cfg.ClickHouse.Addresses)

		// Mirror writes go through a batching buffer; Close flushes it
		// and closes the archive underneath.
		buffered = storage.NewArchiveBuffer(archive, &storage.ArchiveBufferConfig{})
		defer buffered.Close()
		opts = append(opts, monitoring.WithArchive(buffered))
	}

	// Optional combination rules
	var ruleSet *monitoring.RuleSet
	if cfg.Rules.Path != "" {
		rules, err := monitoring.LoadCombinationRulesFromFile(cfg.Rules.Path)
		if err != nil {
			return fmt.Errorf("load combination rules: %w", err)
		}
		ruleSet = monitoring.NewRuleSet(rules)
		log.Printf("loaded %d combination rules from %s", len(rules), cfg.Rules.Path)
		opts = append(opts, monitoring.WithRules(ruleSet))
	}

	// Optional insights client
	if cfg.Insights.Enabled {
		client, err := insights.NewClient(insights.Config{
			BaseURL: cfg.Insights.BaseURL,
			APIKey:  cfg.Insights.APIKey,
			Timeout: cfg.InsightsTimeout(),
		})
		if err != nil {
			return fmt.Errorf("create insights client: %w", err)
		}
		log.Printf("insights service enabled at %s", cfg.Insights.BaseURL)
		opts = append(opts, monitoring.WithInsights(client))
	}

	service := monitoring.NewService(store, opts...)

	// HTTP API server
	srv, err := api.New(&api.Config{
		Address:         cfg.Server.HTTPAddress,
		HTTPTLSEnabled:  cfg.Server.TLS.Enabled,
		HTTPTLSCertFile: cfg.Server.TLS.CertFile,
		HTTPTLSKeyFile:  cfg.Server.TLS.KeyFile,
		RateLimitPerIP:  cfg.Server.RateLimitPerIP,
		QueryTimeout:    cfg.QueryTimeout(),
		Verbose:         cfg.Verbose,
	}, service)
	if err != nil {
		return fmt.Errorf("create API server: %w", err)
	}

	srv.RegisterHealthChecker(health.NewSQLiteChecker(store.DB()))
	if buffered != nil {
		srv.RegisterHealthChecker(health.NewArchiveChecker(buffered))
	}

	metricsSrv := metrics.NewServer(cfg.Server.MetricsAddress)
	metrics.SetBuildInfo(config.Version, config.Commit, config.BuildTime)

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	log.Printf("starting vitalwatch-server %s", config.Version)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(gctx)
	})

	g.Go(func() error {
		return metricsSrv.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if ruleSet != nil && cfg.Rules.Watch {
		g.Go(func() error {
			return monitoring.WatchRules(gctx, cfg.Rules.Path, ruleSet)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run server: %w", err)
	}

	log.Printf("server stopped")
	return nil
}
