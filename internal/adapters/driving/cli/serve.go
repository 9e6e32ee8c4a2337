package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/trailstone/osgraph/internal/adapters/driven/config/file"
	"github.com/trailstone/osgraph/internal/adapters/driven/storage/sqlite"
	"github.com/trailstone/osgraph/internal/adapters/driving/rest"
	"github.com/trailstone/osgraph/internal/connectors/bitcoinabuse"
	"github.com/trailstone/osgraph/internal/connectors/chainalysis"
	"github.com/trailstone/osgraph/internal/connectors/cribis"
	"github.com/trailstone/osgraph/internal/connectors/gravatar"
	"github.com/trailstone/osgraph/internal/connectors/grid"
	"github.com/trailstone/osgraph/internal/connectors/littlesis"
	"github.com/trailstone/osgraph/internal/connectors/newscatcher"
	"github.com/trailstone/osgraph/internal/connectors/pipl"
	"github.com/trailstone/osgraph/internal/connectors/sayari"
	"github.com/trailstone/osgraph/internal/connectors/shodan"
	"github.com/trailstone/osgraph/internal/core/ports/driven"
	"github.com/trailstone/osgraph/internal/core/services"
	"github.com/trailstone/osgraph/internal/logger"
)

var (
	serveAddr   string
	configPath  string
	dataDirPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search connector API",
	Long: `Starts the HTTP server exposing the searcher catalogue and the
per-searcher results endpoints. Searchers are enabled and configured
through the searchers file; credentials come from settings or from the
environment.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&configPath, "config", "", "searchers config file (default ~/.osgraph/searchers.toml)")
	serveCmd.Flags().StringVar(&dataDirPath, "data-dir", "", "data directory (default ~/.osgraph/data)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger.Section("osgraph serve")

	configs, err := file.NewSearcherConfigStore(configPath)
	if err != nil {
		return fmt.Errorf("failed to load searcher config: %w", err)
	}
	if err := configs.Watch(); err != nil {
		logger.Warn("config reload disabled: %v", err)
	}
	defer configs.Close()

	store, err := sqlite.NewStore(dataDirPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()
	logger.Info("using store at %s", store.Path())

	registry := buildRegistry(configs, store.CredentialStore())
	logger.Info("registered connectors: %v", registry.IDs())

	service := services.NewSearchService(registry, configs)
	server := &http.Server{
		Addr:              serveAddr,
		Handler:           rest.NewServer(service, rest.NewMetrics()).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening on %s", serveAddr)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-stop:
		logger.Info("received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
	}
	return nil
}

// buildRegistry constructs every connector whose credentials are
// available, from its settings entry or the environment. Searchers left
// out here still appear in the catalogue when enabled; dispatch reports
// them as not enabled.
func buildRegistry(configs driven.SearcherConfigStore, credentials driven.CredentialStore) *services.Registry {
	var searchers []driven.Searcher

	if key := setting(configs, "chainalysis", "api_key", "CHAINALYSIS_API_KEY"); key != "" {
		searchers = append(searchers, chainalysis.New(key))
	}
	if token := setting(configs, "bitcoinabuse", "api_token", "BITCOINABUSE_API_TOKEN"); token != "" {
		searchers = append(searchers, bitcoinabuse.New(token))
	}
	if key := setting(configs, "shodan", "api_key", "SHODAN_API_KEY"); key != "" {
		searchers = append(searchers, shodan.New(key))
	}
	if key := setting(configs, "newscatcher", "api_key", "NEWSCATCHER_API_KEY"); key != "" {
		searchers = append(searchers, newscatcher.New(key))
	}
	if key := setting(configs, "pipl", "api_key", "PIPL_API_KEY"); key != "" {
		searchers = append(searchers, pipl.New(key))
	}

	searchers = append(searchers, gravatar.New(), littlesis.New())

	gridCfg := grid.Config{
		Username: setting(configs, "grid_people", "username", "GRID_USERNAME"),
		Password: setting(configs, "grid_people", "password", "GRID_PASSWORD"),
	}
	if gridCfg.Username != "" && gridCfg.Password != "" {
		searchers = append(searchers,
			grid.NewCompany(gridCfg, credentials),
			grid.NewPeople(gridCfg, credentials))
	}

	sayariID := setting(configs, "sayari_company", "client_id", "SAYARI_CLIENT_ID")
	sayariSecret := setting(configs, "sayari_company", "client_secret", "SAYARI_CLIENT_SECRET")
	if sayariID != "" && sayariSecret != "" {
		searchers = append(searchers,
			sayari.NewCompany(sayariID, sayariSecret),
			sayari.NewPeople(sayariID, sayariSecret))
	}

	cribisCfg := cribis.Config{
		Username: setting(configs, "cribis_company", "username", "CRIBIS_USERNAME"),
		Password: setting(configs, "cribis_company", "password", "CRIBIS_PASSWORD"),
	}
	if cribisCfg.Username != "" && cribisCfg.Password != "" {
		searchers = append(searchers,
			cribis.NewCompany(cribisCfg),
			cribis.NewPeople(cribisCfg))
	}

	return services.NewRegistry(searchers...)
}

// setting reads a connector credential from the searcher's settings table,
// falling back to the environment.
func setting(configs driven.SearcherConfigStore, id, key, envName string) string {
	if cfg, ok := configs.Lookup(id); ok {
		if value := cfg.Settings[key]; value != "" {
			return value
		}
	}
	return os.Getenv(envName)
}
