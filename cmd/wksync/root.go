package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/japaniel/wksync/pkg/config"
	"github.com/japaniel/wksync/pkg/db"
	"github.com/japaniel/wksync/pkg/logging"
	"github.com/japaniel/wksync/pkg/metrics"
	"github.com/japaniel/wksync/pkg/snapshot"
	"github.com/japaniel/wksync/pkg/subject"
	"github.com/japaniel/wksync/pkg/wanikani"
)

// app holds the global flags and the configuration they resolve to.
type app struct {
	configPath   string
	dbPath       string
	snapshotPath string
	logLevel     string
	logFormat    string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "wksync",
		Short: "Mirror the WaniKani subject catalog into SQLite",
		Long: `wksync fetches every radical, kanji and vocabulary subject from the
WaniKani API, caches the catalog in a JSON snapshot and reconciles it into a
local SQLite database that can then be queried by reading, characters or
free text.

The API token is read from WANIKANI_TOKEN.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}

	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "config file (default: $CONFIG_PATH or ./wksync.yaml)")
	f.StringVar(&a.dbPath, "db", "", "path to the SQLite database")
	f.StringVar(&a.snapshotPath, "snapshot", "", "path to the catalog snapshot")
	f.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&a.logFormat, "log-format", "", "log format: console or json")

	root.AddCommand(
		newSyncCmd(a),
		newFetchCmd(a),
		newLookupCmd(a),
		newKanjiMapCmd(a),
		newAnnotateCmd(a),
	)
	return root
}

// load resolves configuration, applies flag overrides and sets up logging.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.Database.Path = a.dbPath
	}
	if a.snapshotPath != "" {
		cfg.Snapshot.Path = a.snapshotPath
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	a.cfg = cfg
	return nil
}

func (a *app) openStore() (*db.Store, func(), error) {
	conn, err := db.Open(a.cfg.Database.Path, a.cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, nil, err
	}
	return db.NewStore(conn), func() { conn.Close() }, nil
}

// snapshotStore returns the snapshot backed by the API client. Without a
// token the cached file can still be read; only fetching fails.
func (a *app) snapshotStore(onPage func(level, fetched int)) *snapshot.Store {
	var src snapshot.Source = missingToken{}
	if a.cfg.RequireToken() == nil {
		client := wanikani.NewClient(a.cfg.ClientConfig())
		client.OnPage = onPage
		src = client
	}
	return snapshot.New(a.cfg.Snapshot.Path, src)
}

type missingToken struct{}

func (missingToken) FetchAll(context.Context) (map[int]subject.Record, error) {
	return nil, config.ErrMissingToken
}

// serveMetrics exposes /metrics on addr until the returned stop is called.
func serveMetrics(addr string) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	logging.Info().Str("addr", addr).Msg("serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func logPageProgress(level, fetched int) {
	logging.Debug().Int("level", level).Int("fetched", fetched).Msg("fetched page")
}

func printf(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
