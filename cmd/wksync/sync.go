package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/japaniel/wksync/pkg/logging"
	"github.com/japaniel/wksync/pkg/syncer"
)

func newSyncCmd(a *app) *cobra.Command {
	var (
		refresh     bool
		maxInFlight int
		only        []int
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the catalog snapshot into the database",
		Long: `Load the catalog snapshot (fetching it first if there is none, or if
--refresh is given) and rewrite every subject's rows in the database.

Failed subjects are listed at the end; the command still exits 0 so that a
partial sync can be completed later with --only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("max-in-flight") {
				cfg.Sync.MaxInFlight = maxInFlight
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Metrics.Addr = metricsAddr
			}
			if cfg.Sync.MaxInFlight <= 0 {
				return fmt.Errorf("--max-in-flight must be positive")
			}

			if cfg.Metrics.Addr != "" {
				stop := serveMetrics(cfg.Metrics.Addr)
				defer stop()
			}

			store, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			log := logging.Component("sync")
			lastLogged := time.Now()
			driver := &syncer.Driver{
				Snapshot: a.snapshotStore(logPageProgress),
				Scheduler: &syncer.Scheduler{
					Reconciler:  syncer.NewReconciler(store),
					MaxInFlight: cfg.Sync.MaxInFlight,
					OnProgress: func(completed, total int) {
						if completed == total || time.Since(lastLogged) >= 2*time.Second {
							lastLogged = time.Now()
							log.Info().Int("completed", completed).Int("total", total).Msg("progress")
						}
					},
				},
				Logger: &log,
			}

			report, err := driver.Run(cmd.Context(), syncer.Options{Refresh: refresh, Only: only})
			if err == nil || report.Total > 0 {
				printReport(cmd, report)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch a new snapshot before syncing")
	cmd.Flags().IntVar(&maxInFlight, "max-in-flight", syncer.DefaultMaxInFlight, "maximum concurrent subject reconciliations")
	cmd.Flags().IntSliceVar(&only, "only", nil, "sync only these subject ids (comma separated)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	return cmd
}

func printReport(cmd *cobra.Command, r syncer.RunReport) {
	printf(cmd, "Synced %d/%d subjects in %v (%d failed, %d skipped)\n",
		r.Succeeded, r.Total, r.Duration.Round(time.Millisecond), len(r.Failed), r.Skipped)
	if len(r.Failed) == 0 {
		return
	}

	byStage := r.FailuresByStage()
	stages := make([]string, 0, len(byStage))
	for stage, n := range byStage {
		stages = append(stages, fmt.Sprintf("%s=%d", stage, n))
	}
	sort.Strings(stages)
	printf(cmd, "Failures by stage: %s\n", strings.Join(stages, " "))

	ids := make([]string, 0, len(r.Failed))
	for _, id := range r.FailedIDs() {
		ids = append(ids, fmt.Sprint(id))
	}
	printf(cmd, "Retry with: wksync sync --only %s\n", strings.Join(ids, ","))
}
