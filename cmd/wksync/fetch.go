package main

import (
	"github.com/spf13/cobra"
)

func newFetchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download the catalog and replace the snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireToken(); err != nil {
				return err
			}
			subjects, err := a.snapshotStore(logPageProgress).Refresh(cmd.Context())
			if err != nil {
				return err
			}
			printf(cmd, "Saved %d subjects to %s\n", len(subjects), a.cfg.Snapshot.Path)
			return nil
		},
	}
}

