package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"alcyxob/fitness-content/internal/config"
	"alcyxob/fitness-content/internal/observability"
	"alcyxob/fitness-content/internal/relation"
)

// newSyncCmd reconciles one owner's members from the command line, e.g.
//
//	server sync --kind category_workouts --owner 3 --members 7,9
func newSyncCmd(configPath *string) *cobra.Command {
	var (
		kind    string
		owner   int64
		members []int64
		attach  bool
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Set the members of one owner in a relationship",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			logger := observability.NewLogger(os.Stderr, cfg.Log.Level)
			ctx := cmd.Context()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			svc, ok := a.registry.Lookup(kind)
			if !ok {
				return errors.Errorf("unknown relationship kind %q", kind)
			}
			desired := relation.NewIDSet(members...)
			var current relation.IDSet
			if attach {
				current, err = svc.SyncAttachOnly(ctx, owner, desired)
			} else {
				current, err = svc.SyncExact(ctx, owner, desired)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s owner %d now has members %v\n", kind, owner, current.Sorted())
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "pivot table, e.g. category_workouts")
	cmd.Flags().Int64Var(&owner, "owner", 0, "owner id")
	cmd.Flags().Int64SliceVar(&members, "members", nil, "member ids; empty detaches every member")
	cmd.Flags().BoolVar(&attach, "attach", false, "only add members, never remove")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
