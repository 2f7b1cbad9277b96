package main

import (
	"github.com/spf13/cobra"

	"resourcedesk/internal/queue"
)

func newQueueCmd(a *app) *cobra.Command {
	var pageSize int

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show pending bookings, conflicts needing review first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := queue.NewWatcher(a.client, pageSize, a.log)
			if err := w.Refresh(cmd.Context()); err != nil {
				return err
			}
			return renderQueue(cmd.OutOrStdout(), w.Snapshot())
		},
	}
	cmd.Flags().IntVar(&pageSize, "page-size", 50, "pending bookings to read")
	return cmd
}
