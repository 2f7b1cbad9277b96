package main

import (
	"time"

	"github.com/spf13/cobra"

	"resourcedesk/internal/requests"
	"resourcedesk/internal/schedule"
)

func newScheduleCmd(a *app) *cobra.Command {
	var (
		date   string
		status string
		group  string
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print one day's bookings per resource",
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc := a.cfg.Location()
			day := time.Now().In(loc)
			if date != "" {
				d, err := time.ParseInLocation(schedule.DateFormat, date, loc)
				if err != nil {
					return err
				}
				day = d
			}
			statuses, err := listOptions{Status: status}.query()
			if err != nil {
				return err
			}

			grid, err := requests.BuildGrid(cmd.Context(), a.client, day, statuses.Statuses, group, loc)
			if err != nil {
				return err
			}
			return renderGrid(cmd.OutOrStdout(), grid, loc)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "YYYY-MM-DD (default today in SCHEDULE_TIMEZONE)")
	cmd.Flags().StringVar(&status, "status", "", "comma-separated statuses")
	cmd.Flags().StringVar(&group, "group", "", "resource group")
	return cmd
}
