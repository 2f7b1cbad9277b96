package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"resourcedesk/internal/lifecycle"
	"resourcedesk/internal/record"
	"resourcedesk/internal/view"
	"resourcedesk/pkg/backend"
)

type listOptions struct {
	Search  string
	Status  string
	Date    string
	Page    int
	PerPage int
	Review  bool
}

func (o listOptions) query() (backend.ListQuery, error) {
	q := backend.ListQuery{Search: o.Search, Date: o.Date, Page: o.Page, PerPage: o.PerPage}
	for _, part := range strings.Split(o.Status, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		s, err := lifecycle.ParseStatus(part)
		if err != nil {
			return q, err
		}
		q.Statuses = append(q.Statuses, s)
	}
	return q, nil
}

func bindListFlags(cmd *cobra.Command, o *listOptions) {
	cmd.Flags().StringVar(&o.Search, "search", "", "free-text search")
	cmd.Flags().StringVar(&o.Status, "status", "", "comma-separated statuses, e.g. Submit,Approved")
	cmd.Flags().StringVar(&o.Date, "date", "", "YYYY-MM-DD")
	cmd.Flags().IntVar(&o.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&o.PerPage, "per-page", 20, "page size")
}

func newListCmd(a *app) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List one page of records with the actions each offers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindArg(args[0])
			if err != nil {
				return err
			}
			q, err := opts.query()
			if err != nil {
				return err
			}

			l := view.NewList(kind, a.client)
			if _, err := l.Refresh(cmd.Context(), q); err != nil {
				return err
			}
			views := l.Views(a.role)
			if opts.Review {
				record.SortForReview(views)
			}
			if err := renderViews(cmd.OutOrStdout(), views); err != nil {
				return err
			}
			renderPagination(cmd.OutOrStdout(), l.Snapshot().Pagination)
			return nil
		},
	}
	bindListFlags(cmd, &opts)
	cmd.Flags().BoolVar(&opts.Review, "review", false, "conflicts needing review first")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <kind> <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindArg(args[0])
			if err != nil {
				return err
			}
			rec, err := a.client.Get(cmd.Context(), kind, args[1])
			if err != nil {
				return err
			}
			return renderView(cmd.OutOrStdout(), record.Annotate(kind, rec, a.role))
		},
	}
}

type actOptions struct {
	listOptions
	Reason string
}

func newActCmd(a *app) *cobra.Command {
	var opts actOptions

	cmd := &cobra.Command{
		Use:   "act <kind> <id> <approve|reject|cancel|start|complete>",
		Short: "Apply a lifecycle action, then refetch the page it sits on",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindArg(args[0])
			if err != nil {
				return err
			}
			id := args[1]
			action := lifecycle.ActionKind(strings.ToLower(args[2]))
			target, ok := lifecycle.TargetStatus(action)
			if !ok {
				return fmt.Errorf("%s is not a status transition", args[2])
			}

			ctx := cmd.Context()
			current, err := a.client.Get(ctx, kind, id)
			if err != nil {
				return err
			}
			if !record.Annotate(kind, current, a.role).Offers(action) {
				return fmt.Errorf("%s is not available for %s %s in status %s", action, kind, id, current.Status)
			}

			q, err := opts.query()
			if err != nil {
				return err
			}
			l := view.NewList(kind, a.client)
			if _, err := l.Refresh(ctx, q); err != nil {
				return err
			}

			req := backend.TransitionRequest{Status: target}
			if action == lifecycle.ActionReject {
				req.RejectionReason = opts.Reason
			}
			updated, err := l.Transition(ctx, id, req)
			if err != nil {
				return err
			}
			// the record may sit on another page than the one refetched
			if fresh, err := a.client.Get(ctx, kind, id); err == nil {
				updated = fresh
			}
			return renderViews(cmd.OutOrStdout(), []record.View{record.Annotate(kind, updated, a.role)})
		},
	}
	bindListFlags(cmd, &opts.listOptions)
	cmd.Flags().StringVar(&opts.Reason, "reason", "", "rejection reason (optional)")
	return cmd
}

func newReceiptCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "receipt <kind> <id>",
		Short: "Download the printable receipt (or SPJ) for a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindArg(args[0])
			if err != nil {
				return err
			}
			rec, err := a.client.Get(cmd.Context(), kind, args[1])
			if err != nil {
				return err
			}
			if !record.Annotate(kind, rec, a.role).Offers(lifecycle.ActionPrint) {
				return fmt.Errorf("%s %s has nothing to print", kind, args[1])
			}

			doc, err := a.client.Receipt(cmd.Context(), kind, args[1])
			if err != nil {
				return err
			}
			path := out
			if path == "" {
				path = filepath.Base(doc.Filename)
			}
			if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s, %d bytes)\n", path, doc.ContentType, len(doc.Body))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: name from the backend)")
	return cmd
}
