package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"resourcedesk/internal/lifecycle"
	"resourcedesk/pkg/backend"
	"resourcedesk/pkg/config"
	"resourcedesk/pkg/logging"
)

type globalOptions struct {
	BackendURL string
	Token      string
	Timeout    time.Duration
	Role       string
	Actor      string
	LogLevel   string
}

// app is what subcommands share once flags and config are resolved.
type app struct {
	cfg    config.Config
	client *backend.Client
	role   lifecycle.Role
	log    *logrus.Logger
}

func newRootCmd() *cobra.Command {
	var opts globalOptions
	a := &app{}

	cmd := &cobra.Command{
		Use:           "console",
		Short:         "Operator console for resource requests",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.BackendURL != "" {
				cfg.Backend.URL = opts.BackendURL
			}
			if opts.Token != "" {
				cfg.Backend.Token = opts.Token
			}
			if opts.Timeout > 0 {
				cfg.Backend.Timeout = opts.Timeout
			}
			if opts.LogLevel != "" {
				cfg.LogLevel = opts.LogLevel
			}
			role, err := lifecycle.ParseRole(opts.Role)
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.role = role
			a.log = logging.New(cfg.LogLevel, cfg.AppEnv)
			a.log.SetOutput(os.Stderr)
			a.client = backend.New(cfg.Backend.URL, cfg.Backend.Token, cfg.Backend.Timeout)
			cmd.SetContext(logging.WithLogger(cmd.Context(), logrus.NewEntry(a.log).WithField("actor", opts.Actor)))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.BackendURL, "backend-url", "", "records backend base URL (default BACKEND_URL)")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", "", "backend bearer token (default BACKEND_TOKEN)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 0, "backend request timeout (default BACKEND_TIMEOUT)")
	cmd.PersistentFlags().StringVar(&opts.Role, "role", "admin", "role the records are annotated for: admin or requester")
	cmd.PersistentFlags().StringVar(&opts.Actor, "actor", os.Getenv("USER"), "who is acting, for logs")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level")

	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newShowCmd(a))
	cmd.AddCommand(newActCmd(a))
	cmd.AddCommand(newScheduleCmd(a))
	cmd.AddCommand(newReceiptCmd(a))
	cmd.AddCommand(newQueueCmd(a))
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func parseKindArg(s string) (lifecycle.Kind, error) {
	k, err := lifecycle.ParseKind(s)
	if err != nil {
		return "", fmt.Errorf("unknown kind %q (booking, order, accommodation, transport, vehicle)", s)
	}
	return k, nil
}
