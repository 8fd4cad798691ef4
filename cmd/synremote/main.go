package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/genricoloni/synremote/internal/auth"
	"github.com/genricoloni/synremote/internal/domain"
	"github.com/genricoloni/synremote/internal/engine"
	"github.com/genricoloni/synremote/internal/selector"
	"github.com/genricoloni/synremote/internal/tui"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:          "synremote",
		Short:        "Remote control for media server sessions",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (default <config dir>/synremote/synremote.toml)")
	root.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&opts.LogFile, "log-file", "", "write logs to this file")

	root.AddCommand(
		newControlCmd(&opts),
		newServeCmd(&opts),
		newSessionsCmd(&opts),
		newTokenCmd(&opts),
	)
	return root
}

func newControlCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "control",
		Short: "Open the terminal remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o := *opts
			if o.LogFile == "" {
				o.LogFile = defaultLogFile()
			}

			var (
				logger *zap.Logger
				eng    *engine.Engine
			)
			extra := fx.Options(
				fx.Invoke(registerEngine),
				fx.Populate(&logger, &eng),
			)
			return runApp(cmd.Context(), o, extra, func(ctx context.Context) error {
				return tui.Run(ctx, logger, eng)
			})
		},
	}
}

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP control API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			extra := fx.Invoke(registerEngine, registerServer)
			return runApp(cmd.Context(), *opts, extra, func(ctx context.Context) error {
				// Wait for interrupt signal
				<-ctx.Done()
				return nil
			})
		},
	}
}

func newSessionsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List the sessions this user can control",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var sel *selector.Selector
			return runApp(cmd.Context(), *opts, fx.Populate(&sel), func(ctx context.Context) error {
				result, err := sel.Refresh(ctx)
				if err != nil {
					return err
				}
				target, hasTarget := sel.Target()

				t := table.New().
					Border(lipgloss.NormalBorder()).
					Headers("", "SESSION", "DEVICE", "CLIENT", "USER", "PLAYING").
					Rows(lo.Map(result.Sessions, func(s domain.TargetSession, _ int) []string {
						mark := lo.Ternary(hasTarget && s.Same(target), "*", "")
						return []string{mark, s.SessionID, s.DeviceName, s.Client, s.UserName, s.NowPlayingName}
					})...)
				fmt.Fprintln(cmd.OutOrStdout(), t.String())
				return nil
			})
		},
	}
}

func newTokenCmd(opts *options) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the access token kept in the system keyring",
	}

	tokenCmd.AddCommand(
		&cobra.Command{
			Use:   "set <token>",
			Short: "Store the access token for the configured server and user",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var tokens *auth.TokenStore
				return runApp(cmd.Context(), *opts, fx.Populate(&tokens), func(context.Context) error {
					return tokens.SetToken(args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the stored access token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				var tokens *auth.TokenStore
				return runApp(cmd.Context(), *opts, fx.Populate(&tokens), func(context.Context) error {
					return tokens.DeleteToken()
				})
			},
		},
	)
	return tokenCmd
}
