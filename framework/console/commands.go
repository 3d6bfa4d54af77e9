// Package console holds the command line entry points of the application:
// serving HTTP and inspecting the container.
package console

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/km-arc/go-injector/framework/app"
	"github.com/km-arc/go-injector/framework/container"
)

// NewRootCmd returns the root command. Every subcommand builds a fresh
// Application from the --env files and registers providers on it.
func NewRootCmd(version string, providers ...container.ServiceProvider) *cobra.Command {
	var envFiles []string

	rootCmd := &cobra.Command{
		Use:           "injector",
		Short:         "Injector - Laravel-style service container for Go",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringSliceVarP(&envFiles, "env", "e", nil, "env files to load (default .env)")

	bootstrap := func() (*app.Application, error) {
		a, err := app.New(envFiles...)
		if err != nil {
			return nil, err
		}
		for _, p := range providers {
			a.Register(p)
		}
		a.Boot()
		return a, nil
	}

	rootCmd.AddCommand(newServeCmd(bootstrap))
	rootCmd.AddCommand(newBindingsCmd(bootstrap))
	rootCmd.AddCommand(newResolveCmd(bootstrap))
	return rootCmd
}

func newServeCmd(bootstrap func() (*app.Application, error)) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the application over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = a.Log().Sync() }()

			if port == "" {
				port = a.Config().App.Port
			}
			ln, err := net.Listen("tcp", ":"+port)
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Serve(ctx, ln)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "port to listen on (default APP_PORT)")
	return cmd
}

func newBindingsCmd(bootstrap func() (*app.Application, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "bindings",
		Short: "List the registered abstractions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			deferred := make(map[string]bool)
			for _, abstraction := range a.Providers.Deferred() {
				deferred[abstraction] = true
			}
			for _, abstraction := range a.Bindings() {
				if deferred[abstraction] {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (deferred)\n", abstraction)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), abstraction)
			}
			return nil
		},
	}
}

func newResolveCmd(bootstrap func() (*app.Application, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <abstraction>",
		Short: "Resolve an abstraction and print the type it builds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			v, err := a.MakeContext(contextOf(cmd), args[0], nil)
			if err != nil {
				a.Log().Debug("resolve failed", zap.String("abstraction", args[0]), zap.Error(err))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %T\n", args[0], v)
			return nil
		},
	}
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
