package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/manzanit0/mobacesso/pkg/location"
	"github.com/manzanit0/mobacesso/pkg/navigation"
	"github.com/manzanit0/mobacesso/pkg/routing"
)

// Navigator is the part of navigation.Service the commands use.
type Navigator interface {
	Search(ctx context.Context, query string) ([]location.Candidate, error)
	RouteBetweenCoordinates(ctx context.Context, q navigation.CoordinatesQuery) (*routing.Route, error)
	RouteBetweenNames(ctx context.Context, origin, destination string) (*navigation.CompleteRoute, error)
}

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
)

var _ pflag.Value = (*outputFormat)(nil)

func (f *outputFormat) String() string { return string(*f) }

func (f *outputFormat) Set(s string) error {
	switch v := outputFormat(strings.ToLower(strings.TrimSpace(s))); v {
	case formatTable, formatJSON:
		*f = v
		return nil
	default:
		return fmt.Errorf("unsupported format %q, use table or json", s)
	}
}

func (f *outputFormat) Type() string { return "format" }

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, nav Navigator, stdout, stderr io.Writer) int {
	root := NewRootCommand(nav)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	fmt.Fprintf(stderr, "error: %s\n", err.Error())

	var invalid *navigation.InvalidRequestError
	var usage *usageError
	if errors.As(err, &invalid) || errors.As(err, &usage) {
		return exitUsage
	}

	return exitFailure
}

type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func NewRootCommand(nav Navigator) *cobra.Command {
	format := formatTable

	root := &cobra.Command{
		Use:           "mobacesso",
		Short:         "Search places and plan routes from the terminal.",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.PersistentFlags().Var(&format, "format", "Output format: table or json.")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.AddCommand(newSearchCommand(nav, &format))
	root.AddCommand(newRouteCommand(nav, &format))
	root.AddCommand(newCompleteRouteCommand(nav, &format))

	return root
}

func newSearchCommand(nav Navigator, format *outputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "List the places matching a free-text query.",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates, err := nav.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), *format, candidates)
		},
	}
}

func newRouteCommand(nav Navigator, format *outputFormat) *cobra.Command {
	var startLat, startLng, endLat, endLng float64

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Plan a route between two coordinates.",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			q := navigation.CoordinatesQuery{
				StartLatitude:  changed(flags, "start-lat", startLat),
				StartLongitude: changed(flags, "start-lng", startLng),
				EndLatitude:    changed(flags, "end-lat", endLat),
				EndLongitude:   changed(flags, "end-lng", endLng),
			}

			route, err := nav.RouteBetweenCoordinates(cmd.Context(), q)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), *format, route)
		},
	}
	cmd.Flags().Float64Var(&startLat, "start-lat", 0, "Origin latitude.")
	cmd.Flags().Float64Var(&startLng, "start-lng", 0, "Origin longitude.")
	cmd.Flags().Float64Var(&endLat, "end-lat", 0, "Destination latitude.")
	cmd.Flags().Float64Var(&endLng, "end-lng", 0, "Destination longitude.")

	return cmd
}

func newCompleteRouteCommand(nav Navigator, format *outputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "complete-route <origin> <destination>",
		Short: "Plan a route between two place names.",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			route, err := nav.RouteBetweenNames(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), *format, route)
		},
	}
}

// changed returns nil for flags the user did not pass, so a missing
// coordinate is not mistaken for zero.
func changed(flags *pflag.FlagSet, name string, v float64) *float64 {
	if !flags.Changed(name) {
		return nil
	}

	return &v
}

func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}
