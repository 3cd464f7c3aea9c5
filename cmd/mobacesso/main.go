package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/manzanit0/mobacesso/pkg/config"
	"github.com/manzanit0/mobacesso/pkg/geocode"
	"github.com/manzanit0/mobacesso/pkg/logger"
	"github.com/manzanit0/mobacesso/pkg/navigation"
	"github.com/manzanit0/mobacesso/pkg/routing"
	"github.com/manzanit0/mobacesso/pkg/whttp"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	// stdout belongs to the command output.
	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(logger.NewContextJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	fetcher := whttp.NewFetcher(whttp.NewLoggingClient(), cfg.FetcherOptions()...)
	nominatim := geocode.NewNominatimClient(cfg.Geocode(), fetcher)
	osrm := routing.NewOSRMClient(cfg.Routing(), fetcher)
	svc := navigation.NewService(cfg.Navigation(), nominatim, osrm, nominatim)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := Execute(ctx, os.Args[1:], svc, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
