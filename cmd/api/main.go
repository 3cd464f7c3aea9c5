package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/joho/godotenv"

	"github.com/manzanit0/mobacesso/pkg/accessibility"
	"github.com/manzanit0/mobacesso/pkg/config"
	"github.com/manzanit0/mobacesso/pkg/geocode"
	"github.com/manzanit0/mobacesso/pkg/logger"
	"github.com/manzanit0/mobacesso/pkg/middleware"
	"github.com/manzanit0/mobacesso/pkg/navigation"
	"github.com/manzanit0/mobacesso/pkg/routing"
	"github.com/manzanit0/mobacesso/pkg/whttp"
)

const ServiceName = "api"

func main() {
	// A missing .env is fine, the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("unable to load configuration: %w", err))
	}

	logger.InitGlobalSlog(ServiceName, cfg.Debug)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	h := whttp.NewLoggingClient()
	if cfg.Debug {
		h = whttp.NewDebugClient()
	}

	fetcher := whttp.NewFetcher(h, cfg.FetcherOptions()...)
	nominatim := geocode.NewNominatimClient(cfg.Geocode(), fetcher)
	osrm := routing.NewOSRMClient(cfg.Routing(), fetcher)
	svc := navigation.NewService(cfg.Navigation(), nominatim, osrm, nominatim)

	var points accessibility.Repository
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			panic(fmt.Errorf("unable to open db conn: %w", err))
		}

		defer func() {
			err = db.Close()
			if err != nil {
				slog.Error("error closing db connection", "error", err.Error())
			}
		}()

		if err := db.Ping(); err != nil {
			panic(fmt.Errorf("unable to ping database: %w", err))
		} else {
			slog.Info("connected to the database successfully")
		}

		repo := accessibility.NewPgRepository(db)
		if err := repo.Migrate(context.Background()); err != nil {
			panic(err)
		}

		points = repo
	} else {
		slog.Warn("DATABASE_URL not set, accessibility endpoints are disabled")
	}

	r := newRouter(cfg, svc, points)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: r}
	go func() {
		slog.Info(fmt.Sprintf("serving HTTP on :%d", cfg.Port))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server shutdown abruptly", "error", err.Error())
		} else {
			slog.Info("server shutdown gracefully")
		}

		stop()
	}()

	// Listen for OS interrupt
	<-ctx.Done()
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err.Error())
	}

	slog.Info("server exited")
}

func newRouter(cfg config.Config, svc *navigation.Service, points accessibility.Repository) *gin.Engine {
	r := gin.New()
	r.Use(middleware.TraceID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger(cfg.Debug))
	r.Use(middleware.CORS())
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "mobacesso API is running"})
	})

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	routes := r.Group("/api/routes")
	routes.GET("/search", searchController(svc))
	routes.GET("/route", routeController(svc))
	routes.POST("/complete-route", completeRouteController(svc))
	routes.GET("/reverse", reverseController(svc))

	if points != nil {
		a := r.Group("/api/accessibility")
		a.POST("/points", createPointController(points))
		a.GET("/points", queryPointsController(points))
	}

	return r
}
