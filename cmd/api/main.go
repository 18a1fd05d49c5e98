package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"battery-dispatch/internal/api"
	"battery-dispatch/internal/data"
	"battery-dispatch/internal/logging"
	"battery-dispatch/internal/metrics"
	"battery-dispatch/internal/publish"
	"battery-dispatch/internal/runner"
	"battery-dispatch/internal/store"

	"github.com/NYTimes/gziphandler"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	logger, err := logging.New(os.Getenv("LOG_LEVEL"), os.Getenv("API_ENV") == "production")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("api server stopped", zap.Error(err))
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func run(logger *zap.Logger) error {
	port := getenv("API_PORT", "8080")
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	m := metrics.New()
	r := &runner.Runner{Metrics: m, Logger: logger}
	if s := os.Getenv("MAX_CONCURRENT_SOLVES"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			r.MaxConcurrentSolves = n
		}
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		st, err := store.Open(getenv("DATABASE_DRIVER", store.DriverSQLite), dsn)
		if err != nil {
			return err
		}
		defer st.Close()
		r.Store = st
		logger.Info("run history enabled", zap.String("driver", getenv("DATABASE_DRIVER", store.DriverSQLite)))
	}

	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		opts := publish.Options{
			Broker:   broker,
			ClientID: getenv("MQTT_CLIENT_ID", "battery-dispatch-api"),
			Username: os.Getenv("MQTT_USERNAME"),
			Password: os.Getenv("MQTT_PASSWORD"),
			Topic:    getenv("MQTT_TOPIC", "dispatch"),
			QoS:      1,
			Retain:   true,
		}
		client, err := publish.Connect(opts, logger)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		r.Publisher = publish.NewPublisher(client, opts, logger)
	}

	// WARNING: caching Grid Status responses is for local development only.
	var cache *data.Cache[*data.LMPResponse]
	if os.Getenv("ENABLE_GRIDSTATUS_CACHE") == "true" && os.Getenv("API_ENV") != "production" {
		ttl := time.Hour
		if s := os.Getenv("GRIDSTATUS_CACHE_TTL"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				ttl = d
			}
		}
		cache = data.NewCache[*data.LMPResponse](ttl)
		logger.Warn("gridstatus response cache enabled (development only)", zap.Duration("ttl", ttl))
	}

	var origins []string
	if s := os.Getenv("CORS_ORIGINS"); s != "" {
		origins = strings.Split(s, ",")
	}
	staticDir := getenv("STATIC_DIR", "./web/dist")
	if _, err := os.Stat(staticDir); err != nil {
		staticDir = ""
	}

	router := api.NewRouter(api.Options{
		Runner:        r,
		Store:         r.Store,
		Metrics:       m,
		Cache:         cache,
		Logger:        logger,
		ConfigDir:     os.Getenv("CONFIG_DIR"),
		UnitsDir:      os.Getenv("UNITS_DIR"),
		GridStatusURL: os.Getenv("GRIDSTATUS_BASE_URL"),
		CORSOrigins:   origins,
		StaticDir:     staticDir,
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           gziphandler.GzipHandler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("starting api server", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	grace := 10 * time.Second
	if s := os.Getenv("SHUTDOWN_GRACE_SECONDS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			grace = time.Duration(n) * time.Second
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	logger.Info("shutting down api server")
	return srv.Shutdown(shutdownCtx)
}
