package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"smart_hatchery/internal/handlers"
	"smart_hatchery/internal/logger"
	"smart_hatchery/internal/metric"
	"smart_hatchery/internal/remote"
	"smart_hatchery/internal/repository"
	"smart_hatchery/internal/repository/db"
	"smart_hatchery/internal/server"
	"smart_hatchery/internal/service"
	"smart_hatchery/internal/session"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix       = "HATCHERY"
	shutdownTimeout = 10 * time.Second
)

func main() {
	// .env is optional; values there feed the HATCHERY_* overrides below
	envErr := godotenv.Load()

	// load config.yml
	cfgErr := loadConfig()

	// init logger
	log := logger.Get(viper.GetString("log.level"), viper.GetString("log.format"))
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.Warnw("failed to load .env", "err", envErr)
	}
	if cfgErr != nil {
		log.Fatalw("error reading config", "err", cfgErr)
	}

	// open DB
	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	metrics := metric.New()
	events := service.NewEventLogService(repos.EventRepo, log.Named("eventlog"))
	archive := service.NewArchiveService(repos.HistoryRepo)

	sess := session.New()
	device := remote.NewClient(remote.Config{
		BaseURL: viper.GetString("device.base_url"),
		Timeout: viper.GetDuration("device.timeout"),
	}, sess)

	presets := service.DefaultPresetCatalog()
	gate := service.NewCommandGate()
	dashCfg := service.DashboardConfig{
		PollInterval: viper.GetDuration("poll.interval"),
		TickInterval: viper.GetDuration("countdown.tick"),
	}
	dashLog := log.Named("dashboard")

	console := service.NewConsoleService(ctx, service.ConsoleDeps{
		Auth:    device,
		Session: sess,
		Factory: func(onAuthFailure func(error)) *service.Dashboard {
			return service.NewDashboard(dashCfg, service.DashboardDeps{
				Device:        device,
				Presets:       presets,
				Gate:          gate,
				Events:        events,
				Archive:       archive,
				OnAuthFailure: onAuthFailure,
				Log:           dashLog,
				Metric:        metrics,
			})
		},
		Presets: presets,
		Gate:    gate,
		Events:  events,
		Log:     log.Named("console"),
	})
	services := service.NewService(console, events, archive)
	apiHandler := handlers.NewHandler(services, log.Named("http"), metrics)

	// start HTTP server
	srv := &server.Server{}
	handler := server.WithCORS(apiHandler.InitRoutes(), viper.GetStringSlice("cors.allowed_origins"))
	runHTTPServer(srv, viper.GetString("port"), handler, log)

	log.Infow("console started",
		"port", viper.GetString("port"),
		"device", viper.GetString("device.base_url"),
		"poll_interval", dashCfg.PollInterval)

	// graceful shutdown
	waitForShutdown(cancel, srv, console, log)
}

func loadConfig() error {
	viper.SetDefault("port", "8080")
	viper.SetDefault("log.level", logger.InfoLevel)
	viper.SetDefault("log.format", logger.ConsoleFormat)
	viper.SetDefault("db.path", "hatchery.db")
	viper.SetDefault("device.base_url", "http://localhost:8000")
	viper.SetDefault("device.timeout", "5s")
	viper.SetDefault("poll.interval", service.DefaultPollInterval.String())
	viper.SetDefault("countdown.tick", service.DefaultTickInterval.String())
	viper.SetDefault("cors.allowed_origins", []string{})

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "hatchery.db")
		dbPath = "hatchery.db"
	}
	return db.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler http.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, console *service.ConsoleService, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}

	// end the operator session and wait for the dashboard loops
	console.Close()
	cancel()
}
