package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vrischmann/envconfig"

	"github.com/vpcrouter/topology-watcher/internal/config"
	"github.com/vpcrouter/topology-watcher/internal/metrics"
	_ "github.com/vpcrouter/topology-watcher/internal/romana"
	"github.com/vpcrouter/topology-watcher/internal/sink"
	"github.com/vpcrouter/topology-watcher/pkg/watcher"
)

func loggerLevelFromString(level string) zerolog.Level {
	level = strings.ToLower(level)
	switch level {
	case "error":
		return zerolog.ErrorLevel
	case "warn":
		return zerolog.WarnLevel
	case "info":
		return zerolog.InfoLevel
	case "debug":
		return zerolog.DebugLevel
	}
	return zerolog.WarnLevel
}

type Config struct {
	NodeID      string `envconfig:"NODE_ID,default=vpcrouter-0"`
	LoggerLevel string `envconfig:"LOGGER_LEVEL,default=info"`
	Plugin      string `envconfig:"WATCHER_PLUGIN,default=romana"`
	StatsdAddr  string `envconfig:"STATSD_ADDR,optional"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	_ = godotenv.Load()

	appCfg := Config{}
	if err := envconfig.Init(&appCfg); err != nil {
		log.Fatal().Err(err).Msg("failed to read app config")
	}
	log.Logger = log.Level(loggerLevelFromString(appCfg.LoggerLevel))

	watcherCfg := config.Config{}
	if err := envconfig.Init(&watcherCfg); err != nil {
		log.Fatal().Err(err).Msg("failed to read watcher config")
	}
	if err := watcherCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid watcher config")
	}

	var m metrics.Metrics = metrics.Nop{}
	if appCfg.StatsdAddr != "" {
		m = metrics.NewStatsd(appCfg.NodeID, appCfg.StatsdAddr)
	}

	specs := sink.New()
	plug, err := watcher.New(appCfg.Plugin, watcherCfg, specs, m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build watcher plugin")
	}

	log.Info().Str("plugin", plug.Name()).Msg("starting topology watcher")
	if err := plug.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start watcher plugin")
	}

	go func() {
		for spec := range specs.Updates() {
			log.Info().Int("routes", len(spec)).Msg("received new route spec")
		}
	}()

	serverClose := startProbeServer()
	defer serverClose()

	<-ctx.Done()
	if err := plug.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop watcher plugin")
	}
	specs.Close()
}

func startProbeServer() func() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		w.WriteHeader(http.StatusOK)
	})
	srv := http.Server{
		Handler: mux,
		Addr:    "0.0.0.0:8080",
	}
	go func() {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start http server")
		}
	}()
	return func() {
		_ = srv.Close()
	}
}
