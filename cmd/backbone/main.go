package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/tundzai001/land-slide-web/admin"
	"github.com/tundzai001/land-slide-web/analyzer"
	"github.com/tundzai001/land-slide-web/broadcast"
	"github.com/tundzai001/land-slide-web/broker"
	"github.com/tundzai001/land-slide-web/cipher"
	"github.com/tundzai001/land-slide-web/config"
	"github.com/tundzai001/land-slide-web/engine"
	"github.com/tundzai001/land-slide-web/metrics"
	"github.com/tundzai001/land-slide-web/pipeline"
	"github.com/tundzai001/land-slide-web/registry"
	"github.com/tundzai001/land-slide-web/storage"
)

const shutdownTimeout = 30 * time.Second

func main() {

	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	log := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.DebugLevel)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("could not load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("could not parse log level")
	}
	log = log.Level(level)

	gateway, err := storage.OpenGateway(log, cfg.AuthDBPath, cfg.ConfigDBPath, cfg.DataDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open storage gateway")
	}
	defer func() {
		if err := gateway.Close(); err != nil {
			log.Error().Err(err).Msg("could not close storage gateway")
		}
	}()

	codec, err := cipher.New([]byte(cfg.CipherKey), []byte(cfg.CipherIV))
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize payload cipher")
	}

	risk := analyzer.New()
	collectors := metrics.New(prometheus.DefaultRegisterer)
	hub := broadcast.NewHub(log, collectors)

	// orch depends on the registry, which depends on the broker client for
	// topic subscription; the broker's frame handler below captures orch by
	// variable and only sees its final value once both sides are built.
	var orch *pipeline.Orchestrator

	mqttClient := broker.New(log, broker.Config{
		BrokerURL: cfg.BrokerURL,
		ClientID:  cfg.BrokerClientID,
		Username:  cfg.BrokerUsername,
		Password:  cfg.BrokerPassword,
	}, func(topic string, payload []byte) {
		orch.HandleFrame(context.Background(), topic, payload, time.Now().UTC())
	})

	reg := registry.New(log, gateway, mqttClient, gateway, cfg.ReloadInterval)
	orch = pipeline.New(log, reg, codec, hub, risk, gateway, pipeline.WithMetrics(collectors))

	admSrv := admin.New(log, cfg.AdminHost, nil)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	e := engine.New(log, "backbone", sig)
	e.Component("broker", mqttClient.Run, func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mqttClient.Stop(ctx); err != nil {
			log.Error().Err(err).Msg("could not shut down broker client")
		}
	})
	e.Component("registry", reg.Run, func() {
		if err := reg.Stop(); err != nil {
			log.Error().Err(err).Msg("could not shut down topic registry")
		}
	})
	e.Component("admin", admSrv.Run, func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := admSrv.Stop(ctx); err != nil {
			log.Error().Err(err).Msg("could not shut down admin HTTP surface")
		}
	})

	if err := e.Run(); err != nil {
		log.Error().Err(err).Msg("engine stopped with error")
	}
}
