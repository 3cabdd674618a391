package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Agrid-Dev/linerating/cmd/app"
	httpctrl "github.com/Agrid-Dev/linerating/internal/controllers/http"
	modbusctrl "github.com/Agrid-Dev/linerating/internal/controllers/modbus"
	mqttctrl "github.com/Agrid-Dev/linerating/internal/controllers/mqtt"
	"github.com/Agrid-Dev/linerating/internal/line"
	"github.com/Agrid-Dev/linerating/internal/observability"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "path to config file (.yaml/.yml/.json)")
	flag.Parse()

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("linerating exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg app.Config, logger *slog.Logger) error {
	profile, err := cfg.Profile()
	if err != nil {
		return err
	}
	cond, err := cfg.AmbientCondition()
	if err != nil {
		return err
	}

	ln, err := line.New(cfg.LineID, profile, cond, nil)
	if err != nil {
		return err
	}
	metrics := observability.NewMetrics()
	// Every controller's writes go through ln, so the gauge follows them all.
	ln.Observe(func(s line.Snapshot) {
		metrics.SetLineRating(s.ID, s.Rating, s.RatingAvailable())
	})
	snap := ln.Get()
	logger.Info("line ready",
		"line", snap.ID,
		"conductor", profile.Name(),
		"rating", snap.Rating,
		"rating_available", snap.RatingAvailable(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if c := cfg.Controllers.HTTP; c.Enabled {
		srv := httpctrl.New(ln, c.Addr, metrics)
		logger.Info("http listening", "addr", c.Addr)
		g.Go(func() error { return srv.Run(ctx) })
	}

	if c := cfg.Controllers.MQTT; c.Enabled {
		mc, err := mqttctrl.New(ln, mqttctrl.Config{
			LineID:          cfg.LineID,
			BrokerURL:       c.BrokerURL,
			ClientID:        c.ClientID,
			BaseTopic:       c.BaseTopic,
			QoS:             c.QoS,
			RetainSnapshot:  c.RetainSnapshot,
			PublishInterval: c.PublishInterval,
			Username:        c.Username,
			Password:        c.Password,
			Logger:          logger,
		})
		if err != nil {
			return err
		}
		g.Go(func() error { return mc.Run(ctx) })
	}

	if c := cfg.Controllers.Modbus; c.Enabled {
		bc, err := modbusctrl.New(ln, modbusctrl.Config{
			LineID: cfg.LineID,
			Addr:   c.Addr,
			UnitID: c.UnitID,
		})
		if err != nil {
			return err
		}
		logger.Info("modbus listening", "addr", c.Addr, "unit_id", c.UnitID)
		g.Go(func() error { return bc.Run(ctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
