package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"bus-tracker/internal/api"
	"bus-tracker/internal/config"
	"bus-tracker/internal/driver"
	"bus-tracker/internal/favorites"
	"bus-tracker/internal/metrics"
	"bus-tracker/internal/notify"
	"bus-tracker/internal/publisher"
	"bus-tracker/internal/sim"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API with live tracking sessions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "HTTP listen address (default HTTP_ADDR)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(true)
			if err != nil {
				return err
			}
			addr := c.String("addr")
			if addr == "" {
				addr = cfg.HTTPAddr
			}
			return serve(c.Context, cfg, addr)
		},
	}
}

func serve(parent context.Context, cfg *config.Config, addr string) error {
	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	kv, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// Metrics setup
	var mcol *metrics.Collector
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.PositionInterval, cfg.StatusInterval)
		srv := mcol.Serve(cfg.MetricsAddr)
		defer shutdown(srv, "metrics")
	}

	notifier := notify.Multi{notify.Log{Logger: log.Logger}}
	var sink sim.Sink
	if cfg.NATSURL != "" {
		pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol))
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer pub.Close()
		sink = pub
		notifier = append(notifier, pub)
		log.Info().Str("url", cfg.NATSURL).Str("prefix", cfg.NATSSubjectPrefix).Msg("publishing to NATS")
	}

	mgr := sim.NewManager(registry, simOptions(cfg), sink, mcol)
	defer mgr.Stop()

	server := api.NewServer(
		registry,
		mgr,
		favorites.New(kv, registry, notifier),
		driver.NewSessions(kv),
		notifier,
		cfg.DriverLocationInterval,
	)
	defer server.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	log.Info().Str("addr", addr).Int("routes", registry.Len()).Str("store", cfg.StoreBackend).Msg("bus tracker listening")

	select {
	case <-ctx.Done():
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	shutdown(srv, "http")
	log.Info().Msg("shutdown complete")
	return nil
}

func shutdown(srv *http.Server, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Str("server", name).Msg("shutdown")
	}
}

// wrapPublisherMetrics adapts our Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()              { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc()             { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}
