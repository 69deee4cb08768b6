package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"bus-tracker/internal/sim"
	"bus-tracker/internal/transit"
)

func trackCommand() *cli.Command {
	return &cli.Command{
		Name:      "track",
		Usage:     "follow one bus in the terminal until interrupted",
		ArgsUsage: "<busId>",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "for",
				Usage: "stop after this long (0 runs until interrupted)",
			},
			&cli.DurationFlag{
				Name:  "refresh-every",
				Usage: "trigger a manual ETA refresh on this interval (0 disables)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: bustracker track <busId>", 2)
			}
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}
			registry, err := loadRegistry(cfg)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			if d := c.Duration("for"); d > 0 {
				ctx, cancel = context.WithTimeout(ctx, d)
				defer cancel()
			}
			return track(ctx, c.App.Writer, registry, c.Args().First(), simOptions(cfg), c.Duration("refresh-every"))
		},
	}
}

// track prints every emission of one session to w until ctx is done.
func track(ctx context.Context, w io.Writer, registry *transit.Registry, busID string, opts sim.Options, refreshEvery time.Duration) error {
	session := sim.Open(ctx, registry, busID, opts)
	defer session.Stop()

	if session.State() == sim.StateNotFound {
		return cli.Exit(fmt.Sprintf("Bus not found: %s", busID), 1)
	}

	route, _ := session.Route()
	var mu sync.Mutex
	printf := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format, args...)
	}

	printf("%s (#%s) %s -> %s, departs %s, %s\n",
		route.BusName, route.BusNumber, route.From, route.To, route.DepartureTime, route.Status)
	st := session.View().Status
	printf("  next stop %s in %s, %d mph, %s away\n", st.NextStop, st.EstimatedArrival, st.Speed, st.Distance)

	session.SubscribePosition(func(p sim.Position) {
		printf("  position %.6f, %.6f heading %.0f\n", p.Lat, p.Lng, p.Heading)
	})
	session.SubscribeStatus(func(st sim.TrackingStatus) {
		printf("  next stop %s in %s, %d mph, %s away (updated %s)\n",
			st.NextStop, st.EstimatedArrival, st.Speed, st.Distance, st.LastUpdated.Format(time.Kitchen))
	})

	var refresh <-chan time.Time
	if refreshEvery > 0 {
		t := time.NewTicker(refreshEvery)
		defer t.Stop()
		refresh = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-refresh:
			if _, err := session.Refresh(); err != nil {
				return nil
			}
		}
	}
}
