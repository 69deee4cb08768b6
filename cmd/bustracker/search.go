package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"bus-tracker/internal/transit"
)

func searchCommand() *cli.Command {
	def := transit.DefaultFilterOptions()
	return &cli.Command{
		Name:  "search",
		Usage: "search routes by origin or destination",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "origin contains"},
			&cli.StringFlag{Name: "to", Usage: "destination contains"},
			&cli.Float64Flag{Name: "max-fare", Value: def.MaxFare},
			&cli.IntFlag{Name: "max-duration", Usage: "minutes", Value: def.MaxDuration},
			&cli.StringFlag{Name: "departure", Usage: "any, morning, afternoon or evening", Value: string(def.Departure)},
			&cli.StringFlag{Name: "sort", Usage: "departure, fare, duration or status", Value: string(def.SortBy)},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}
			registry, err := loadRegistry(cfg)
			if err != nil {
				return err
			}
			opts := transit.FilterOptions{
				MaxFare:     c.Float64("max-fare"),
				MaxDuration: c.Int("max-duration"),
				Departure:   transit.DepartureWindow(c.String("departure")),
				SortBy:      transit.SortKey(c.String("sort")),
			}
			if err := opts.Validate(); err != nil {
				return cli.Exit(err.Error(), 2)
			}
			routes := transit.ApplyFilters(registry.Search(transit.Query{From: c.String("from"), To: c.String("to")}), opts)
			if len(routes) == 0 {
				fmt.Fprintln(c.App.Writer, "No routes found")
				return nil
			}
			return printRoutes(c.App.Writer, routes)
		},
	}
}

func routesCommand() *cli.Command {
	return &cli.Command{
		Name:  "routes",
		Usage: "list every route in the table",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}
			registry, err := loadRegistry(cfg)
			if err != nil {
				return err
			}
			return printRoutes(c.App.Writer, registry.All())
		},
	}
}

func printRoutes(w io.Writer, routes []transit.BusRoute) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBUS\tFROM\tTO\tDEPARTS\tARRIVES\tFARE\tDURATION\tSTATUS")
	for _, r := range routes {
		fmt.Fprintf(tw, "%s\t%s #%s\t%s\t%s\t%s\t%s\t$%.2f\t%s\t%s\n",
			r.ID, r.BusName, r.BusNumber, r.From, r.To, r.DepartureTime, r.ArrivalTime, r.Fare, r.Duration, r.Status)
	}
	return tw.Flush()
}
