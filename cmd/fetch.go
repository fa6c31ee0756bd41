package main

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neon-guide/guide-cli/internal/emit"
	"github.com/neon-guide/guide-cli/internal/scrape"
	"github.com/neon-guide/guide-cli/pkg/bluer"
)

var (
	fetchSource string
	fetchLimit  int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Scrape guide sources into raw CSV files",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(cfg.Build.DataDir, 0o755); err != nil {
			return eris.Wrap(err, "fetch: create data dir")
		}

		switch fetchSource {
		case "michelin":
			return fetchMichelin(cmd)
		case "bluer":
			return fetchBlueRibbon(cmd)
		case "all":
			if err := fetchMichelin(cmd); err != nil {
				return err
			}
			return fetchBlueRibbon(cmd)
		default:
			return eris.Errorf("fetch: unknown source %q (want michelin, bluer, or all)", fetchSource)
		}
	},
}

func fetchMichelin(cmd *cobra.Command) error {
	limit := fetchLimit
	if limit == 0 {
		limit = cfg.Michelin.Limit
	}

	scraper := scrape.NewMichelin(scrape.WithMichelinLimit(limit))
	places, err := scraper.Run(cmd.Context())
	if err != nil {
		return eris.Wrap(err, "fetch: michelin")
	}

	out := filepath.Join(cfg.Build.DataDir, "michelin.csv")
	if err := emit.WritePlacesCSV(out, places); err != nil {
		return err
	}
	zap.L().Info("fetch: wrote michelin places",
		zap.Int("count", len(places)), zap.String("path", out))
	return nil
}

func fetchBlueRibbon(cmd *cobra.Command) error {
	zones := cfg.Bluer.Zones
	if len(zones) == 0 {
		zones = scrape.DefaultBlueRibbonZones
	}
	years := make(map[string]bool, len(cfg.Bluer.Years))
	for _, y := range cfg.Bluer.Years {
		years[strconv.Itoa(y)] = true
	}

	client := bluer.NewClient()
	places, err := scrape.BlueRibbonPlaces(cmd.Context(), client, zones, years)
	if err != nil {
		return eris.Wrap(err, "fetch: blue ribbon")
	}

	out := filepath.Join(cfg.Build.DataDir, "blueribbon.csv")
	if err := emit.WritePlacesCSV(out, places); err != nil {
		return err
	}
	zap.L().Info("fetch: wrote blue ribbon places",
		zap.Int("count", len(places)), zap.String("path", out))
	return nil
}

func init() {
	fetchCmd.Flags().StringVar(&fetchSource, "source", "all", "source to fetch: michelin, bluer, or all")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 0, "cap on michelin detail pages (0 = no cap)")
	rootCmd.AddCommand(fetchCmd)
}
