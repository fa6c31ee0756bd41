package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neon-guide/guide-cli/internal/emit"
	"github.com/neon-guide/guide-cli/internal/enrich"
	"github.com/neon-guide/guide-cli/internal/ledger"
	"github.com/neon-guide/guide-cli/internal/merge"
	"github.com/neon-guide/guide-cli/internal/model"
	"github.com/neon-guide/guide-cli/pkg/kakao"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Merge raw CSVs, geocode via Kakao, and emit map files",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var lists [][]model.Place
		for _, name := range []string{"michelin.csv", "blueribbon.csv"} {
			path := filepath.Join(cfg.Build.DataDir, name)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				zap.L().Warn("build: raw file missing, skipping", zap.String("path", path))
				continue
			}
			places, err := emit.ReadPlacesCSV(path)
			if err != nil {
				return err
			}
			lists = append(lists, places)
		}
		if len(lists) == 0 {
			return eris.New("build: no raw CSVs found, run fetch first")
		}

		merged := merge.Places(merge.Options{PreferredSource: cfg.Build.PreferredSource}, lists...)
		zap.L().Info("build: merged places", zap.Int("count", len(merged)))

		// Without a Kakao key the build still runs, just ungeocoded.
		var kakaoClient kakao.Client
		if cfg.Kakao.Key != "" {
			kakaoClient = kakao.NewClient(cfg.Kakao.Key)
		} else {
			zap.L().Warn("build: no kakao key configured, skipping enrichment")
		}

		enricher := enrich.New(kakaoClient, ledger.New(cfg.Build.LedgerPath))
		enriched, err := enricher.Places(ctx, merged)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.Build.SiteDir, 0o755); err != nil {
			return eris.Wrap(err, "build: create site dir")
		}

		site := func(name string) string { return filepath.Join(cfg.Build.SiteDir, name) }
		if err := emit.WritePlacesCSV(site("places.csv"), enriched); err != nil {
			return err
		}
		if err := emit.WriteGeoJSON(site("places.geojson"), enriched); err != nil {
			return err
		}
		if err := emit.WriteKML(site("places.kml"), "Seoul Restaurant Guide", enriched); err != nil {
			return err
		}
		if err := emit.WriteShapefile(site("places.shp"), enriched); err != nil {
			return err
		}

		zap.L().Info("build: site files written",
			zap.Int("places", len(enriched)), zap.String("dir", cfg.Build.SiteDir))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
