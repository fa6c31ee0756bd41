package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neon-guide/guide-cli/internal/critic"
	"github.com/neon-guide/guide-cli/internal/discovery"
	"github.com/neon-guide/guide-cli/internal/emit"
	"github.com/neon-guide/guide-cli/internal/model"
	"github.com/neon-guide/guide-cli/internal/scrape"
	"github.com/neon-guide/guide-cli/internal/store"
	"github.com/neon-guide/guide-cli/pkg/anthropic"
	"github.com/neon-guide/guide-cli/pkg/kakao"
	"github.com/neon-guide/guide-cli/pkg/naver"
	"github.com/neon-guide/guide-cli/pkg/notion"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find and score new restaurant candidates",
}

var discoverPlanPath string

var discoverRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the discovery plan and stage scored finds",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Kakao.Key == "" {
			return eris.New("discover: kakao key is required")
		}
		if cfg.Naver.ClientID == "" || cfg.Naver.ClientSecret == "" {
			return eris.New("discover: naver credentials are required")
		}
		if cfg.Anthropic.Key == "" {
			return eris.New("discover: anthropic key is required")
		}

		planPath := discoverPlanPath
		if planPath == "" {
			planPath = cfg.Discovery.PlanPath
		}
		plan, err := discovery.LoadPlan(planPath)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		scorer := critic.New(
			anthropic.NewClient(cfg.Anthropic.Key),
			critic.WithModels(cfg.Anthropic.AnalystModel, cfg.Anthropic.CriticModel),
		)

		pipeline := discovery.New(
			st,
			kakao.NewClient(cfg.Kakao.Key),
			naver.NewClient(cfg.Naver.ClientID, cfg.Naver.ClientSecret),
			scrape.NewBlogScraper(),
			scorer,
			discovery.WithPostDelay(time.Duration(cfg.Discovery.PostDelayMS)*time.Millisecond),
		)

		run, err := pipeline.Run(ctx, plan)
		if err != nil {
			return err
		}
		zap.L().Info("discover: run finished",
			zap.String("run_id", run.ID),
			zap.Int("staged", run.Stats.Staged),
		)
		return nil
	},
}

var (
	exportXLSX     bool
	exportNotion   bool
	exportRunID    string
	exportMinScore int
)

var discoverExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export staged finds as a review queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		minScore := exportMinScore
		if minScore < 0 {
			minScore = cfg.Discovery.ExportMinimum
		}
		finds, err := st.ListFinds(ctx, store.FindFilter{
			RunID:    exportRunID,
			MinScore: minScore,
		})
		if err != nil {
			return err
		}
		if len(finds) == 0 {
			zap.L().Warn("discover: nothing to export")
			return nil
		}

		if err := os.MkdirAll(cfg.Build.DataDir, 0o755); err != nil {
			return eris.Wrap(err, "discover: create data dir")
		}
		csvPath := filepath.Join(cfg.Build.DataDir, "review_queue.csv")
		if err := emit.WriteReviewQueueCSV(csvPath, finds); err != nil {
			return err
		}
		zap.L().Info("discover: wrote review queue csv",
			zap.Int("finds", len(finds)), zap.String("path", csvPath))

		if exportXLSX {
			xlsxPath := filepath.Join(cfg.Build.DataDir, "review_queue.xlsx")
			if err := emit.WriteReviewQueueXLSX(xlsxPath, finds); err != nil {
				return err
			}
			zap.L().Info("discover: wrote review queue xlsx", zap.String("path", xlsxPath))
		}

		if exportNotion {
			if cfg.Notion.Token == "" || cfg.Notion.ReviewDB == "" {
				return eris.New("discover: notion token and review_db are required for --notion")
			}
			client := notion.NewClient(cfg.Notion.Token)
			created, err := notion.PublishFinds(ctx, client, cfg.Notion.ReviewDB, finds)
			if err != nil {
				return err
			}
			zap.L().Info("discover: published to notion", zap.Int("created", created))
		}

		return nil
	},
}

var statusLimit int

var discoverStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List recent discovery runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns(ctx, statusLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			cmd.Println("no discovery runs yet")
			return nil
		}
		for _, r := range runs {
			line := fmt.Sprintf("%s  %-8s  %s", r.ID, r.Status, r.CreatedAt.Format(time.RFC3339))
			if r.Status == model.RunStatusComplete {
				line += fmt.Sprintf("  searches=%d places=%d staged=%d",
					r.Stats.Searches, r.Stats.Places, r.Stats.Staged)
			}
			if r.Error != "" {
				line += "  error=" + r.Error
			}
			cmd.Println(line)
		}
		return nil
	},
}

func init() {
	discoverRunCmd.Flags().StringVar(&discoverPlanPath, "plan", "", "discovery plan yaml (default from config)")
	discoverExportCmd.Flags().BoolVar(&exportXLSX, "xlsx", false, "also write an xlsx review queue")
	discoverExportCmd.Flags().BoolVar(&exportNotion, "notion", false, "publish finds to the Notion review database")
	discoverExportCmd.Flags().StringVar(&exportRunID, "run", "", "restrict export to one run")
	discoverExportCmd.Flags().IntVar(&exportMinScore, "min-score", -1, "minimum score to export (default from config)")
	discoverStatusCmd.Flags().IntVar(&statusLimit, "limit", 20, "number of runs to list")
	discoverCmd.AddCommand(discoverRunCmd)
	discoverCmd.AddCommand(discoverExportCmd)
	discoverCmd.AddCommand(discoverStatusCmd)
	rootCmd.AddCommand(discoverCmd)
}
