package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/killallgit/blog-api/internal/services/pipeline"
	"github.com/killallgit/blog-api/internal/services/posts"
	"github.com/killallgit/blog-api/internal/services/sites"
	"github.com/killallgit/blog-api/internal/services/users"
	"github.com/killallgit/blog-api/pkg/ffmpeg"
	"github.com/spf13/cobra"
)

// generateCmd runs the post generation pipeline once without the server
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a post from a media URL",
	Long: `Run the post generation pipeline once for a media file.

The file is probed, normalized, transcribed and written up as a post
owned by the given user. The pipeline result is printed as JSON.

Example:
  blog-api generate --url https://cdn.example.com/talk.mp4 --user user_123`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("url", "", "URL of the uploaded media file")
	generateCmd.Flags().String("user", "", "ID of the user who owns the post")
	_ = generateCmd.MarkFlagRequired("url")
	_ = generateCmd.MarkFlagRequired("user")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	url, _ := cmd.Flags().GetString("url")
	userID, _ := cmd.Flags().GetString("user")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Storage.TempDir, 0o755); err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}

	engine := ffmpeg.New(cfg.Processing.FFmpegPath, cfg.Processing.FFprobePath, cfg.Processing.FFmpegTimeout)
	if err := engine.ValidateBinaries(); err != nil {
		return fmt.Errorf("ffmpeg is required: %w", err)
	}
	defer engine.Close()

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	postService := posts.NewService(posts.NewRepository(db.DB))
	userService := users.NewService(users.NewRepository(db.DB), postService, cfg.Plans.BasicPostLimit)
	siteService := sites.NewService(sites.NewRepository(db.DB), userService, cfg.Plans.FreeSiteLimit)
	orchestrator := buildPipeline(cfg, engine, postService, siteService)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Processing.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Processing.JobTimeout)
		defer cancel()
	}

	result := orchestrator.Run(ctx, map[string]any{"url": url}, userID,
		pipeline.WithProgress(func(stage string, percent int) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%3d%% %s\n", percent, stage)
		}))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("generation failed at %s: %s", result.Stage, result.Message)
	}
	return nil
}
