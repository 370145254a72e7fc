package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/killallgit/blog-api/pkg/config"
	"github.com/killallgit/blog-api/pkg/logging"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "blog-api",
	Short: "Blog API server",
	Long: `Blog API - turns uploaded audio and video into blog posts

Uploaded media is probed, normalized to 16kHz mono WAV with ffmpeg,
transcribed and written up as a Markdown post by a language model.

Features:
  • Post generation, synchronous or as background jobs
  • SpeechFlow transcription with Whisper and placeholder fallbacks
  • Sites, posts, comments and reactions
  • Plan limits for free and Basic users`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd returns the root command (exported for testing)
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(setupLogging)

	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "enable JSON formatted logs")
}

// setupLogging installs the default logger from flags. Config may raise
// the level later, flags win when set explicitly.
func setupLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonLogs, _ := rootCmd.PersistentFlags().GetBool("json-logs")
	logging.Setup(logging.Options{Level: level, JSON: jsonLogs})
}

// loadConfig initializes configuration for commands that need it and
// reapplies logging settings from it
func loadConfig() (*config.Config, error) {
	if err := config.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, err
	}

	flags := rootCmd.PersistentFlags()
	opts := logging.Options{
		Level:  cfg.Logging.Level,
		JSON:   cfg.Logging.Format == "json",
		Caller: cfg.Logging.Caller,
	}
	if flags.Changed("log-level") || opts.Level == "" {
		opts.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("json-logs") {
		opts.JSON, _ = flags.GetBool("json-logs")
	}
	logging.Setup(opts)

	log.Debug("configuration loaded", "environment", cfg.Environment)
	return cfg, nil
}
