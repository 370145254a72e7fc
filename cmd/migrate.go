package cmd

import (
	"fmt"
	"strings"

	"github.com/killallgit/blog-api/internal/database"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Manage database migrations for the Blog API.

Migrations are applied with GORM auto migration: tables and columns are
created or extended to match the models, nothing is dropped.

Available subcommands:
  up      - Apply all pending migrations
  status  - Show which tables exist`,
}

// migrateUpCmd applies pending migrations
var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Long: `Apply all pending database migrations.

Every model table is created or updated so the schema matches the
current build.`,
	RunE: runMigrateUp,
}

// migrateStatusCmd shows migration status
var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long: `Display the current status of database migrations.

Lists every model table and whether it exists in the configured database.`,
	RunE: runMigrateStatus,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)

	migrateCmd.PersistentFlags().Bool("dry-run", false, "show what would be done without making changes")
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if dryRun {
		fmt.Fprintf(out, "Dry run: would migrate %d models in %s\n", len(database.Models()), cfg.Database.Path)
		return nil
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(out, "Migrated %d models in %s\n", len(database.Models()), cfg.Database.Path)
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database.Path, database.Options{Verbose: cfg.Database.Verbose})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Database Migration Status")
	fmt.Fprintln(out, strings.Repeat("=", 50))

	pending := 0
	for _, model := range database.Models() {
		state := "ok"
		if !db.DB.Migrator().HasTable(model) {
			state = "pending"
			pending++
		}
		fmt.Fprintf(out, "%-20s %s\n", tableName(db, model), state)
	}
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintf(out, "%d pending\n", pending)
	return nil
}

func tableName(db *database.DB, model any) string {
	stmt := &gorm.Statement{DB: db.DB}
	if err := stmt.Parse(model); err != nil || stmt.Schema == nil {
		return fmt.Sprintf("%T", model)
	}
	return stmt.Schema.Table
}
