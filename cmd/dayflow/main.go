package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"dayflow/internal/app"
	"dayflow/internal/config"
	"dayflow/internal/storage"
	"dayflow/internal/update"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the YAML config file")
	dbPath := flag.String("db", "", "sqlite database path (overrides config)")
	runImport := flag.Bool("import", false, "bulk-import configured calendar feeds and exit")
	flag.Parse()

	if err := run(*configPath, *dbPath, *runImport); err != nil {
		fmt.Fprintf(os.Stderr, "dayflow: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, dbPath string, runImport bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if dbPath == "" {
		dbPath = cfg.DatabasePath(configPath)
	}
	repo, err := storage.OpenSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()
	if err := storage.MigrateUp(repo.DB()); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	backend, err := app.New(repo, cfg)
	if err != nil {
		return err
	}

	if runImport {
		summary, err := backend.ImportFeeds()
		if err != nil {
			return err
		}
		fmt.Println(summary)
		return nil
	}

	program := tea.NewProgram(update.NewModelWithBackend(backend))
	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "dayflow.yaml"
	}
	return filepath.Join(home, ".config", "dayflow", "config.yaml")
}
