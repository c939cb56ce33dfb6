package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/conorfennell/studydeck/internal/config"
	"github.com/conorfennell/studydeck/internal/storage"
	"github.com/conorfennell/studydeck/internal/sync"
	"github.com/conorfennell/studydeck/internal/web"
)

func main() {
	flags := pflag.NewFlagSet("studydeck", pflag.ExitOnError)
	configPath := flags.String("config", "studydeck.yaml", "Path to the yaml config file")
	flags.String("db", "studydeck.db", "Path to the SQLite database file")
	flags.String("repos", "repos", "Directory for cloned git sources")
	flags.String("listen", "localhost:8080", "HTTP listen address")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	addSource := flags.String("add-source", "", "Register a source (local path or git URL) and exit")
	runSync := flags.Bool("sync", false, "Sync all sources and exit")
	flags.Bool("serve", false, "Serve the web UI (the default when no other mode is given)")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("Database opened", "path", cfg.DBPath)

	if *addSource != "" {
		addNewSource(db, *addSource)
		return
	}

	if *runSync {
		sync.RunSync(db, cfg.ReposDir)
		return
	}

	server, err := web.NewServer(db, cfg.ReposDir)
	if err != nil {
		slog.Error("Failed to build server", "error", err)
		os.Exit(1)
	}
	slog.Info("Serving", "addr", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, server); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func addNewSource(db *storage.DB, path string) {
	existing, err := db.FindSourceByPath(path)
	if err != nil {
		slog.Error("Failed to check source", "path", path, "error", err)
		os.Exit(1)
	}
	if existing != nil {
		slog.Info("Source already registered", "path", path, "id", existing.ID)
		return
	}

	isGit := sync.IsGitURL(path)
	id, err := db.InsertSource(path, isGit)
	if err != nil {
		slog.Error("Failed to add source", "path", path, "error", err)
		os.Exit(1)
	}
	slog.Info("Source added", "path", path, "git", isGit, "id", id)
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
