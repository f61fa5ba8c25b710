package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fishalchemy/reel/internal/api"
	"github.com/fishalchemy/reel/internal/config"
	"github.com/fishalchemy/reel/internal/logging"
	"github.com/fishalchemy/reel/internal/session"
	"github.com/fishalchemy/reel/internal/store"
	"github.com/fishalchemy/reel/internal/tui"
)

var (
	// CLI flags
	configFlag   string
	apiURLFlag   string
	logLevelFlag string
	groupFlag    int
	projectFlag  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reel",
		Short: "Terminal client for Fish Alchemy",
		Long: `reel is a terminal client for the Fish Alchemy project tracker.

Browse groups and projects, drag tickets across the kanban board, and edit
dependency graphs without leaving the terminal.

Authentication:
  1. Sign in from the TUI, or run 'reel login'
  2. Environment variables: Set REEL_USERNAME and REEL_PASSWORD

Settings are read from the config file, then REEL_* environment variables,
then flags.`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "Server URL. Overrides api_url.")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn or error.")
	rootCmd.Flags().IntVar(&groupFlag, "group", 0, "Group id. Opens the group after sign in.")
	rootCmd.Flags().IntVar(&projectFlag, "project", 0, "Project id. Opens the board after sign in.")

	rootCmd.AddCommand(loginCmd(), logoutCmd(), whoamiCmd(), ticketsCmd(), groupsCmd(), projectsCmd(), userCmd(), configCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is what every command needs: settings, a logger and a client whose
// session is restored from the cache.
type env struct {
	cfg      config.Config
	logger   *slog.Logger
	client   *api.Client
	sessions *session.Manager
	closeLog func()
}

// setup loads settings and wires the client. Extra handlers receive log
// records alongside the log file.
func setup(extra ...slog.Handler) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	f, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		return nil, err
	}
	handlers := append([]slog.Handler{logging.NewFileHandler(f, level)}, extra...)
	logger := slog.New(logging.Fanout(handlers...))

	client, err := api.New(cfg.APIURL, api.WithLogger(logger), api.WithTimeout(cfg.Timeout.Duration))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	sessions := session.NewManager(client, session.NewCache(cfg.StateDir), logger)
	sessions.Restore()

	return &env{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		sessions: sessions,
		closeLog: func() { f.Close() },
	}, nil
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return config.Config{}, err
	}
	if apiURLFlag != "" {
		cfg.APIURL = apiURLFlag
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	if groupFlag < 0 || projectFlag < 0 {
		return fmt.Errorf("--group and --project take positive ids")
	}

	// Toasts show warnings and errors only; the file keeps the configured level.
	toasts := tui.NewToastHandler(slog.LevelWarn)
	e, err := setup(toasts)
	if err != nil {
		return err
	}
	defer e.closeLog()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	app := tui.NewAppModel(e.client, e.sessions, store.New(), ctx, e.logger, groupFlag, projectFlag)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	toasts.SetProgram(p)
	e.client.SetUnauthorizedHook(func() {
		go p.Send(tui.UnauthorizedMsg{})
	})

	e.logger.Debug("Starting", "api_url", e.cfg.APIURL)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}
