package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"thatmon/internal/api"
	"thatmon/internal/config"
	"thatmon/internal/i18n"
	"thatmon/internal/logtail"
	"thatmon/internal/models"
	"thatmon/internal/monitor"
	"thatmon/internal/storage"
	"thatmon/internal/stream"
	"thatmon/internal/tokenizer"
	"thatmon/internal/tui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// env 保存各子命令共享的已加载配置与日志
// env holds the loaded config and logger shared by every subcommand
type env struct {
	configPath string
	baseURL    string

	cfg      config.Config
	logger   *slog.Logger
	closeLog func() error
}

func (e *env) load() error {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if u := strings.TrimRight(strings.TrimSpace(e.baseURL), "/"); u != "" {
		cfg.Server.BaseURL = u
	}
	e.cfg = cfg
	i18n.Init(cfg.UI.Locale)

	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file unavailable, logging disabled: %v\n", err)
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		closeLog = func() error { return nil }
	}
	e.logger, e.closeLog = logger, closeLog
	slog.SetDefault(logger)
	return nil
}

func (e *env) close() error {
	if e.closeLog == nil {
		return nil
	}
	return e.closeLog()
}

func (e *env) client() *api.Client {
	return api.NewClient(e.cfg.Server)
}

func (e *env) monitorOptions(client *api.Client) monitor.Options {
	return monitor.Options{
		Backend:  client,
		Dialer:   stream.NewHTTPDialer(client.StreamHTTPClient(), e.logger),
		Logger:   e.logger,
		Messages: logtail.DefaultMessages(),
		Policy:   logtail.Policy{Statuses: e.cfg.Logs.TailStatuses},
	}
}

func (e *env) openArchive() (*storage.SQLiteArchive, error) {
	return storage.NewSQLiteArchive(storage.DBPath(e.cfg.Storage.BaseDir), e.cfg.Storage.ArchiveMax)
}

// catalog returns nil when no models endpoint is configured.
func (e *env) catalog() (*models.Catalog, error) {
	c, err := models.NewCatalog(e.cfg.Models, e.cfg.Server.TimeoutMS)
	if errors.Is(err, models.ErrNotConfigured) {
		return nil, nil
	}
	return c, err
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "thatmon",
		Short:         "Live dashboard for the task orchestration service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd.Context(), e)
		},
	}
	root.PersistentFlags().StringVar(&e.configPath, "config", "", "Path to config JSON/JSONC")
	root.PersistentFlags().StringVar(&e.baseURL, "base-url", "", "Service base URL override")

	root.AddCommand(
		newConsoleCmd(e),
		newTailCmd(e),
		newProjectsCmd(e),
		newTasksCmd(e),
		newSubtasksCmd(e),
		newModelsCmd(e),
		newArchiveCmd(e),
		newConfigCmd(e),
	)
	return root
}

func runDashboard(ctx context.Context, e *env) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the dashboard needs a terminal; use `thatmon tail` or `thatmon console`")
	}
	client := e.client()

	opts := tui.Options{
		Counter: tokenizer.ForEncoding(tokenizer.DefaultEncoding),
		Theme:   e.cfg.UI.Theme,
		Server:  client.BaseURL(),
	}
	if archive, err := e.openArchive(); err != nil {
		e.logger.Warn("log archive unavailable", "error", err)
	} else {
		defer archive.Close()
		opts.Archive = archive
	}
	catalog, err := e.catalog()
	if err != nil {
		e.logger.Warn("model catalog unavailable", "error", err)
	}
	opts.Catalog = catalog

	e.logger.Info("dashboard started", "server", client.BaseURL())
	return tui.Run(ctx, e.monitorOptions(client), opts)
}
