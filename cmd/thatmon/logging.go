package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"thatmon/internal/config"
)

// openLogger 打开 <base_dir>/logs/thatmon.log；终端界面占用标准输出
// openLogger writes to <base_dir>/logs/thatmon.log since the dashboard owns stdout
func openLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	dir := filepath.Join(cfg.Storage.BaseDir, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "thatmon.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	h := slog.NewTextHandler(f, &slog.HandlerOptions{Level: parseLevel(cfg.Log.Level)})
	return slog.New(h), f.Close, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
