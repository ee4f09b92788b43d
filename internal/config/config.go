package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type ServerConfig struct {
	BaseURL   string `json:"base_url" yaml:"base_url"`
	Token     string `json:"token" yaml:"token"`
	TimeoutMS int    `json:"timeout_ms" yaml:"timeout_ms"`
}

type LogsConfig struct {
	// TailStatuses 限制可跟踪日志的子任务状态；为空表示不限制。
	// TailStatuses restricts which subtask statuses may be tailed; empty means unconditional.
	TailStatuses []string `json:"tail_statuses" yaml:"tail_statuses"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

type StorageConfig struct {
	BaseDir    string `json:"base_dir" yaml:"base_dir"`
	ArchiveMax int    `json:"archive_max" yaml:"archive_max"`
}

type UIConfig struct {
	Locale string `json:"locale" yaml:"locale"`
	Theme  string `json:"theme" yaml:"theme"`
}

type ModelsConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url"`
	APIKey  string `json:"api_key" yaml:"api_key"`
}

type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Logs    LogsConfig    `json:"logs" yaml:"logs"`
	Log     LogConfig     `json:"log" yaml:"log"`
	Storage StorageConfig `json:"storage" yaml:"storage"`
	UI      UIConfig      `json:"ui" yaml:"ui"`
	Models  ModelsConfig  `json:"models" yaml:"models"`
}

type fileLogsConfig struct {
	TailStatuses *[]string `json:"tail_statuses"`
}

type fileConfig struct {
	Server  *ServerConfig   `json:"server"`
	Logs    *fileLogsConfig `json:"logs"`
	Log     *LogConfig      `json:"log"`
	Storage *StorageConfig  `json:"storage"`
	UI      *UIConfig       `json:"ui"`
	Models  *ModelsConfig   `json:"models"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:   DefaultServerBaseURL,
			TimeoutMS: DefaultServerTimeoutMS,
		},
		Log: LogConfig{Level: "info"},
		Storage: StorageConfig{
			BaseDir:    "~/.thatmon",
			ArchiveMax: DefaultArchiveMax,
		},
		UI: UIConfig{Theme: "dark"},
	}
}

// Load 按优先级加载配置：默认值 < 全局文件 < 项目文件 < 环境变量
// Load resolves config with precedence: defaults < global file < project file < env
func Load(path string) (Config, error) {
	cfg := Default()

	for _, globalPath := range globalConfigPaths() {
		if err := mergeFromFile(&cfg, globalPath); err != nil {
			return Config{}, err
		}
	}

	resolvedPath := strings.TrimSpace(path)
	if envPath := strings.TrimSpace(os.Getenv("THATMON_CONFIG_PATH")); envPath != "" {
		resolvedPath = envPath
	}
	if resolvedPath == "" {
		resolvedPath = findProjectConfigPath()
	}
	if err := mergeFromFile(&cfg, resolvedPath); err != nil {
		return Config{}, err
	}

	if err := normalize(&cfg); err != nil {
		return Config{}, err
	}
	return applyEnv(cfg)
}

func globalConfigPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	dir := filepath.Join(home, ".thatmon")
	return []string{
		filepath.Join(dir, "config.json"),
		filepath.Join(dir, "config.jsonc"),
	}
}

func findProjectConfigPath() string {
	candidates := []string{
		"thatmon.config.jsonc",
		"thatmon.config.json",
		".thatmon/config.json",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func mergeFromFile(cfg *Config, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	resolved, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("expand config path %q: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %q: %w", resolved, err)
	}

	cleaned := stripJSONComments(data)
	var fileCfg fileConfig
	if err := json.Unmarshal(cleaned, &fileCfg); err != nil {
		return fmt.Errorf("parse config %q: %w", resolved, err)
	}
	applyFileConfig(cfg, fileCfg)
	return nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.Server != nil {
		cfg.Server = mergeServer(cfg.Server, *fc.Server)
	}
	if fc.Logs != nil && fc.Logs.TailStatuses != nil {
		cfg.Logs.TailStatuses = append([]string(nil), (*fc.Logs.TailStatuses)...)
	}
	if fc.Log != nil && strings.TrimSpace(fc.Log.Level) != "" {
		cfg.Log.Level = fc.Log.Level
	}
	if fc.Storage != nil {
		cfg.Storage = mergeStorage(cfg.Storage, *fc.Storage)
	}
	if fc.UI != nil {
		if strings.TrimSpace(fc.UI.Locale) != "" {
			cfg.UI.Locale = fc.UI.Locale
		}
		if strings.TrimSpace(fc.UI.Theme) != "" {
			cfg.UI.Theme = fc.UI.Theme
		}
	}
	if fc.Models != nil {
		if strings.TrimSpace(fc.Models.BaseURL) != "" {
			cfg.Models.BaseURL = fc.Models.BaseURL
		}
		if strings.TrimSpace(fc.Models.APIKey) != "" {
			cfg.Models.APIKey = fc.Models.APIKey
		}
	}
}

func mergeServer(base ServerConfig, override ServerConfig) ServerConfig {
	if strings.TrimSpace(override.BaseURL) != "" {
		base.BaseURL = override.BaseURL
	}
	if strings.TrimSpace(override.Token) != "" {
		base.Token = override.Token
	}
	if override.TimeoutMS > 0 {
		base.TimeoutMS = override.TimeoutMS
	}
	return base
}

func mergeStorage(base StorageConfig, override StorageConfig) StorageConfig {
	if strings.TrimSpace(override.BaseDir) != "" {
		base.BaseDir = override.BaseDir
	}
	if override.ArchiveMax > 0 {
		base.ArchiveMax = override.ArchiveMax
	}
	return base
}

func normalize(cfg *Config) error {
	cfg.Server.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Server.BaseURL), "/")
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = Default().Server.BaseURL
	}
	cfg.Server.Token = strings.TrimSpace(cfg.Server.Token)
	if cfg.Server.TimeoutMS <= 0 {
		cfg.Server.TimeoutMS = Default().Server.TimeoutMS
	}

	cfg.Logs.TailStatuses = normalizeStatusList(cfg.Logs.TailStatuses)

	switch strings.ToLower(strings.TrimSpace(cfg.Log.Level)) {
	case "debug", "info", "warn", "error":
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	default:
		cfg.Log.Level = Default().Log.Level
	}

	storageDir, err := expandPath(cfg.Storage.BaseDir)
	if err != nil {
		return err
	}
	cfg.Storage.BaseDir = storageDir
	if cfg.Storage.ArchiveMax <= 0 {
		cfg.Storage.ArchiveMax = Default().Storage.ArchiveMax
	}

	cfg.UI.Locale = strings.TrimSpace(cfg.UI.Locale)
	switch strings.ToLower(strings.TrimSpace(cfg.UI.Theme)) {
	case "light":
		cfg.UI.Theme = "light"
	default:
		cfg.UI.Theme = "dark"
	}

	cfg.Models.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Models.BaseURL), "/")
	cfg.Models.APIKey = strings.TrimSpace(cfg.Models.APIKey)
	return nil
}

func applyEnv(cfg Config) (Config, error) {
	if v := strings.TrimSpace(os.Getenv("THATMON_BASE_URL")); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("THATMON_TOKEN")); v != "" {
		cfg.Server.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("THATMON_TIMEOUT_MS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid THATMON_TIMEOUT_MS: %q", v)
		}
		cfg.Server.TimeoutMS = n
	}
	if v := strings.TrimSpace(os.Getenv("THATMON_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("THATMON_CACHE_PATH")); v != "" {
		cfg.Storage.BaseDir = v
	}
	if v := strings.TrimSpace(os.Getenv("THATMON_LANG")); v != "" {
		cfg.UI.Locale = v
	}
	if v := strings.TrimSpace(os.Getenv("THATMON_MODELS_API_KEY")); v != "" {
		cfg.Models.APIKey = v
	}

	return cfg, normalize(&cfg)
}

// normalizeStatusList 去重、去空白并转小写
// normalizeStatusList trims, lowercases and dedupes status names
func normalizeStatusList(statuses []string) []string {
	out := make([]string, 0, len(statuses))
	seen := map[string]struct{}{}
	for _, s := range statuses {
		trimmed := strings.ToLower(strings.TrimSpace(s))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if path == "~" {
			path = home
		} else {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return filepath.Abs(path)
}

func stripJSONComments(data []byte) []byte {
	const (
		stateNormal = iota
		stateString
		stateLineComment
		stateBlockComment
	)

	state := stateNormal
	escaped := false
	out := bytes.Buffer{}

	for i := 0; i < len(data); i++ {
		c := data[i]
		next := byte(0)
		if i+1 < len(data) {
			next = data[i+1]
		}

		switch state {
		case stateNormal:
			if c == '"' {
				state = stateString
				out.WriteByte(c)
				continue
			}
			if c == '/' && next == '/' {
				state = stateLineComment
				i++
				continue
			}
			if c == '/' && next == '*' {
				state = stateBlockComment
				i++
				continue
			}
			out.WriteByte(c)
		case stateString:
			out.WriteByte(c)
			if escaped {
				escaped = false
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				state = stateNormal
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				out.WriteByte(c)
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateNormal
				i++
			}
		}
	}

	return out.Bytes()
}
