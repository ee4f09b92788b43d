package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InitProjectConfigScaffold 在当前工作目录下初始化项目级配置模板（./.thatmon/config.json）。
// InitProjectConfigScaffold initializes a project-level config scaffold (./.thatmon/config.json) in the current working directory.
func InitProjectConfigScaffold() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	dir := filepath.Join(cwd, ".thatmon")
	path := filepath.Join(dir, "config.json")

	// 若项目已经有 ./.thatmon/config.json，则尊重用户现有配置。
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return "", fmt.Errorf("project config path is a directory: %s", path)
		}
		return path, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat project config: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir .thatmon: %w", err)
	}

	cfg := Default()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write project config: %w", err)
	}

	return path, nil
}

// WriteServerBaseURL 将 server.base_url 写入项目配置（./.thatmon/config.json）；目录不存在则创建
// WriteServerBaseURL writes server.base_url to project config (./.thatmon/config.json); creates dir if needed
func WriteServerBaseURL(projectDir, baseURL string) error {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return errors.New("base url is empty")
	}
	dir := filepath.Join(strings.TrimSpace(projectDir), ".thatmon")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir .thatmon: %w", err)
	}
	path := filepath.Join(dir, "config.json")
	var out map[string]any
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(stripJSONComments(data), &out); err != nil {
			out = nil
		}
	}
	if out == nil {
		out = make(map[string]any)
	}
	serverMap, _ := out["server"].(map[string]any)
	if serverMap == nil {
		serverMap = make(map[string]any)
	}
	serverMap["base_url"] = baseURL
	out["server"] = serverMap
	data, err = json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
