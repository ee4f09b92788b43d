// Package models lists the LLM models a project can default to.
package models

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"thatmon/internal/config"
)

// ErrNotConfigured is returned when neither a models endpoint nor an API key is set.
var ErrNotConfigured = errors.New("models endpoint not configured")

type Model struct {
	ID      string `json:"id" yaml:"id"`
	OwnedBy string `json:"owned_by" yaml:"owned_by"`
}

// Catalog queries an OpenAI-compatible /models endpoint.
type Catalog struct {
	client *openai.Client
}

// NewCatalog 创建模型目录客户端
// NewCatalog creates a catalog client for an OpenAI-compatible endpoint
func NewCatalog(cfg config.ModelsConfig, timeoutMS int) (*Catalog, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" && strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if baseURL != "" {
		oc.BaseURL = baseURL
	}
	httpClient := &http.Client{}
	if timeoutMS > 0 {
		httpClient.Timeout = time.Duration(timeoutMS) * time.Millisecond
	}
	oc.HTTPClient = httpClient
	return &Catalog{client: openai.NewClientWithConfig(oc)}, nil
}

// List returns the available models sorted by id.
func (c *Catalog) List(ctx context.Context) ([]Model, error) {
	resp, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	out := make([]Model, 0, len(resp.Models))
	for _, m := range resp.Models {
		out = append(out, Model{ID: m.ID, OwnedBy: m.OwnedBy})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Filter keeps models whose id contains substr (case-insensitive).
func Filter(models []Model, substr string) []Model {
	substr = strings.ToLower(strings.TrimSpace(substr))
	if substr == "" {
		return models
	}
	var out []Model
	for _, m := range models {
		if strings.Contains(strings.ToLower(m.ID), substr) {
			out = append(out, m)
		}
	}
	return out
}

// Next returns the model after current in the list, wrapping around. An
// unknown current yields the first model.
func Next(models []Model, current string) (string, bool) {
	if len(models) == 0 {
		return "", false
	}
	for i, m := range models {
		if m.ID == current {
			return models[(i+1)%len(models)].ID, true
		}
	}
	return models[0].ID, true
}
