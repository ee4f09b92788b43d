// Package tokenizer estimates how many LLM tokens a log buffer holds.
//
// tokenizer 包估算日志缓冲区的 token 数量，tiktoken 不可用时回退到启发式。
package tokenizer

import (
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

const DefaultEncoding = "cl100k_base"

// Counter counts tokens with tiktoken, or with a heuristic when the BPE
// ranks cannot be loaded (offline machines).
type Counter struct {
	encoding string
	mu       sync.Mutex
	enc      *tiktoken.Tiktoken
}

var (
	countersMu sync.Mutex
	counters   = map[string]*Counter{}
)

// ForModel returns the shared counter for a model's encoding. Loading the
// encoding may hit the network on first use; call it off the UI loop.
func ForModel(model string) *Counter {
	return ForEncoding(EncodingForModel(model))
}

func ForEncoding(name string) *Counter {
	countersMu.Lock()
	defer countersMu.Unlock()
	if c, ok := counters[name]; ok {
		return c
	}
	c := &Counter{encoding: name}
	if enc, err := tiktoken.GetEncoding(name); err == nil {
		c.enc = enc
	}
	counters[name] = c
	return c
}

// Heuristic returns a counter that never loads an encoding.
func Heuristic() *Counter {
	return &Counter{encoding: DefaultEncoding}
}

// CountText returns the token count of text.
func (c *Counter) CountText(text string) int {
	if text == "" {
		return 0
	}
	if c == nil || c.enc == nil {
		return estimate(text)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.enc.Encode(text, nil, nil))
}

func (c *Counter) Precise() bool { return c != nil && c.enc != nil }
func (c *Counter) Encoding() string { return c.encoding }

// estimate: CJK ~1.5 tokens per rune, everything else ~4 runes per token.
func estimate(text string) int {
	var cjk, other int
	for _, r := range text {
		if isCJK(r) {
			cjk++
		} else {
			other++
		}
	}
	n := int(float64(cjk)*1.5 + float64(other)*0.25)
	if n < 1 {
		n = 1
	}
	return n
}

func isCJK(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF, // CJK Unified
		r >= 0x3400 && r <= 0x4DBF, // Extension A
		r >= 0x3000 && r <= 0x303F, // symbols
		r >= 0xFF00 && r <= 0xFFEF, // fullwidth
		r >= 0xAC00 && r <= 0xD7AF: // Hangul
		return true
	}
	return false
}

// EncodingForModel 根据模型名推断编码
// EncodingForModel maps a model name to its tiktoken encoding
func EncodingForModel(model string) string {
	m := strings.ToLower(strings.TrimSpace(model))
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-4o", "chatgpt-4o", "gpt-4.1", "gpt-5"} {
		if strings.HasPrefix(m, prefix) {
			return "o200k_base"
		}
	}
	return DefaultEncoding
}
