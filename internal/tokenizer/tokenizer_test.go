package tokenizer

import "testing"

func TestHeuristicCount(t *testing.T) {
	c := Heuristic()
	if c.Precise() {
		t.Fatal("heuristic counter reports precise")
	}
	if got := c.CountText(""); got != 0 {
		t.Fatalf("empty text = %d", got)
	}
	if got := c.CountText("a"); got != 1 {
		t.Fatalf("single rune = %d, want 1", got)
	}
	if got := c.CountText("abcdefgh"); got != 2 {
		t.Fatalf("8 ascii runes = %d, want 2", got)
	}
	if got := c.CountText("你好世界"); got != 6 {
		t.Fatalf("4 CJK runes = %d, want 6", got)
	}
}

func TestNilCounterFallsBack(t *testing.T) {
	var c *Counter
	if c.CountText("abcd") != 1 {
		t.Fatal("nil counter should estimate")
	}
	if c.Precise() {
		t.Fatal("nil counter reports precise")
	}
}

func TestEncodingForModel(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"", DefaultEncoding},
		{"gpt-4o-mini", "o200k_base"},
		{"o3-mini", "o200k_base"},
		{"GPT-4.1", "o200k_base"},
		{"gpt-4-turbo", DefaultEncoding},
		{"qwen-plus", DefaultEncoding},
		{"claude-3", DefaultEncoding},
	}
	for _, tt := range tests {
		if got := EncodingForModel(tt.model); got != tt.want {
			t.Fatalf("EncodingForModel(%q)=%q, want %q", tt.model, got, tt.want)
		}
	}
}
