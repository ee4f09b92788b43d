package logtail

import (
	"bytes"
	"encoding/json"
)

// Frame is one message on a log stream. Fields are read one by one, so a
// field of an unexpected type only disables that field.
type Frame struct {
	// Failed is set by "success": false.
	Failed bool
	// Error is the failure text when "error" is a string.
	Error *string
	// Logs is the full-replace body when "logs" is a string.
	Logs *string
	// Reset is set when "reset" is truthy.
	Reset bool
	// Chunk is the appended text; only non-empty strings count.
	Chunk string
}

// DecodeFrame parses a log stream payload. ok is false when the payload is not
// a JSON object or matches none of the known shapes.
func DecodeFrame(data string) (f Frame, ok bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &fields); err != nil || fields == nil {
		return Frame{}, false
	}

	if raw, has := fields["success"]; has && bytes.Equal(bytes.TrimSpace(raw), []byte("false")) {
		f.Failed = true
		f.Error = stringField(fields, "error")
		return f, true
	}
	if f.Logs = stringField(fields, "logs"); f.Logs != nil {
		return f, true
	}
	f.Reset = truthy(fields["reset"])
	if s := stringField(fields, "chunk"); s != nil {
		f.Chunk = *s
	}
	return f, f.Reset || f.Chunk != ""
}

func stringField(fields map[string]json.RawMessage, key string) *string {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

// truthy follows JavaScript truthiness for a JSON value.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 't':
		return true
	case 'f', 'n':
		return false
	case '"':
		return len(raw) > 2
	case '{', '[':
		return true
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return false
	}
	return n != 0
}

// Apply returns the buffer after this frame. fallback replaces the buffer when
// a failure frame carries no error text.
//
// 优先级：失败 > 全量替换 > 重置 > 追加；重置帧可同时携带追加内容。
// Precedence: failure, then full replace, then reset; a reset frame may also carry a chunk.
func (f Frame) Apply(buf, fallback string) string {
	if f.Failed {
		if f.Error != nil {
			return *f.Error
		}
		return fallback
	}
	if f.Logs != nil {
		return *f.Logs
	}
	if f.Reset {
		buf = ""
	}
	return buf + f.Chunk
}
