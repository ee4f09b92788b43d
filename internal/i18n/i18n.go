package i18n

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// DefaultLocale 是所有目录的回退语言
// DefaultLocale is the fallback catalog for every locale
const DefaultLocale = "en"

// catalogs 按规范化 locale 注册的消息目录
var catalogs = map[string]map[string]string{
	"en":    EnMessages,
	"zh-CN": ZhCNMessages,
}

// I18n 持有一个已解析 locale 的消息表
// I18n holds the merged messages of one resolved locale
type I18n struct {
	locale   string
	messages map[string]string
}

var (
	globalMu sync.RWMutex
	global   *I18n
)

// Global 返回全局实例，首次调用时按环境变量检测 locale
// Global returns the process-wide instance, detecting the locale from the
// environment on first use
func Global() *I18n {
	globalMu.RLock()
	g := global
	globalMu.RUnlock()
	if g != nil {
		return g
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		global = New("")
	}
	return global
}

// Init 用配置中的 locale 替换全局实例；空字符串表示自动检测
// Init replaces the global instance; an empty locale means auto-detect
func Init(locale string) {
	i := New(locale)
	globalMu.Lock()
	global = i
	globalMu.Unlock()
}

// T 全局翻译快捷函数
// T translates key with the global instance
func T(key string, args ...any) string {
	return Global().T(key, args...)
}

// New 创建实例。不支持的 locale 回退到英文目录
// New builds an instance for locale. Unsupported locales fall back to English.
func New(locale string) *I18n {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		locale = DetectLocale()
	}
	resolved := Resolve(locale)

	messages := make(map[string]string, len(EnMessages))
	for k, v := range catalogs[DefaultLocale] {
		messages[k] = v
	}
	if resolved != DefaultLocale {
		for k, v := range catalogs[resolved] {
			messages[k] = v
		}
	}
	return &I18n{locale: resolved, messages: messages}
}

// T 翻译 key；缺失的 key 原样返回
// T translates key, returning the key itself when it is missing
func (i *I18n) T(key string, args ...any) string {
	tmpl, ok := i.messages[key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// Has reports whether key exists in the merged catalog.
func (i *I18n) Has(key string) bool {
	_, ok := i.messages[key]
	return ok
}

// Locale returns the resolved locale.
func (i *I18n) Locale() string {
	return i.locale
}

// Supported 返回已注册目录的 locale 列表（有序）
// Supported lists the locales that have a catalog, sorted
func Supported() []string {
	out := make([]string, 0, len(catalogs))
	for k := range catalogs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Resolve 把任意 locale 字符串映射到已注册的目录
// Resolve maps any locale string onto a registered catalog
func Resolve(locale string) string {
	n := normalizeLocale(locale)
	if _, ok := catalogs[n]; ok {
		return n
	}
	return DefaultLocale
}

// DetectLocale 按 THATMON_LANG、LANG、LC_ALL、LC_MESSAGES 顺序检测
// DetectLocale reads THATMON_LANG, LANG, LC_ALL and LC_MESSAGES in that order
func DetectLocale() string {
	for _, env := range []string{"THATMON_LANG", "LANG", "LC_ALL", "LC_MESSAGES"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" && v != "C" && v != "POSIX" {
			return normalizeLocale(v)
		}
	}
	return DefaultLocale
}

func normalizeLocale(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultLocale
	}
	// 去掉 .UTF-8 / @euro 等后缀
	if idx := strings.IndexAny(s, ".@"); idx >= 0 {
		s = s[:idx]
	}
	s = strings.ReplaceAll(s, "_", "-")
	lower := strings.ToLower(s)

	switch {
	case strings.HasPrefix(lower, "zh"):
		return "zh-CN"
	case strings.HasPrefix(lower, "en"):
		return "en"
	}
	return s
}
