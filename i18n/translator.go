package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected", "got" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator. Templates use
// {name} placeholders filled from data; a template whose placeholders are
// not all available falls back to the plain form.
type dictTranslator struct{ lang string }

type entry struct {
	plain    string
	template string
}

var dictionaries = map[string]map[string]entry{
	"en": {
		"malformed_input":        {"malformed input", "malformed input: {detail}"},
		"unexpected_type":        {"unexpected type", "expected {expected}, got {got}"},
		"unrecognized_variant":   {"supplemental description matches no known variant", ""},
		"ambiguous_variant":      {"supplemental description matches more than one variant", ""},
		"missing_required_field": {"required property missing", "required property {key} is missing"},
		"unknown_key":            {"unknown key", "unknown property {key}"},
		"duplicate_key":          {"duplicate key", "duplicate key {key}"},
		"truncated":              {"input exceeds the configured limits", ""},
	},
	"ja": {
		"malformed_input":        {"入力が不正です", "入力が不正です: {detail}"},
		"unexpected_type":        {"型が不正です", "{expected} が必要ですが {got} でした"},
		"unrecognized_variant":   {"補足記述がどのバリアントにも一致しません", ""},
		"ambiguous_variant":      {"補足記述が複数のバリアントに一致します", ""},
		"missing_required_field": {"必須プロパティが不足しています", "必須プロパティ {key} が不足しています"},
		"unknown_key":            {"未知のキーです", "未知のプロパティ {key} です"},
		"duplicate_key":          {"キーが重複しています", "キー {key} が重複しています"},
		"truncated":              {"入力が上限を超えました", ""},
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	e, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	if e.template != "" && len(data) > 0 {
		if s, ok := fill(e.template, data); ok {
			return s
		}
	}
	return e.plain
}

func fill(tmpl string, data map[string]string) (string, bool) {
	b := &strings.Builder{}
	for {
		i := strings.IndexByte(tmpl, '{')
		if i < 0 {
			b.WriteString(tmpl)
			return b.String(), true
		}
		j := strings.IndexByte(tmpl[i:], '}')
		if j < 0 {
			b.WriteString(tmpl)
			return b.String(), true
		}
		v, ok := data[tmpl[i+1:i+j]]
		if !ok {
			return "", false
		}
		b.WriteString(tmpl[:i])
		b.WriteString(v)
		tmpl = tmpl[i+j+1:]
	}
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). nil restores the English dictionary.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
