package i18n

import (
	"sort"
	"strings"
	"sync"
)

// Translator retrieves localized messages for validation error codes.
// data carries the values substituted into the message (for example
// "field", "expected" or "value").
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalogs = map[string]map[string]string{
	"en": {
		"invalid_type":       "expected {expected}, got {got}",
		"invalid_enum":       "symbol `{value}` is not one of: {symbols}",
		"invalid_field":      "invalid field `{field}`, expected one of: {fields}",
		"required":           "missing required field `{field}`",
		"field_invalid":      "the `{field}` field is not valid because:",
		"record_invalid":     "Trying '{record}'",
		"class_mismatch":     "expected class `{expected}`, found `{class}`",
		"no_match":           "value did not match any of the expected types:",
		"invalid_items":      "array items are not valid:",
		"invalid_uri":        "cannot resolve `{value}`: {reason}",
		"idmap":              "entry `{key}` is not a mapping and no map predicate is declared",
		"unknown_record":     "record type `{record}` is not defined",
		"parse_error":        "parse error: {reason}",
		"document_not_found": "document `{uri}` has not been loaded",
	},
	"ja": {
		"invalid_type":       "型が不正です ({expected} が必要ですが {got} でした)",
		"invalid_enum":       "`{value}` は列挙値ではありません (候補: {symbols})",
		"invalid_field":      "不正なフィールド `{field}` です (候補: {fields})",
		"required":           "必須フィールド `{field}` がありません",
		"field_invalid":      "`{field}` フィールドが不正です:",
		"record_invalid":     "'{record}' として検証中",
		"class_mismatch":     "クラス `{expected}` が必要ですが `{class}` でした",
		"no_match":           "いずれの型にも一致しません:",
		"invalid_items":      "配列の要素が不正です:",
		"invalid_uri":        "`{value}` を解決できません: {reason}",
		"idmap":              "`{key}` はマッピングではなく、mapPredicate も宣言されていません",
		"unknown_record":     "レコード型 `{record}` は定義されていません",
		"parse_error":        "解析エラー: {reason}",
		"document_not_found": "ドキュメント `{uri}` は読み込まれていません",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := catalogs[t.lang][code]
	if !ok {
		tmpl, ok = catalogs["en"][code]
	}
	if !ok {
		return code
	}
	return expand(tmpl, data)
}

func expand(tmpl string, data map[string]string) string {
	if len(data) == 0 {
		return tmpl
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", data[k])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := catalogs[lang]; !ok {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
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
