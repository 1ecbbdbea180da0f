package i18n

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var messagesYAML []byte

// DefaultLocale 既定の言語
const DefaultLocale = "ko"

// ErrUnsupportedLocale 対応していない言語
var ErrUnsupportedLocale = errors.New("unsupported locale")

// Catalog 利用者向けメッセージのカタログ
type Catalog struct {
	locale   string
	messages map[string]string
	fallback map[string]string
	printer  *message.Printer
}

// NewCatalog 埋め込みのメッセージからCatalogを作成
func NewCatalog(locale string) (*Catalog, error) {
	return Parse(messagesYAML, locale)
}

// Parse YAMLのメッセージ定義からCatalogを作成。
// localeにないキーはDefaultLocaleの文言を使う
func Parse(data []byte, locale string) (*Catalog, error) {
	var all map[string]map[string]string
	if err := yaml.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("failed to parse messages: %w", err)
	}

	if locale == "" {
		locale = DefaultLocale
	}
	messages, ok := all[locale]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLocale, locale)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLocale, locale)
	}

	return &Catalog{
		locale:   locale,
		messages: messages,
		fallback: all[DefaultLocale],
		printer:  message.NewPrinter(tag),
	}, nil
}

// Locale 言語を返す
func (c *Catalog) Locale() string {
	return c.locale
}

// Text キーに対応する文言を返す。{name} はparamsの値で置き換える。
// キーが見つからなければキーをそのまま返す
func (c *Catalog) Text(key string, params map[string]string) string {
	text, ok := c.messages[key]
	if !ok {
		text, ok = c.fallback[key]
	}
	if !ok {
		return key
	}
	if len(params) == 0 {
		return text
	}

	pairs := make([]string, 0, len(params)*2)
	for name, value := range params {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// FormatAmount 金額を言語に合わせた桁区切りで整形する
func (c *Catalog) FormatAmount(amount int64) string {
	return c.printer.Sprintf("%d", amount)
}
