package listing

import (
	"fmt"
	"strings"

	"gifticon-wallet/internal/domain/gifticon"
)

// Category 一覧画面のタブ（データ区分）
type Category string

const (
	CategoryMyBox    Category = "MY_BOX"
	CategoryShareBox Category = "SHARE_BOX"
	CategoryUsed     Category = "USED"
)

// DefaultCategory 初期表示のタブ
const DefaultCategory = CategoryMyBox

// NewCategory 文字列からCategoryを作成。
// ディープリンクのタブ名（mybox / sharebox / used）も受け付ける
func NewCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MY_BOX", "MYBOX":
		return CategoryMyBox, nil
	case "SHARE_BOX", "SHAREBOX":
		return CategoryShareBox, nil
	case "USED":
		return CategoryUsed, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
}

// String 文字列表現を返す
func (c Category) String() string {
	return string(c)
}

// Valid 有効なタブかどうか
func (c Category) Valid() bool {
	switch c {
	case CategoryMyBox, CategoryShareBox, CategoryUsed:
		return true
	default:
		return false
	}
}

// IsUsed 使用済みタブかどうか
func (c Category) IsUsed() bool {
	return c == CategoryUsed
}

// Scope 使用可能一覧を取得するときのscopeパラメータを返す
func (c Category) Scope() gifticon.Scope {
	switch c {
	case CategoryShareBox:
		return gifticon.ScopeShareBox
	case CategoryMyBox:
		return gifticon.ScopeMyBox
	default:
		return gifticon.ScopeAll
	}
}

// Filter 種別フィルタ
type Filter string

const (
	FilterAll     Filter = "ALL"
	FilterProduct Filter = "PRODUCT"
	FilterAmount  Filter = "AMOUNT"
)

// NewFilter 文字列からFilterを作成（大文字小文字は区別しない）
func NewFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToUpper(strings.TrimSpace(s))); f {
	case FilterAll, FilterProduct, FilterAmount:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}
}

// String 文字列表現を返す
func (f Filter) String() string {
	return string(f)
}

// GifticonType 取得条件に渡す種別を返す。ALLは空（条件なし）
func (f Filter) GifticonType() gifticon.GifticonType {
	switch f {
	case FilterProduct:
		return gifticon.GifticonTypeProduct
	case FilterAmount:
		return gifticon.GifticonTypeAmount
	default:
		return ""
	}
}
