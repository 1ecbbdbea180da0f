package listing

import (
	"fmt"
	"strings"

	"gifticon-wallet/internal/domain/gifticon"
)

// SortKey 並び順の選択肢
type SortKey string

const (
	SortRecent SortKey = "RECENT" // 登録順（使用済みタブでは使用順）
	SortExpiry SortKey = "EXPIRY" // 期限が近い順
)

// NewSortKey 文字列からSortKeyを作成
func NewSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToUpper(strings.TrimSpace(s))); k {
	case SortRecent, SortExpiry:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSortKey, s)
	}
}

// String 文字列表現を返す
func (k SortKey) String() string {
	return string(k)
}

// SortOptions タブごとに選択できる並び順を返す。使用済みタブはRECENT固定
func SortOptions(c Category) []SortKey {
	if c.IsUsed() {
		return []SortKey{SortRecent}
	}
	return []SortKey{SortRecent, SortExpiry}
}

// Selectable タブでその並び順を選べるかどうか
func Selectable(c Category, k SortKey) bool {
	for _, opt := range SortOptions(c) {
		if opt == k {
			return true
		}
	}
	return false
}

// SortSelection タブごとの並び順の選択状態。
// あるタブの選択を変えても他のタブの選択は保持される
type SortSelection map[Category]SortKey

// NewSortSelection 全タブRECENTの選択状態を作成
func NewSortSelection() SortSelection {
	return SortSelection{
		CategoryMyBox:    SortRecent,
		CategoryShareBox: SortRecent,
		CategoryUsed:     SortRecent,
	}
}

// Get タブの並び順を返す（未設定ならRECENT）
func (s SortSelection) Get(c Category) SortKey {
	if c.IsUsed() {
		return SortRecent
	}
	if k, ok := s[c]; ok {
		return k
	}
	return SortRecent
}

// Clone 独立したコピーを返す
func (s SortSelection) Clone() SortSelection {
	next := make(SortSelection, len(s)+1)
	for cat, key := range s {
		next[cat] = key
	}
	return next
}

// With タブの並び順だけを変えたコピーを返す
func (s SortSelection) With(c Category, k SortKey) SortSelection {
	next := s.Clone()
	next[c] = k
	return next
}

// APISort タブと並び順の組み合わせから取得APIのsortパラメータを決める
func APISort(c Category, k SortKey) gifticon.Sort {
	if c.IsUsed() {
		return gifticon.SortUsedDesc
	}
	if k == SortExpiry {
		return gifticon.SortExpiryAsc
	}
	return gifticon.SortCreatedDesc
}
