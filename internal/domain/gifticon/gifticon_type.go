package gifticon

import (
	"fmt"
)

// GifticonType ギフティコン種別を表す値オブジェクト
type GifticonType string

const (
	GifticonTypeProduct GifticonType = "PRODUCT" // 商品型（一括使用のみ）
	GifticonTypeAmount  GifticonType = "AMOUNT"  // 金額型（残高を分割使用）
)

// NewGifticonType 新しいGifticonTypeを作成
func NewGifticonType(s string) (GifticonType, error) {
	switch s {
	case "PRODUCT", "AMOUNT":
		return GifticonType(s), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidGifticonType, s)
	}
}

// String 文字列表現を返す
func (t GifticonType) String() string {
	return string(t)
}

// Valid 有効なギフティコン種別かどうかを返す
func (t GifticonType) Valid() bool {
	switch t {
	case GifticonTypeProduct, GifticonTypeAmount:
		return true
	default:
		return false
	}
}
