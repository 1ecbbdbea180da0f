package gifticon

import "errors"

var (
	// ErrInvalidGifticonID ギフティコンIDが無効
	ErrInvalidGifticonID = errors.New("invalid gifticon id")
	// ErrInvalidGifticonType ギフティコン種別が無効
	ErrInvalidGifticonType = errors.New("invalid gifticon type")
	// ErrInvalidScope 保管区分が無効
	ErrInvalidScope = errors.New("invalid scope")
	// ErrInvalidAmount 金額が無効（0以下）
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNegativeBalance 残高がマイナス
	ErrNegativeBalance = errors.New("negative remaining amount")
	// ErrAmountExceedsBalance 使用金額が残高を超えている
	ErrAmountExceedsBalance = errors.New("amount exceeds remaining balance")
	// ErrNotAmountType 金額型ではないギフティコンに対する残高操作
	ErrNotAmountType = errors.New("gifticon is not an amount type")
	// ErrNotProductType 商品型ではないギフティコンに対する使用完了操作
	ErrNotProductType = errors.New("gifticon is not a product type")
	// ErrInvalidResponse APIレスポンスが期待する形式ではない
	ErrInvalidResponse = errors.New("invalid gifticon api response")
)
