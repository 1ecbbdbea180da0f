package gifticon_list

import (
	"errors"
	"fmt"
)

// ErrorKind コントローラーが返すエラーの種類
type ErrorKind string

const (
	// KindNetwork リクエストは送信したがレスポンスがない
	KindNetwork ErrorKind = "network_error"
	// KindServer エラーステータスのレスポンス
	KindServer ErrorKind = "server_error"
	// KindInvalidResponse 2xxだが期待するフィールドがない
	KindInvalidResponse ErrorKind = "invalid_response"
	// KindRequest リクエストを組み立て・送信できなかった
	KindRequest ErrorKind = "request_error"
	// KindInvalidAmount 使用金額が正の整数ではない
	KindInvalidAmount ErrorKind = "invalid_amount"
	// KindAmountExceedsBalance 使用金額が残高を超えている
	KindAmountExceedsBalance ErrorKind = "amount_exceeds_balance"
	// KindItemNotLoaded 対象のギフティコンが一覧に読み込まれていない
	KindItemNotLoaded ErrorKind = "item_not_loaded"
	// KindUnsupportedType 種別に合わない操作
	KindUnsupportedType ErrorKind = "unsupported_type"
	// KindSortNotSelectable このタブでは選べない並び順
	KindSortNotSelectable ErrorKind = "sort_not_selectable"
	// KindInvalidSelection 無効なタブ・フィルタ
	KindInvalidSelection ErrorKind = "invalid_selection"
)

// IsValidation サーバーを呼ばずに返す入力エラーかどうか
func (k ErrorKind) IsValidation() bool {
	switch k {
	case KindInvalidAmount, KindAmountExceedsBalance, KindItemNotLoaded,
		KindUnsupportedType, KindSortNotSelectable, KindInvalidSelection:
		return true
	default:
		return false
	}
}

// ListError 分類済みのエラー。Messageはそのまま利用者に表示できる
type ListError struct {
	Kind       ErrorKind `json:"kind"`
	Op         string    `json:"op"`
	StatusCode int       `json:"statusCode,omitempty"`
	Message    string    `json:"message"`
	Retryable  bool      `json:"retryable"`
	Err        error     `json:"-"`
}

// Error エラーメッセージを返す
func (e *ListError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

// Unwrap 元のエラーを返す
func (e *ListError) Unwrap() error {
	return e.Err
}

// AsListError errからListErrorを取り出す
func AsListError(err error) (*ListError, bool) {
	var listErr *ListError
	if errors.As(err, &listErr) {
		return listErr, true
	}
	return nil, false
}
