package gifticon

import (
	"fmt"
)

// FailureShape ゲートウェイ呼び出しの失敗形態
type FailureShape string

const (
	// FailureResponse エラーステータスのレスポンスを受信した
	FailureResponse FailureShape = "response"
	// FailureNoResponse リクエストは送信したがレスポンスがない
	FailureNoResponse FailureShape = "no_response"
	// FailureRequest リクエストを組み立て・送信できなかった
	FailureRequest FailureShape = "request"
)

// GatewayError ゲートウェイ呼び出しのエラー
type GatewayError struct {
	Shape      FailureShape
	StatusCode int    // FailureResponseの場合のみ
	Message    string // サーバーが返したメッセージ（任意）
	Err        error
}

// Error エラーメッセージを返す
func (e *GatewayError) Error() string {
	switch e.Shape {
	case FailureResponse:
		if e.Message != "" {
			return fmt.Sprintf("gifticon api responded %d: %s", e.StatusCode, e.Message)
		}
		return fmt.Sprintf("gifticon api responded %d", e.StatusCode)
	case FailureNoResponse:
		return fmt.Sprintf("gifticon api unreachable: %v", e.Err)
	default:
		return fmt.Sprintf("gifticon api request failed: %v", e.Err)
	}
}

// Unwrap 元のエラーを返す
func (e *GatewayError) Unwrap() error {
	return e.Err
}
