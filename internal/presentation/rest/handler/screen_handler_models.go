package handler

import (
	"bytes"
	"encoding/json"
	"errors"

	"gifticon-wallet/internal/application/gifticon_list"
)

// ErrorResponse エラーレスポンス
// @Description エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error" example:"amount_exceeds_balance"`
	Message string `json:"message" example:"사용 가능한 금액은 5,000원입니다."`
	Code    string `json:"code,omitempty" example:"UseAmount"`
}

// MountScreenRequest 画面マウントリクエスト
// @Description 画面マウントリクエスト。categoryを省略するとMY_BOX
type MountScreenRequest struct {
	Category string `json:"category" example:"MY_BOX" enums:"MY_BOX,SHARE_BOX,USED"`
}

// ScreenResponse 画面レスポンス
// @Description 画面IDと表示用の状態
type ScreenResponse struct {
	ScreenID  string                  `json:"screenId" example:"0b8f5f0e-8a57-4c43-9f4d-3c1b2f1e9a10"`
	MountedAt string                  `json:"mountedAt" example:"2026-10-15T13:00:00+09:00"`
	State     gifticon_list.StateView `json:"state"`
}

// ChangeCategoryRequest タブ切り替えリクエスト
// @Description タブ切り替えリクエスト
type ChangeCategoryRequest struct {
	Category string `json:"category" example:"SHARE_BOX" enums:"MY_BOX,SHARE_BOX,USED"`
}

// ChangeFilterRequest 種別フィルタ切り替えリクエスト
// @Description 種別フィルタ切り替えリクエスト
type ChangeFilterRequest struct {
	Filter string `json:"filter" example:"PRODUCT" enums:"ALL,PRODUCT,AMOUNT"`
}

// ChangeSortRequest 並び順切り替えリクエスト
// @Description 並び順切り替えリクエスト。使用済みタブではRECENTのみ
type ChangeSortRequest struct {
	Sort string `json:"sort" example:"EXPIRY" enums:"RECENT,EXPIRY"`
}

// AmountText 入力された金額。文字列と数値のどちらでも受け付ける
type AmountText string

// UnmarshalJSON 文字列・数値をそのままの表記で受け取る
func (a *AmountText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("amount must be a string or a number")
	}
	*a = AmountText(n.String())
	return nil
}

// UseAmountRequest 金額使用リクエスト
// @Description 金額使用リクエスト。amountは入力された文字列のまま送る
type UseAmountRequest struct {
	Amount AmountText `json:"amount" swaggertype:"string" example:"3000"`
}

// UseAmountResponse 金額使用レスポンス
// @Description 金額使用の結果と更新後の状態
type UseAmountResponse struct {
	Result gifticon_list.UseAmountResult `json:"result"`
	State  gifticon_list.StateView       `json:"state"`
}

// HealthResponse ヘルスチェックレスポンス
// @Description ヘルスチェックレスポンス
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Screens int    `json:"screens" example:"1"`
}
