package gifticonapi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gifticon-wallet/internal/domain/gifticon"
)

// 日付の受け付け形式。オフセットのないものは設定のタイムゾーンで解釈する
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// pagePayload 一覧取得APIのレスポンス
type pagePayload struct {
	Gifticons   []*gifticonPayload `json:"gifticons"`
	HasNextPage bool               `json:"hasNextPage"`
	NextPage    json.RawMessage    `json:"nextPage"`
}

// gifticonPayload 一覧の1件
type gifticonPayload struct {
	ID              int64  `json:"gifticonId"`
	Name            string `json:"gifticonName"`
	Type            string `json:"gifticonType"`
	ExpiryDate      string `json:"gifticonExpiryDate"`
	RemainingAmount *int64 `json:"gifticonRemainingAmount"`
	BrandName       string `json:"brandName"`
	Scope           string `json:"scope"`
	UserID          int64  `json:"userId"`
	UserName        string `json:"userName"`
	ShareBoxID      *int64 `json:"shareBoxId"`
	ShareBoxName    string `json:"shareBoxName"`
	ThumbnailPath   string `json:"thumbnailPath"`
	UsedAt          string `json:"usedAt"`
	CreatedAt       string `json:"gifticonCreatedAt"`
}

// errorPayload エラーレスポンス
type errorPayload struct {
	Message string `json:"message"`
}

// useAmountPayload 金額使用のリクエスト
type useAmountPayload struct {
	UsageAmount int64 `json:"usageAmount"`
}

// toPage レスポンスをドメインのページに変換する。
// usedは使用済み一覧の場合にtrueで、区分が欠けたレコードをUSEDとして扱う
func (p *pagePayload) toPage(loc *time.Location, used bool) (*gifticon.Page, error) {
	if p.Gifticons == nil {
		return nil, fmt.Errorf("%w: gifticons field is missing", gifticon.ErrInvalidResponse)
	}

	cursor, err := decodeCursor(p.NextPage)
	if err != nil {
		return nil, err
	}

	items := make([]*gifticon.Gifticon, 0, len(p.Gifticons))
	for i, g := range p.Gifticons {
		if g == nil {
			return nil, fmt.Errorf("%w: gifticons[%d] is null", gifticon.ErrInvalidResponse, i)
		}
		item, err := g.toGifticon(loc, used)
		if err != nil {
			return nil, fmt.Errorf("%w: gifticons[%d]: %v", gifticon.ErrInvalidResponse, i, err)
		}
		items = append(items, item)
	}

	return &gifticon.Page{
		Items:       items,
		HasNextPage: p.HasNextPage,
		NextCursor:  cursor,
	}, nil
}

func (g *gifticonPayload) toGifticon(loc *time.Location, used bool) (*gifticon.Gifticon, error) {
	gifticonType, err := gifticon.NewGifticonType(strings.ToUpper(g.Type))
	if err != nil {
		return nil, err
	}

	scopeText := strings.ToUpper(g.Scope)
	if used && scopeText == "" {
		scopeText = gifticon.ScopeUsed.String()
	}
	scope, err := gifticon.NewScope(scopeText)
	if err != nil {
		return nil, err
	}

	expiry, err := parseTime(g.ExpiryDate, loc)
	if err != nil {
		return nil, fmt.Errorf("gifticonExpiryDate: %w", err)
	}
	usedAt, err := parseTime(g.UsedAt, loc)
	if err != nil {
		return nil, fmt.Errorf("usedAt: %w", err)
	}
	createdAt, err := parseTime(g.CreatedAt, loc)
	if err != nil {
		return nil, fmt.Errorf("gifticonCreatedAt: %w", err)
	}

	var remaining, shareBoxID int64
	if g.RemainingAmount != nil {
		remaining = *g.RemainingAmount
	}
	if g.ShareBoxID != nil {
		shareBoxID = *g.ShareBoxID
	}

	return gifticon.NewGifticon(gifticon.Params{
		ID:              g.ID,
		Name:            g.Name,
		BrandName:       g.BrandName,
		Type:            gifticonType,
		Scope:           scope,
		RemainingAmount: remaining,
		ExpiryDate:      expiry,
		UsedAt:          usedAt,
		OwnerID:         g.UserID,
		OwnerName:       g.UserName,
		ShareBoxID:      shareBoxID,
		ShareBoxName:    g.ShareBoxName,
		ThumbnailPath:   g.ThumbnailPath,
		CreatedAt:       createdAt,
	})
}

// decodeCursor nextPageを文字列のカーソルにする。文字列・数値・nullを受け付ける
func decodeCursor(raw json.RawMessage) (string, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return "", nil
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: nextPage: %v", gifticon.ErrInvalidResponse, err)
		}
		return s, nil
	}
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return "", fmt.Errorf("%w: nextPage must be a string or number", gifticon.ErrInvalidResponse)
	}
	return text, nil
}

// parseTime RFC3339またはオフセットなしの日時・日付を解釈する。空文字はゼロ値
func parseTime(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format %q", value)
}
