package listing

import (
	"context"

	"gifticon-wallet/internal/domain/gifticon"
)

// PageSize 1ページあたりの件数
const PageSize = 10

// Endpoint 取得先
type Endpoint string

const (
	EndpointAvailable Endpoint = "available"
	EndpointUsed      Endpoint = "used"
)

// FetchPlan 1回のページ取得で発行するリクエスト
type FetchPlan struct {
	Endpoint  Endpoint
	Available gifticon.AvailableQuery
	Used      gifticon.UsedQuery
}

// PlanFetch 現在の選択状態から取得リクエストを組み立てる。
// cursorは空なら先頭ページ、sizeが0以下ならPageSize
func PlanFetch(c Category, f Filter, k SortKey, cursor string, size int) FetchPlan {
	if size <= 0 {
		size = PageSize
	}
	sort := APISort(c, k)
	if c.IsUsed() {
		return FetchPlan{
			Endpoint: EndpointUsed,
			Used: gifticon.UsedQuery{
				Size:   size,
				Cursor: cursor,
				Type:   f.GifticonType(),
				Sort:   sort,
			},
		}
	}
	return FetchPlan{
		Endpoint: EndpointAvailable,
		Available: gifticon.AvailableQuery{
			Size:   size,
			Cursor: cursor,
			Type:   f.GifticonType(),
			Scope:  c.Scope(),
			Sort:   sort,
		},
	}
}

// Cursor リクエストに含まれるカーソルを返す
func (p FetchPlan) Cursor() string {
	if p.Endpoint == EndpointUsed {
		return p.Used.Cursor
	}
	return p.Available.Cursor
}

// Execute ゲートウェイにリクエストを発行する
func (p FetchPlan) Execute(ctx context.Context, gw gifticon.Gateway) (*gifticon.Page, error) {
	if p.Endpoint == EndpointUsed {
		return gw.FetchUsed(ctx, p.Used)
	}
	return gw.FetchAvailable(ctx, p.Available)
}
