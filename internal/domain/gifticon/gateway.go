package gifticon

import (
	"context"
	"fmt"
)

// Sort 取得APIの並び順パラメータ
type Sort string

const (
	SortCreatedDesc Sort = "CREATED_DESC" // 登録が新しい順
	SortExpiryAsc   Sort = "EXPIRY_ASC"   // 期限が近い順
	SortUsedDesc    Sort = "USED_DESC"    // 使用が新しい順
)

// String 文字列表現を返す
func (s Sort) String() string {
	return string(s)
}

// AvailableQuery 使用可能ギフティコンの取得条件
type AvailableQuery struct {
	Size   int
	Cursor string       // 空なら先頭ページ
	Type   GifticonType // 空なら全種別
	Scope  Scope
	Sort   Sort
}

// UsedQuery 使用済みギフティコンの取得条件
type UsedQuery struct {
	Size   int
	Cursor string
	Type   GifticonType
	Sort   Sort
}

// Page カーソルページング結果
type Page struct {
	Items       []*Gifticon // nilは「レスポンスに一覧が含まれていない」ことを表す
	HasNextPage bool
	NextCursor  string
}

// Validate レスポンス形式を検証する
func (p *Page) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: empty page", ErrInvalidResponse)
	}
	if p.Items == nil {
		return fmt.Errorf("%w: gifticons field is missing", ErrInvalidResponse)
	}
	for i, g := range p.Items {
		if g == nil {
			return fmt.Errorf("%w: gifticons[%d] is null", ErrInvalidResponse, i)
		}
	}
	return nil
}

// Gateway リモートのギフティコンAPIへのポート
type Gateway interface {
	// FetchAvailable 使用可能なギフティコンを取得
	FetchAvailable(ctx context.Context, q AvailableQuery) (*Page, error)

	// FetchUsed 使用済みギフティコンを取得
	FetchUsed(ctx context.Context, q UsedQuery) (*Page, error)

	// MarkProductUsed 商品型ギフティコンを使用完了にする
	MarkProductUsed(ctx context.Context, id int64) error

	// UseAmount 金額型ギフティコンの残高を使用する
	UseAmount(ctx context.Context, id int64, amount int64) error
}
