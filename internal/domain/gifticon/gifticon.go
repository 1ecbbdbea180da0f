package gifticon

import (
	"time"
)

// Params Gifticon生成パラメータ
type Params struct {
	ID              int64
	Name            string
	BrandName       string
	Type            GifticonType
	Scope           Scope
	RemainingAmount int64 // 金額型のみ有効
	ExpiryDate      time.Time
	UsedAt          time.Time
	OwnerID         int64
	OwnerName       string
	ShareBoxID      int64
	ShareBoxName    string
	ThumbnailPath   string
	CreatedAt       time.Time
}

// Gifticon ギフティコンエンティティ
type Gifticon struct {
	id              int64
	name            string
	brandName       string
	gifticonType    GifticonType
	scope           Scope
	remainingAmount int64
	expiryDate      time.Time
	usedAt          time.Time
	usedAtEstimated bool
	ownerID         int64
	ownerName       string
	shareBoxID      int64
	shareBoxName    string
	thumbnailPath   string
	createdAt       time.Time
}

// NewGifticon 新しいGifticonエンティティを作成
func NewGifticon(p Params) (*Gifticon, error) {
	if p.ID <= 0 {
		return nil, ErrInvalidGifticonID
	}
	if !p.Type.Valid() {
		return nil, ErrInvalidGifticonType
	}
	if !p.Scope.Valid() {
		return nil, ErrInvalidScope
	}
	if p.RemainingAmount < 0 {
		return nil, ErrNegativeBalance
	}

	remaining := p.RemainingAmount
	if p.Type != GifticonTypeAmount {
		remaining = 0
	}

	return &Gifticon{
		id:              p.ID,
		name:            p.Name,
		brandName:       p.BrandName,
		gifticonType:    p.Type,
		scope:           p.Scope,
		remainingAmount: remaining,
		expiryDate:      p.ExpiryDate,
		usedAt:          p.UsedAt,
		ownerID:         p.OwnerID,
		ownerName:       p.OwnerName,
		shareBoxID:      p.ShareBoxID,
		shareBoxName:    p.ShareBoxName,
		thumbnailPath:   p.ThumbnailPath,
		createdAt:       p.CreatedAt,
	}, nil
}

// ID ギフティコンIDを返す
func (g *Gifticon) ID() int64 {
	return g.id
}

// Name 商品名を返す
func (g *Gifticon) Name() string {
	return g.name
}

// BrandName ブランド名を返す
func (g *Gifticon) BrandName() string {
	return g.brandName
}

// Type ギフティコン種別を返す
func (g *Gifticon) Type() GifticonType {
	return g.gifticonType
}

// Scope 保管区分を返す
func (g *Gifticon) Scope() Scope {
	return g.scope
}

// RemainingAmount 残高を返す（商品型は常に0）
func (g *Gifticon) RemainingAmount() int64 {
	return g.remainingAmount
}

// ExpiryDate 有効期限を返す
func (g *Gifticon) ExpiryDate() time.Time {
	return g.expiryDate
}

// UsedAt 使用日時を返す
func (g *Gifticon) UsedAt() time.Time {
	return g.usedAt
}

// UsedAtEstimated 使用日時がサーバー値ではなく補完値かどうかを返す
func (g *Gifticon) UsedAtEstimated() bool {
	return g.usedAtEstimated
}

// OwnerID 所有者のユーザーIDを返す
func (g *Gifticon) OwnerID() int64 {
	return g.ownerID
}

// OwnerName 所有者名を返す
func (g *Gifticon) OwnerName() string {
	return g.ownerName
}

// ShareBoxID シェアボックスIDを返す
func (g *Gifticon) ShareBoxID() int64 {
	return g.shareBoxID
}

// ShareBoxName シェアボックス名を返す
func (g *Gifticon) ShareBoxName() string {
	return g.shareBoxName
}

// ThumbnailPath サムネイルのパスを返す
func (g *Gifticon) ThumbnailPath() string {
	return g.thumbnailPath
}

// CreatedAt 登録日時を返す
func (g *Gifticon) CreatedAt() time.Time {
	return g.createdAt
}

// IsProduct 商品型かどうか
func (g *Gifticon) IsProduct() bool {
	return g.gifticonType == GifticonTypeProduct
}

// IsAmount 金額型かどうか
func (g *Gifticon) IsAmount() bool {
	return g.gifticonType == GifticonTypeAmount
}

// MarkUsed 使用済み区分に変更する。
// usedAtがゼロ値の場合はnowで補完し、補完値であることを記録する
func (g *Gifticon) MarkUsed(usedAt, now time.Time) {
	g.scope = ScopeUsed
	if usedAt.IsZero() {
		g.usedAt = now
		g.usedAtEstimated = true
		return
	}
	g.usedAt = usedAt
	g.usedAtEstimated = false
}

// Deduct 残高から金額を差し引く
func (g *Gifticon) Deduct(amount int64) error {
	if !g.IsAmount() {
		return ErrNotAmountType
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > g.remainingAmount {
		return ErrAmountExceedsBalance
	}
	g.remainingAmount -= amount
	return nil
}

// IsFullyConsumed 金額型で残高を使い切っているかどうか
func (g *Gifticon) IsFullyConsumed() bool {
	return g.IsAmount() && g.remainingAmount == 0
}

// Clone 独立したコピーを返す
func (g *Gifticon) Clone() *Gifticon {
	c := *g
	return &c
}

// MustNewGifticon テスト用ヘルパー: NewGifticonを呼び出し、エラーが発生した場合はpanicする
func MustNewGifticon(p Params) *Gifticon {
	g, err := NewGifticon(p)
	if err != nil {
		panic(err)
	}
	return g
}
