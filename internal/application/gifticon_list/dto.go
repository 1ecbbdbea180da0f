package gifticon_list

import (
	"gifticon-wallet/internal/domain/gifticon"
	"gifticon-wallet/internal/domain/listing"
)

// ListState 一覧画面の状態のスナップショット
type ListState struct {
	Category      listing.Category
	Filter        listing.Filter
	Sort          listing.SortSelection
	Items         []*gifticon.Gifticon
	Cursor        string
	HasMore       bool
	IsLoading     bool
	IsRefreshing  bool
	LastError     *ListError
	Generation    uint64
	CurrentUserID int64
	UserKnown     bool
}

// SortKey 現在のタブの並び順を返す
func (s ListState) SortKey() listing.SortKey {
	return s.Sort.Get(s.Category)
}

// UseAmountResult 金額使用の結果
type UseAmountResult struct {
	GifticonID      int64          `json:"gifticonId"`
	UsedAmount      int64          `json:"usedAmount"`
	RemainingAmount int64          `json:"remainingAmount"`
	FullyConsumed   bool           `json:"fullyConsumed"`
	HistoryScope    gifticon.Scope `json:"historyScope"` // 使用履歴画面に渡す区分
}

// 一覧項目で可能な操作
const (
	ActionMarkUsed = "mark_used"
	ActionBarcode  = "barcode"
)

// OptionView 選択肢
type OptionView struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ItemView 表示用の一覧項目
type ItemView struct {
	ID              int64    `json:"gifticonId"`
	Name            string   `json:"gifticonName"`
	BrandName       string   `json:"brandName"`
	Type            string   `json:"gifticonType"`
	Scope           string   `json:"scope"`
	RemainingAmount *int64   `json:"gifticonRemainingAmount,omitempty"`
	BalanceLabel    string   `json:"balanceLabel,omitempty"`
	ExpiryDate      string   `json:"gifticonExpiryDate,omitempty"`
	UsedAt          string   `json:"usedAt,omitempty"`
	UsedAtEstimated bool     `json:"usedAtEstimated,omitempty"`
	DaysLeft        *int     `json:"daysLeft,omitempty"`
	BadgeLabel      string   `json:"badgeLabel"`
	Urgency         string   `json:"urgency,omitempty"`
	OwnerID         int64    `json:"userId,omitempty"`
	OwnerName       string   `json:"userName,omitempty"`
	ShareBoxID      int64    `json:"shareBoxId,omitempty"`
	ShareBoxName    string   `json:"shareBoxName,omitempty"`
	SharedByOther   bool     `json:"sharedByOther"`
	SharedByLabel   string   `json:"sharedByLabel,omitempty"`
	ThumbnailPath   string   `json:"thumbnailPath,omitempty"`
	Actions         []string `json:"actions"`
}

// StateView 表示用の一覧画面の状態
type StateView struct {
	Category     string       `json:"category"`
	Filter       string       `json:"filter"`
	Sort         string       `json:"sort"`
	Categories   []OptionView `json:"categories"`
	Filters      []OptionView `json:"filters"`
	SortOptions  []OptionView `json:"sortOptions"`
	Items        []ItemView   `json:"items"`
	HasMore      bool         `json:"hasMore"`
	IsLoading    bool         `json:"isLoading"`
	IsRefreshing bool         `json:"isRefreshing"`
	Error        *ListError   `json:"error,omitempty"`
	EmptyMessage string       `json:"emptyMessage,omitempty"`
	Generation   uint64       `json:"generation"`
}
