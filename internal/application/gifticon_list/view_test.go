package gifticon_list

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gifticon-wallet/internal/domain/gifticon"
	"gifticon-wallet/internal/domain/listing"
)

func TestBuildItemView_Expiry(t *testing.T) {
	tests := []struct {
		name        string
		expiry      time.Time
		wantBadge   string
		wantDays    *int
		wantUrgency string
		wantActions []string
	}{
		{
			name:        "正常系: 30日後",
			expiry:      fixedNow.AddDate(0, 0, 30),
			wantBadge:   "label.days_left(days=30)",
			wantDays:    intPtr(30),
			wantUrgency: "normal",
			wantActions: []string{ActionMarkUsed, ActionBarcode},
		},
		{
			name:        "正常系: 7日後は期限間近",
			expiry:      fixedNow.AddDate(0, 0, 7),
			wantBadge:   "label.days_left(days=7)",
			wantDays:    intPtr(7),
			wantUrgency: "urgent",
			wantActions: []string{ActionMarkUsed, ActionBarcode},
		},
		{
			name:        "正常系: 本日が期限（深夜0時）",
			expiry:      time.Date(2026, 10, 15, 0, 0, 0, 0, kst),
			wantBadge:   MsgLabelDueToday,
			wantDays:    intPtr(0),
			wantUrgency: "urgent",
			wantActions: []string{ActionMarkUsed, ActionBarcode},
		},
		{
			name:        "正常系: 期限切れは操作なし",
			expiry:      time.Date(2026, 10, 14, 23, 59, 0, 0, kst),
			wantBadge:   MsgLabelExpired,
			wantDays:    intPtr(-1),
			wantUrgency: "expired",
			wantActions: []string{},
		},
		{
			name:        "正常系: 期限なし",
			wantUrgency: "",
			wantActions: []string{ActionMarkUsed, ActionBarcode},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := gifticon.MustNewGifticon(gifticon.Params{
				ID: 1, Type: gifticon.GifticonTypeProduct, Scope: gifticon.ScopeMyBox, ExpiryDate: tt.expiry,
			})
			state := ListState{Category: listing.CategoryMyBox}

			item := BuildItemView(g, state, fakeMessages{}, fixedNow)

			assert.Equal(t, tt.wantBadge, item.BadgeLabel)
			assert.Equal(t, tt.wantDays, item.DaysLeft)
			assert.Equal(t, tt.wantUrgency, item.Urgency)
			assert.Equal(t, tt.wantActions, item.Actions)
		})
	}
}

func TestBuildItemView_Amount(t *testing.T) {
	tests := []struct {
		name      string
		remaining int64
		wantLabel string
	}{
		{name: "正常系: 残高あり", remaining: 12000, wantLabel: "label.balance(amount=12000)"},
		{name: "正常系: 残高0はラベルなし", remaining: 0, wantLabel: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := BuildItemView(newAmount(1, tt.remaining), ListState{Category: listing.CategoryMyBox}, fakeMessages{}, fixedNow)

			require.NotNil(t, item.RemainingAmount)
			assert.Equal(t, tt.remaining, *item.RemainingAmount)
			assert.Equal(t, tt.wantLabel, item.BalanceLabel)
			assert.Equal(t, []string{ActionBarcode}, item.Actions)
			assert.Equal(t, "2026-11-15", item.ExpiryDate)
		})
	}
}

func TestBuildItemView_Used(t *testing.T) {
	g := gifticon.MustNewGifticon(gifticon.Params{
		ID: 1, Type: gifticon.GifticonTypeProduct, Scope: gifticon.ScopeMyBox,
		ExpiryDate: fixedNow.AddDate(0, 0, -10),
	})
	g.MarkUsed(time.Time{}, time.Date(2026, 10, 14, 16, 30, 0, 0, time.UTC))

	item := BuildItemView(g, ListState{Category: listing.CategoryUsed}, fakeMessages{}, fixedNow)

	assert.Equal(t, "USED", item.Scope)
	assert.Equal(t, "2026-10-15T01:30:00+09:00", item.UsedAt)
	assert.Equal(t, "26.10.15", item.BadgeLabel)
	assert.True(t, item.UsedAtEstimated)
	assert.Nil(t, item.DaysLeft)
	assert.Empty(t, item.Urgency)
	assert.Empty(t, item.Actions)
	assert.Nil(t, item.RemainingAmount)
}

func TestBuildItemView_SharedByOther(t *testing.T) {
	shared := gifticon.MustNewGifticon(gifticon.Params{
		ID: 1, Type: gifticon.GifticonTypeProduct, Scope: gifticon.ScopeShareBox,
		OwnerID: 2, OwnerName: "민지", ShareBoxID: 5, ShareBoxName: "가족",
	})

	tests := []struct {
		name      string
		state     ListState
		wantShare bool
		wantLabel string
	}{
		{
			name:      "正常系: 他のユーザーの共有",
			state:     ListState{Category: listing.CategoryShareBox, CurrentUserID: 1, UserKnown: true},
			wantShare: true,
			wantLabel: "label.shared_by(name=민지)",
		},
		{
			name:  "正常系: 自分の共有",
			state: ListState{Category: listing.CategoryShareBox, CurrentUserID: 2, UserKnown: true},
		},
		{
			name:  "正常系: ユーザー未確定",
			state: ListState{Category: listing.CategoryShareBox},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := BuildItemView(shared, tt.state, fakeMessages{}, fixedNow)
			assert.Equal(t, tt.wantShare, item.SharedByOther)
			assert.Equal(t, tt.wantLabel, item.SharedByLabel)
			assert.Equal(t, "가족", item.ShareBoxName)
		})
	}
}

func TestBuildView(t *testing.T) {
	t.Run("正常系: 選択肢とタイトル", func(t *testing.T) {
		view := BuildView(ListState{
			Category: listing.CategoryMyBox,
			Filter:   listing.FilterAll,
			Sort:     listing.NewSortSelection(),
		}, fakeMessages{}, fixedNow)

		assert.Equal(t, []OptionView{
			{ID: "MY_BOX", Title: "category.MY_BOX"},
			{ID: "SHARE_BOX", Title: "category.SHARE_BOX"},
			{ID: "USED", Title: "category.USED"},
		}, view.Categories)
		assert.Equal(t, []OptionView{
			{ID: "ALL", Title: "filter.ALL"},
			{ID: "PRODUCT", Title: "filter.PRODUCT"},
			{ID: "AMOUNT", Title: "filter.AMOUNT"},
		}, view.Filters)
		assert.Equal(t, []OptionView{
			{ID: "RECENT", Title: "sort.RECENT"},
			{ID: "EXPIRY", Title: "sort.EXPIRY"},
		}, view.SortOptions)
		assert.Equal(t, "empty.MY_BOX", view.EmptyMessage)
		assert.NotNil(t, view.Items)
	})

	t.Run("正常系: 使用済みタブは使用順のみ", func(t *testing.T) {
		view := BuildView(ListState{
			Category: listing.CategoryUsed,
			Filter:   listing.FilterAll,
			Sort:     listing.NewSortSelection(),
		}, fakeMessages{}, fixedNow)

		assert.Equal(t, []OptionView{{ID: "RECENT", Title: "sort.USED_RECENT"}}, view.SortOptions)
		assert.Equal(t, "RECENT", view.Sort)
		assert.Equal(t, "empty.USED", view.EmptyMessage)
	})

	t.Run("正常系: 読み込み中・エラー時は空メッセージを出さない", func(t *testing.T) {
		loading := BuildView(ListState{Category: listing.CategoryShareBox, IsLoading: true, Sort: listing.NewSortSelection()}, fakeMessages{}, fixedNow)
		assert.Empty(t, loading.EmptyMessage)

		failed := BuildView(ListState{
			Category:  listing.CategoryShareBox,
			Sort:      listing.NewSortSelection(),
			LastError: &ListError{Kind: KindNetwork, Message: MsgFetchNetworkError, Retryable: true},
		}, fakeMessages{}, fixedNow)
		assert.Empty(t, failed.EmptyMessage)
		require.NotNil(t, failed.Error)
		assert.Equal(t, KindNetwork, failed.Error.Kind)
	})

	t.Run("正常系: 項目の順序を保つ", func(t *testing.T) {
		view := BuildView(ListState{
			Category: listing.CategoryMyBox,
			Sort:     listing.NewSortSelection(),
			Items:    []*gifticon.Gifticon{newProduct(3, gifticon.ScopeMyBox), newAmount(1, 100)},
		}, fakeMessages{}, fixedNow)

		require.Len(t, view.Items, 2)
		assert.Equal(t, int64(3), view.Items[0].ID)
		assert.Equal(t, int64(1), view.Items[1].ID)
		assert.Empty(t, view.EmptyMessage)
	})
}

func TestListController_View(t *testing.T) {
	gw := new(MockGateway)
	c := loadItems(t, gw, newProduct(1, gifticon.ScopeMyBox))

	view := c.View()
	assert.Equal(t, "MY_BOX", view.Category)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "label.days_left(days=30)", view.Items[0].BadgeLabel)
	assert.Equal(t, uint64(1), view.Generation)
}

func intPtr(v int) *int {
	return &v
}
