package gifticon_list

import (
	"strconv"
	"time"

	"gifticon-wallet/internal/domain/gifticon"
	"gifticon-wallet/internal/domain/listing"
)

const (
	expiryDateLayout = "2006-01-02"
	usedAtLabel      = "06.01.02"
)

// BuildView 状態のスナップショットから表示用の状態を組み立てる。nowは表示するタイムゾーンの現在時刻
func BuildView(state ListState, msgs Messages, now time.Time) StateView {
	category := state.Category.String()

	view := StateView{
		Category:     category,
		Filter:       state.Filter.String(),
		Sort:         state.SortKey().String(),
		Categories:   make([]OptionView, 0, 3),
		Filters:      make([]OptionView, 0, 3),
		SortOptions:  make([]OptionView, 0, 2),
		Items:        make([]ItemView, 0, len(state.Items)),
		HasMore:      state.HasMore,
		IsLoading:    state.IsLoading,
		IsRefreshing: state.IsRefreshing,
		Error:        state.LastError,
		Generation:   state.Generation,
	}

	for _, c := range []listing.Category{listing.CategoryMyBox, listing.CategoryShareBox, listing.CategoryUsed} {
		view.Categories = append(view.Categories, OptionView{ID: c.String(), Title: msgs.Text(categoryKey(c.String()), nil)})
	}
	for _, f := range []listing.Filter{listing.FilterAll, listing.FilterProduct, listing.FilterAmount} {
		view.Filters = append(view.Filters, OptionView{ID: f.String(), Title: msgs.Text(filterKey(f.String()), nil)})
	}
	for _, k := range listing.SortOptions(state.Category) {
		view.SortOptions = append(view.SortOptions, OptionView{ID: k.String(), Title: msgs.Text(sortKey(category, k.String()), nil)})
	}

	for _, g := range state.Items {
		view.Items = append(view.Items, BuildItemView(g, state, msgs, now))
	}

	if len(view.Items) == 0 && !state.IsLoading && state.LastError == nil {
		view.EmptyMessage = msgs.Text(emptyKey(category), nil)
	}
	return view
}

// BuildItemView 一覧項目の表示内容を組み立てる
func BuildItemView(g *gifticon.Gifticon, state ListState, msgs Messages, now time.Time) ItemView {
	item := ItemView{
		ID:            g.ID(),
		Name:          g.Name(),
		BrandName:     g.BrandName(),
		Type:          g.Type().String(),
		Scope:         g.Scope().String(),
		OwnerID:       g.OwnerID(),
		OwnerName:     g.OwnerName(),
		ShareBoxID:    g.ShareBoxID(),
		ShareBoxName:  g.ShareBoxName(),
		ThumbnailPath: g.ThumbnailPath(),
		Urgency:       string(g.Urgency(now)),
		Actions:       []string{},
	}

	if g.IsAmount() {
		remaining := g.RemainingAmount()
		item.RemainingAmount = &remaining
		if remaining > 0 {
			item.BalanceLabel = msgs.Text(MsgLabelBalance, map[string]string{"amount": msgs.FormatAmount(remaining)})
		}
	}
	if !g.ExpiryDate().IsZero() {
		item.ExpiryDate = g.ExpiryDate().In(now.Location()).Format(expiryDateLayout)
	}

	if g.Scope().IsUsed() {
		if !g.UsedAt().IsZero() {
			usedAt := g.UsedAt().In(now.Location())
			item.UsedAt = usedAt.Format(time.RFC3339)
			item.BadgeLabel = usedAt.Format(usedAtLabel)
		}
		item.UsedAtEstimated = g.UsedAtEstimated()
	} else {
		expiry, days := g.ExpiryState(now)
		switch expiry {
		case gifticon.ExpiryStateExpired:
			item.BadgeLabel = msgs.Text(MsgLabelExpired, nil)
		case gifticon.ExpiryStateDueToday:
			item.BadgeLabel = msgs.Text(MsgLabelDueToday, nil)
		case gifticon.ExpiryStateRemaining:
			item.BadgeLabel = msgs.Text(MsgLabelDaysLeft, map[string]string{"days": strconv.Itoa(days)})
		}
		if expiry != gifticon.ExpiryStateNone {
			item.DaysLeft = &days
		}
	}

	if g.IsSharedByOther(state.CurrentUserID, state.UserKnown) {
		item.SharedByOther = true
		item.SharedByLabel = msgs.Text(MsgLabelSharedBy, map[string]string{"name": g.OwnerName()})
	}

	// 期限切れと使用済みタブの項目には操作を出さない
	if state.Category.IsUsed() || g.IsExpired(now) {
		return item
	}
	if g.IsProduct() {
		item.Actions = append(item.Actions, ActionMarkUsed)
	}
	item.Actions = append(item.Actions, ActionBarcode)
	return item
}
