package gifticon_list

// Messages 利用者向けメッセージのカタログ
type Messages interface {
	// Text キーに対応する文言を返す。paramsは {name} 形式のプレースホルダーを置換する
	Text(key string, params map[string]string) string

	// FormatAmount 金額を桁区切りで整形する
	FormatAmount(amount int64) string
}

// メッセージキー
const (
	MsgFetchInvalidResponse = "fetch.invalid_response"
	MsgFetchServerError     = "fetch.server_error"
	MsgFetchNetworkError    = "fetch.network_error"
	MsgFetchRequestError    = "fetch.request_error"

	MsgMarkUsedFailed     = "mark_used.failed"
	MsgMarkUsedBadRequest = "mark_used.bad_request"
	MsgUseAmountFailed    = "use_amount.failed"
	MsgUseAmountBadReq    = "use_amount.bad_request"
	MsgUseForbidden       = "use.forbidden"
	MsgUseNotFound        = "use.not_found"
	MsgUseConflict        = "use.conflict"
	MsgUseNetworkError    = "use.network_error"

	MsgAmountInvalid     = "amount.invalid"
	MsgAmountExceeds     = "amount.exceeds_balance"
	MsgItemNotLoaded     = "item.not_loaded"
	MsgUnsupportedType   = "item.unsupported_type"
	MsgSortNotSelectable = "sort.not_selectable"
	MsgInvalidSelection  = "selection.invalid"
	MsgLabelExpired      = "label.expired"
	MsgLabelDueToday     = "label.due_today"
	MsgLabelDaysLeft     = "label.days_left"
	MsgLabelBalance      = "label.balance"
	MsgLabelSharedBy     = "label.shared_by"
)

// categoryKey タブ名のキー
func categoryKey(category string) string {
	return "category." + category
}

// filterKey フィルタ名のキー
func filterKey(filter string) string {
	return "filter." + filter
}

// sortKey 並び順名のキー。使用済みタブのRECENTは「使用順」
func sortKey(category, key string) string {
	if category == "USED" {
		return "sort.USED_" + key
	}
	return "sort." + key
}

// emptyKey 空一覧の案内文のキー
func emptyKey(category string) string {
	return "empty." + category
}
