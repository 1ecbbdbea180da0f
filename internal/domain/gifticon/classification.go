package gifticon

import (
	"time"
)

// UrgentThresholdDays 期限間近とみなす残り日数の上限
const UrgentThresholdDays = 7

// ExpiryState 有効期限の状態
type ExpiryState string

const (
	ExpiryStateNone      ExpiryState = ""          // 使用済みなど、期限を評価しない
	ExpiryStateExpired   ExpiryState = "expired"   // 期限切れ
	ExpiryStateDueToday  ExpiryState = "due_today" // 本日が期限
	ExpiryStateRemaining ExpiryState = "remaining" // 残り日数あり
)

// Urgency 表示上の緊急度
type Urgency string

const (
	UrgencyNone    Urgency = ""        // 使用済みには緊急度がない
	UrgencyExpired Urgency = "expired" // 期限切れ
	UrgencyUrgent  Urgency = "urgent"  // 本日〜7日以内
	UrgencyNormal  Urgency = "normal"  // それ以外
)

// DaysLeft 有効期限までの残り日数を日単位で返す。
// 両方の日時をnowのロケーションで0時に揃えてから差を取る
func DaysLeft(expiry, now time.Time) int {
	loc := now.Location()
	e := expiry.In(loc)
	// DSTの影響を避けるため暦日のみをUTC上で比較する
	expiryDay := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(expiryDay.Sub(today).Hours() / 24)
}

// ClassifyExpiry 有効期限の状態と残り日数を返す
func ClassifyExpiry(expiry, now time.Time) (ExpiryState, int) {
	days := DaysLeft(expiry, now)
	switch {
	case days < 0:
		return ExpiryStateExpired, days
	case days == 0:
		return ExpiryStateDueToday, 0
	default:
		return ExpiryStateRemaining, days
	}
}

// ExpiryState ギフティコンの有効期限状態を返す（使用済みはExpiryStateNone）
func (g *Gifticon) ExpiryState(now time.Time) (ExpiryState, int) {
	if g.scope.IsUsed() || g.expiryDate.IsZero() {
		return ExpiryStateNone, 0
	}
	return ClassifyExpiry(g.expiryDate, now)
}

// Urgency 表示上の緊急度を返す
func (g *Gifticon) Urgency(now time.Time) Urgency {
	state, days := g.ExpiryState(now)
	switch state {
	case ExpiryStateExpired:
		return UrgencyExpired
	case ExpiryStateDueToday:
		return UrgencyUrgent
	case ExpiryStateRemaining:
		if days <= UrgentThresholdDays {
			return UrgencyUrgent
		}
		return UrgencyNormal
	default:
		return UrgencyNone
	}
}

// IsExpired 期限切れかどうか
func (g *Gifticon) IsExpired(now time.Time) bool {
	state, _ := g.ExpiryState(now)
	return state == ExpiryStateExpired
}

// IsSharedByOther 他のユーザーがシェアボックスに共有したものかどうか。
// 現在のユーザーが未確定（known=false）の間は判定しない
func (g *Gifticon) IsSharedByOther(currentUserID int64, known bool) bool {
	if g.scope != ScopeShareBox || !known {
		return false
	}
	return g.ownerID != currentUserID
}
