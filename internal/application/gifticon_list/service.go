package gifticon_list

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gifticon-wallet/internal/domain/gifticon"
	"gifticon-wallet/internal/domain/listing"
	otelinfra "gifticon-wallet/internal/infrastructure/observability/otel"
)

const (
	opLoadPage        = "LoadPage"
	opRefresh         = "Refresh"
	opLoadMore        = "LoadMore"
	opRetry           = "Retry"
	opFocus           = "Focus"
	opChangeCategory  = "ChangeCategory"
	opChangeFilter    = "ChangeFilter"
	opChangeSort      = "ChangeSort"
	opMarkProductUsed = "MarkProductUsed"
	opUseAmount       = "UseAmount"
)

// errSkip 取得を行わずに終える（LoadMoreの前提条件を満たさない場合など）
var errSkip = errors.New("skip fetch")

// ListController 一覧画面の状態を保持し、ページ取得と使用処理を仲介する。
// 状態はmuで保護し、ネットワーク呼び出し中はロックを保持しない
type ListController struct {
	gateway  gifticon.Gateway
	messages Messages
	logger   *otelinfra.Logger
	metrics  *otelinfra.Metrics
	tracer   trace.Tracer
	now      func() time.Time
	location *time.Location
	pageSize int
	observer func(ListState)
	notifyMu sync.Mutex

	mu            sync.Mutex
	category      listing.Category
	filter        listing.Filter
	sort          listing.SortSelection
	items         []*gifticon.Gifticon
	cursor        string
	hasMore       bool
	isLoading     bool
	isRefreshing  bool
	lastError     *ListError
	generation    uint64
	currentUserID int64
	userKnown     bool
}

// Option ListControllerの設定
type Option func(*ListController)

// WithClock 現在時刻の取得方法を差し替える
func WithClock(now func() time.Time) Option {
	return func(c *ListController) {
		c.now = now
	}
}

// WithLocation 日付の判定に使うタイムゾーンを指定する
func WithLocation(loc *time.Location) Option {
	return func(c *ListController) {
		if loc != nil {
			c.location = loc
		}
	}
}

// WithPageSize 1ページの件数を指定する
func WithPageSize(size int) Option {
	return func(c *ListController) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithInitialCategory 初期表示のタブを指定する
func WithInitialCategory(category listing.Category) Option {
	return func(c *ListController) {
		if category.Valid() {
			c.category = category
		}
	}
}

// WithObserver 状態が変わるたびに呼ばれる関数を登録する。
// 呼び出しは直列化されるが、ブロックしてはならない
func WithObserver(fn func(ListState)) Option {
	return func(c *ListController) {
		c.observer = fn
	}
}

// NewListController 新しいListControllerを作成
func NewListController(
	gateway gifticon.Gateway,
	messages Messages,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	opts ...Option,
) *ListController {
	c := &ListController{
		gateway:  gateway,
		messages: messages,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer("gifticon-list-controller"),
		now:      time.Now,
		location: time.Local,
		pageSize: listing.PageSize,
		category: listing.DefaultCategory,
		filter:   listing.FilterAll,
		sort:     listing.NewSortSelection(),
		items:    []*gifticon.Gifticon{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadPage ページを取得する。
// resetなら先頭ページから読み直し、そうでなければ続きのページを追加する。
// reset以外で取得中の場合は何もしない
func (c *ListController) LoadPage(ctx context.Context, reset bool) error {
	return c.fetch(ctx, opLoadPage, reset, false, nil)
}

// Refresh 引っ張って更新。isRefreshingを立てて先頭ページから読み直す
func (c *ListController) Refresh(ctx context.Context) error {
	return c.fetch(ctx, opRefresh, true, true, nil)
}

// LoadMore 続きがあり、取得中でない場合だけ次のページを取得する
func (c *ListController) LoadMore(ctx context.Context) error {
	return c.fetch(ctx, opLoadMore, false, false, func() error {
		if !c.hasMore || c.inFlightLocked() {
			return errSkip
		}
		return nil
	})
}

// Retry エラー後に先頭ページから読み直す
func (c *ListController) Retry(ctx context.Context) error {
	return c.fetch(ctx, opRetry, true, false, nil)
}

// Focus 画面が再表示されたときに先頭ページから読み直す
func (c *ListController) Focus(ctx context.Context) error {
	return c.fetch(ctx, opFocus, true, false, nil)
}

// ChangeCategory タブを切り替える。フィルタはALLに戻る
func (c *ListController) ChangeCategory(ctx context.Context, category listing.Category) error {
	if !category.Valid() {
		return c.validationError(ctx, opChangeCategory, KindInvalidSelection, MsgInvalidSelection, nil, listing.ErrInvalidCategory)
	}
	return c.fetch(ctx, opChangeCategory, true, false, func() error {
		c.category = category
		c.filter = listing.FilterAll
		return nil
	})
}

// ChangeFilter 種別フィルタを切り替える
func (c *ListController) ChangeFilter(ctx context.Context, filter listing.Filter) error {
	if filter.GifticonType() == "" && filter != listing.FilterAll {
		return c.validationError(ctx, opChangeFilter, KindInvalidSelection, MsgInvalidSelection, nil, listing.ErrInvalidFilter)
	}
	return c.fetch(ctx, opChangeFilter, true, false, func() error {
		c.filter = filter
		return nil
	})
}

// ChangeSort 現在のタブの並び順だけを切り替える
func (c *ListController) ChangeSort(ctx context.Context, key listing.SortKey) error {
	var rejected bool
	err := c.fetch(ctx, opChangeSort, true, false, func() error {
		if !listing.Selectable(c.category, key) {
			rejected = true
			return listing.ErrSortNotSelectable
		}
		c.sort = c.sort.With(c.category, key)
		return nil
	})
	if rejected {
		return c.validationError(ctx, opChangeSort, KindSortNotSelectable, MsgSortNotSelectable, nil, err)
	}
	return err
}

// fetch ページ取得の共通処理。
// prepareはロック中に呼ばれ、選択状態の変更と取得開始を一度に行う
func (c *ListController) fetch(ctx context.Context, op string, reset, refreshing bool, prepare func() error) error {
	ctx, span := c.tracer.Start(ctx, "ListController."+op)
	defer span.End()

	c.mu.Lock()
	if prepare != nil {
		if err := prepare(); err != nil {
			c.mu.Unlock()
			if errors.Is(err, errSkip) {
				span.SetAttributes(attribute.Bool("skipped", true))
				return nil
			}
			return err
		}
	}
	if !reset && c.inFlightLocked() {
		c.mu.Unlock()
		span.SetAttributes(attribute.Bool("skipped", true))
		return nil
	}
	if reset {
		c.generation++
		c.items = []*gifticon.Gifticon{}
		c.cursor = ""
		c.hasMore = false
	}
	cursor := ""
	if !reset {
		cursor = c.cursor
	}
	gen := c.generation
	category := c.category
	filter := c.filter
	plan := listing.PlanFetch(category, filter, c.sort.Get(category), cursor, c.pageSize)
	c.isLoading = true
	if refreshing {
		c.isRefreshing = true
	}
	c.lastError = nil
	c.mu.Unlock()
	c.notify()

	span.SetAttributes(
		attribute.String("category", category.String()),
		attribute.String("filter", filter.String()),
		attribute.Bool("reset", reset),
		attribute.Int64("generation", int64(gen)),
		attribute.String("cursor", cursor),
	)

	page, err := plan.Execute(ctx, c.gateway)
	if err == nil {
		err = page.Validate()
	}

	if err != nil {
		listErr := c.classifyFetchError(op, err)
		applied := c.complete(gen, func() {
			c.lastError = listErr
			if reset {
				c.items = []*gifticon.Gifticon{}
			}
		})
		if !applied {
			c.discardStale(ctx, op, category, gen)
			return nil
		}

		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		c.logger.Error(ctx, "Failed to fetch gifticon page", err, map[string]interface{}{
			"op":          op,
			"category":    category.String(),
			"filter":      filter.String(),
			"kind":        string(listErr.Kind),
			"status_code": listErr.StatusCode,
			"generation":  gen,
		})
		c.metrics.RecordFetch(ctx, category.String(), "error")
		c.metrics.RecordError(ctx, string(listErr.Kind))
		c.notify()
		return listErr
	}

	incoming := make([]*gifticon.Gifticon, 0, len(page.Items))
	var estimated []int64
	now := c.now()
	for _, item := range page.Items {
		g := item.Clone()
		if category.IsUsed() {
			g.MarkUsed(g.UsedAt(), now)
			if g.UsedAtEstimated() {
				estimated = append(estimated, g.ID())
			}
		}
		incoming = append(incoming, g)
	}

	var total int
	applied := c.complete(gen, func() {
		if reset {
			c.items = mergeByID(nil, incoming)
		} else {
			c.items = mergeByID(c.items, incoming)
		}
		c.hasMore = page.HasNextPage && page.NextCursor != ""
		c.cursor = ""
		if c.hasMore {
			c.cursor = page.NextCursor
		}
		total = len(c.items)
	})
	if !applied {
		c.discardStale(ctx, op, category, gen)
		return nil
	}

	if len(estimated) > 0 {
		c.logger.Warn(ctx, "Used gifticons returned without usedAt; filled with current time", map[string]interface{}{
			"gifticon_ids": estimated,
			"count":        len(estimated),
		})
		c.metrics.RecordEstimatedUsedAt(ctx, len(estimated))
	}
	if page.HasNextPage && page.NextCursor == "" {
		c.logger.Warn(ctx, "Page reported more results without a cursor", map[string]interface{}{
			"category": category.String(),
		})
	}

	span.SetAttributes(
		attribute.Int("received", len(page.Items)),
		attribute.Int("total", total),
		attribute.Bool("has_next_page", page.HasNextPage),
	)
	c.logger.Debug(ctx, "Fetched gifticon page", map[string]interface{}{
		"op":         op,
		"category":   category.String(),
		"filter":     filter.String(),
		"received":   len(page.Items),
		"total":      total,
		"has_more":   page.HasNextPage,
		"generation": gen,
	})
	c.metrics.RecordFetch(ctx, category.String(), "success")
	c.notify()
	return nil
}

// complete 取得を開始した世代が現在の世代と一致する場合だけapplyを実行し、取得中フラグを下ろす。
// 世代が進んでいればfalseを返し、状態には触れない
func (c *ListController) complete(gen uint64, apply func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	defer func() {
		c.isLoading = false
		c.isRefreshing = false
	}()
	apply()
	return true
}

func (c *ListController) discardStale(ctx context.Context, op string, category listing.Category, gen uint64) {
	c.logger.Info(ctx, "Discarded stale gifticon page", map[string]interface{}{
		"op":         op,
		"category":   category.String(),
		"generation": gen,
	})
	c.metrics.RecordStaleResult(ctx, category.String())
}

// MarkProductUsed 商品型ギフティコンを使用完了にし、成功したら一覧から取り除く
func (c *ListController) MarkProductUsed(ctx context.Context, id int64) error {
	ctx, span := c.tracer.Start(ctx, "ListController.MarkProductUsed")
	defer span.End()
	span.SetAttributes(attribute.Int64("gifticon_id", id))

	c.mu.Lock()
	if g := c.findLocked(id); g != nil && !g.IsProduct() {
		c.mu.Unlock()
		return c.validationError(ctx, opMarkProductUsed, KindUnsupportedType, MsgUnsupportedType, nil, gifticon.ErrNotProductType)
	}
	c.mu.Unlock()

	if err := c.gateway.MarkProductUsed(ctx, id); err != nil {
		listErr := c.classifyMutationError(opMarkProductUsed, err)
		c.failMutation(ctx, span, listErr, id)
		return listErr
	}

	c.mu.Lock()
	removed := c.removeLocked(id)
	c.clearMutationErrorLocked()
	c.mu.Unlock()

	c.logger.Info(ctx, "Product gifticon marked as used", map[string]interface{}{
		"gifticon_id": id,
		"removed":     removed,
	})
	c.metrics.RecordMutation(ctx, opMarkProductUsed, "success")
	c.notify()
	return nil
}

// UseAmount 金額型ギフティコンの残高から金額を使用する。
// 金額が不正・残高超過の場合はサーバーを呼ばない
func (c *ListController) UseAmount(ctx context.Context, id int64, amountText string) (*UseAmountResult, error) {
	ctx, span := c.tracer.Start(ctx, "ListController.UseAmount")
	defer span.End()
	span.SetAttributes(attribute.Int64("gifticon_id", id))

	amount, ok := parseAmount(amountText)
	if !ok {
		return nil, c.validationError(ctx, opUseAmount, KindInvalidAmount, MsgAmountInvalid, nil, gifticon.ErrInvalidAmount)
	}
	span.SetAttributes(attribute.Int64("amount", amount))

	c.mu.Lock()
	g := c.findLocked(id)
	if g == nil {
		c.mu.Unlock()
		return nil, c.validationError(ctx, opUseAmount, KindItemNotLoaded, MsgItemNotLoaded, nil, nil)
	}
	if !g.IsAmount() {
		c.mu.Unlock()
		return nil, c.validationError(ctx, opUseAmount, KindUnsupportedType, MsgUnsupportedType, nil, gifticon.ErrNotAmountType)
	}
	remaining := g.RemainingAmount()
	scope := g.Scope()
	c.mu.Unlock()

	if amount > remaining {
		return nil, c.validationError(ctx, opUseAmount, KindAmountExceedsBalance, MsgAmountExceeds,
			map[string]string{"remaining": c.messages.FormatAmount(remaining)}, gifticon.ErrAmountExceedsBalance)
	}

	if err := c.gateway.UseAmount(ctx, id, amount); err != nil {
		listErr := c.classifyMutationError(opUseAmount, err)
		c.failMutation(ctx, span, listErr, id)
		return nil, listErr
	}

	result := &UseAmountResult{
		GifticonID:      id,
		UsedAmount:      amount,
		RemainingAmount: remaining - amount,
		FullyConsumed:   amount == remaining,
		HistoryScope:    scope,
	}
	if result.FullyConsumed {
		result.HistoryScope = gifticon.ScopeUsed
	}

	c.mu.Lock()
	// 呼び出し中に一覧が読み直されている場合は、その時点の残高に対して適用する
	if current := c.findLocked(id); current != nil {
		if amount >= current.RemainingAmount() {
			c.removeLocked(id)
		} else {
			updated := current.Clone()
			_ = updated.Deduct(amount)
			c.replaceLocked(updated)
		}
	}
	c.clearMutationErrorLocked()
	c.mu.Unlock()

	c.logger.Info(ctx, "Amount gifticon used", map[string]interface{}{
		"gifticon_id":    id,
		"amount":         amount,
		"remaining":      result.RemainingAmount,
		"fully_consumed": result.FullyConsumed,
	})
	c.metrics.RecordMutation(ctx, opUseAmount, "success")
	c.notify()
	return result, nil
}

func (c *ListController) failMutation(ctx context.Context, span trace.Span, listErr *ListError, id int64) {
	c.mu.Lock()
	c.lastError = listErr
	c.mu.Unlock()

	span.RecordError(listErr)
	span.SetStatus(otelcodes.Error, listErr.Error())
	c.logger.Error(ctx, "Failed to use gifticon", listErr, map[string]interface{}{
		"op":          listErr.Op,
		"gifticon_id": id,
		"kind":        string(listErr.Kind),
		"status_code": listErr.StatusCode,
	})
	c.metrics.RecordMutation(ctx, listErr.Op, "error")
	c.metrics.RecordError(ctx, string(listErr.Kind))
	c.notify()
}

// SetCurrentUserID 現在のユーザーIDを設定する（マウント後に非同期で確定する）
func (c *ListController) SetCurrentUserID(id int64) {
	c.mu.Lock()
	c.currentUserID = id
	c.userKnown = true
	c.mu.Unlock()
	c.notify()
}

// State 現在の状態のスナップショットを返す
func (c *ListController) State() ListState {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]*gifticon.Gifticon, len(c.items))
	for i, g := range c.items {
		items[i] = g.Clone()
	}
	return ListState{
		Category:      c.category,
		Filter:        c.filter,
		Sort:          c.sort.Clone(),
		Items:         items,
		Cursor:        c.cursor,
		HasMore:       c.hasMore,
		IsLoading:     c.isLoading,
		IsRefreshing:  c.isRefreshing,
		LastError:     c.lastError,
		Generation:    c.generation,
		CurrentUserID: c.currentUserID,
		UserKnown:     c.userKnown,
	}
}

// View 表示用の状態を返す
func (c *ListController) View() StateView {
	return c.ViewOf(c.State())
}

// ViewOf 与えられたスナップショットを現在時刻で表示用に変換する
func (c *ListController) ViewOf(state ListState) StateView {
	return BuildView(state, c.messages, c.now().In(c.location))
}

func (c *ListController) notify() {
	if c.observer == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.observer(c.State())
}

func (c *ListController) inFlightLocked() bool {
	return c.isLoading || c.isRefreshing
}

func (c *ListController) findLocked(id int64) *gifticon.Gifticon {
	for _, g := range c.items {
		if g.ID() == id {
			return g
		}
	}
	return nil
}

func (c *ListController) removeLocked(id int64) bool {
	for i, g := range c.items {
		if g.ID() == id {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *ListController) replaceLocked(updated *gifticon.Gifticon) {
	for i, g := range c.items {
		if g.ID() == updated.ID() {
			c.items[i] = updated
			return
		}
	}
}

// clearMutationErrorLocked 前回の使用処理のエラーだけを消す。取得エラーは再試行まで残す
func (c *ListController) clearMutationErrorLocked() {
	if c.lastError != nil && !c.lastError.Retryable {
		c.lastError = nil
	}
}

// mergeByID 既存の一覧にページを追加する。同じIDは後から届いたもので置き換え、位置は保つ
func mergeByID(existing, incoming []*gifticon.Gifticon) []*gifticon.Gifticon {
	merged := make([]*gifticon.Gifticon, 0, len(existing)+len(incoming))
	index := make(map[int64]int, len(existing)+len(incoming))
	for _, g := range existing {
		if i, ok := index[g.ID()]; ok {
			merged[i] = g
			continue
		}
		index[g.ID()] = len(merged)
		merged = append(merged, g)
	}
	for _, g := range incoming {
		if i, ok := index[g.ID()]; ok {
			merged[i] = g
			continue
		}
		index[g.ID()] = len(merged)
		merged = append(merged, g)
	}
	return merged
}

// parseAmount 使用金額を正の整数として解釈する
func parseAmount(text string) (int64, bool) {
	amount, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}

func (c *ListController) validationError(ctx context.Context, op string, kind ErrorKind, key string, params map[string]string, cause error) *ListError {
	c.metrics.RecordError(ctx, string(kind))
	c.logger.Debug(ctx, "Rejected list operation", map[string]interface{}{
		"op":   op,
		"kind": string(kind),
	})
	return &ListError{
		Kind:    kind,
		Op:      op,
		Message: c.messages.Text(key, params),
		Err:     cause,
	}
}

// classifyFetchError 取得エラーを分類する
func (c *ListController) classifyFetchError(op string, err error) *ListError {
	listErr := &ListError{Op: op, Retryable: true, Err: err}

	if errors.Is(err, gifticon.ErrInvalidResponse) {
		listErr.Kind = KindInvalidResponse
		listErr.Message = c.messages.Text(MsgFetchInvalidResponse, nil)
		return listErr
	}

	var gwErr *gifticon.GatewayError
	if errors.As(err, &gwErr) {
		switch gwErr.Shape {
		case gifticon.FailureResponse:
			listErr.Kind = KindServer
			listErr.StatusCode = gwErr.StatusCode
			listErr.Message = c.messages.Text(MsgFetchServerError, map[string]string{
				"status": strconv.Itoa(gwErr.StatusCode),
			})
			return listErr
		case gifticon.FailureNoResponse:
			listErr.Kind = KindNetwork
			listErr.Message = c.messages.Text(MsgFetchNetworkError, nil)
			return listErr
		}
	}

	listErr.Kind = KindRequest
	listErr.Message = c.messages.Text(MsgFetchRequestError, nil)
	return listErr
}

// classifyMutationError 使用処理のエラーをステータスごとに分類する。サーバーのメッセージを優先する
func (c *ListController) classifyMutationError(op string, err error) *ListError {
	listErr := &ListError{Op: op, Err: err}

	failedKey, badRequestKey := MsgMarkUsedFailed, MsgMarkUsedBadRequest
	if op == opUseAmount {
		failedKey, badRequestKey = MsgUseAmountFailed, MsgUseAmountBadReq
	}

	var gwErr *gifticon.GatewayError
	if !errors.As(err, &gwErr) {
		listErr.Kind = KindRequest
		listErr.Message = c.messages.Text(failedKey, nil)
		return listErr
	}

	switch gwErr.Shape {
	case gifticon.FailureResponse:
		listErr.Kind = KindServer
		listErr.StatusCode = gwErr.StatusCode
		key := failedKey
		switch gwErr.StatusCode {
		case 400:
			key = badRequestKey
		case 403:
			key = MsgUseForbidden
		case 404:
			key = MsgUseNotFound
		case 409:
			key = MsgUseConflict
		}
		listErr.Message = c.messages.Text(key, nil)
		if gwErr.Message != "" {
			listErr.Message = gwErr.Message
		}
	case gifticon.FailureNoResponse:
		listErr.Kind = KindNetwork
		listErr.Message = c.messages.Text(MsgUseNetworkError, nil)
	default:
		listErr.Kind = KindRequest
		listErr.Message = c.messages.Text(failedKey, nil)
	}
	return listErr
}
