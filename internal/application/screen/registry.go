package screen

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gifticon-wallet/internal/application/gifticon_list"
	"gifticon-wallet/internal/domain/gifticon"
	"gifticon-wallet/internal/domain/listing"
	otelinfra "gifticon-wallet/internal/infrastructure/observability/otel"
)

// ErrScreenNotFound 画面が見つからない
var ErrScreenNotFound = errors.New("screen not found")

// Publisher 画面の状態の配信先
type Publisher interface {
	// Publish 状態が変わるたびに呼ばれる。ブロックしてはならない
	Publish(screenID string, view gifticon_list.StateView)
	// Close 画面の破棄時に呼ばれる
	Close(screenID string)
}

// IdentityResolver 現在のユーザーIDを解決する
type IdentityResolver interface {
	// CurrentUserID ユーザーIDを返す。未ログインなどで不明な場合はokがfalse
	CurrentUserID(ctx context.Context) (id int64, ok bool, err error)
}

// Screen マウント中の一覧画面
type Screen struct {
	ID         string
	Controller *gifticon_list.ListController
	MountedAt  time.Time
}

// Registry 画面ごとのListControllerを管理する
type Registry struct {
	gateway   gifticon.Gateway
	messages  gifticon_list.Messages
	identity  IdentityResolver
	publisher Publisher
	logger    *otelinfra.Logger
	metrics   *otelinfra.Metrics
	tracer    trace.Tracer
	opts      []gifticon_list.Option
	now       func() time.Time

	mu       sync.RWMutex
	screens  map[string]*Screen
	identify sync.WaitGroup
}

// NewRegistry 新しいRegistryを作成。optsはマウントするすべてのコントローラーに適用する
func NewRegistry(
	gateway gifticon.Gateway,
	messages gifticon_list.Messages,
	identity IdentityResolver,
	publisher Publisher,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	opts ...gifticon_list.Option,
) *Registry {
	return &Registry{
		gateway:   gateway,
		messages:  messages,
		identity:  identity,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer("screen-registry"),
		opts:      opts,
		now:       time.Now,
		screens:   make(map[string]*Screen),
	}
}

// Mount 一覧画面をマウントし、先頭ページを読み込む。
// ユーザーIDは非同期に解決し、確定した時点でコントローラーに反映する。
// 初回読み込みの失敗は画面の状態に残り、Mount自体は成功する
func (r *Registry) Mount(ctx context.Context, initial listing.Category) (*Screen, error) {
	ctx, span := r.tracer.Start(ctx, "Registry.Mount")
	defer span.End()

	if initial == "" {
		initial = listing.DefaultCategory
	}
	if !initial.Valid() {
		return nil, listing.ErrInvalidCategory
	}

	id := uuid.NewString()
	span.SetAttributes(
		attribute.String("screen_id", id),
		attribute.String("category", initial.String()),
	)

	var ctrl *gifticon_list.ListController
	observer := func(state gifticon_list.ListState) {
		r.publisher.Publish(id, ctrl.ViewOf(state))
	}
	opts := append(append([]gifticon_list.Option{}, r.opts...),
		gifticon_list.WithInitialCategory(initial),
		gifticon_list.WithObserver(observer),
	)
	ctrl = gifticon_list.NewListController(r.gateway, r.messages, r.logger, r.metrics, opts...)

	s := &Screen{ID: id, Controller: ctrl, MountedAt: r.now()}
	r.mu.Lock()
	r.screens[id] = s
	r.mu.Unlock()
	r.metrics.RecordScreenMounted(ctx)

	r.logger.Info(ctx, "Screen mounted", map[string]interface{}{
		"screen_id": id,
		"category":  initial.String(),
	})

	r.identify.Add(1)
	go r.resolveIdentity(context.WithoutCancel(ctx), id, ctrl)

	if err := ctrl.LoadPage(ctx, true); err != nil {
		r.logger.Warn(ctx, "Initial page load failed", map[string]interface{}{
			"screen_id": id,
			"error":     err.Error(),
		})
	}
	return s, nil
}

func (r *Registry) resolveIdentity(ctx context.Context, screenID string, ctrl *gifticon_list.ListController) {
	defer r.identify.Done()
	if r.identity == nil {
		return
	}

	userID, ok, err := r.identity.CurrentUserID(ctx)
	if err != nil {
		r.logger.Error(ctx, "Failed to resolve current user", err, map[string]interface{}{
			"screen_id": screenID,
		})
		return
	}
	if !ok {
		r.logger.Debug(ctx, "Current user is unknown", map[string]interface{}{
			"screen_id": screenID,
		})
		return
	}
	ctrl.SetCurrentUserID(userID)
}

// Get 画面を取得する
func (r *Registry) Get(id string) (*Screen, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.screens[id]
	if !ok {
		return nil, ErrScreenNotFound
	}
	return s, nil
}

// Focus 画面が再表示されたときに先頭ページから読み直す
func (r *Registry) Focus(ctx context.Context, id string) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}
	return s.Controller.Focus(ctx)
}

// Unmount 画面を破棄する
func (r *Registry) Unmount(ctx context.Context, id string) error {
	r.mu.Lock()
	_, ok := r.screens[id]
	delete(r.screens, id)
	r.mu.Unlock()
	if !ok {
		return ErrScreenNotFound
	}

	r.publisher.Close(id)
	r.metrics.RecordScreenUnmounted(ctx)
	r.logger.Info(ctx, "Screen unmounted", map[string]interface{}{
		"screen_id": id,
	})
	return nil
}

// Count マウント中の画面数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.screens)
}

// Close すべての画面を破棄し、ユーザーIDの解決が終わるのを待つ
func (r *Registry) Close(ctx context.Context) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.screens))
	for id := range r.screens {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		_ = r.Unmount(ctx, id)
	}
	r.identify.Wait()
}
