package gifticon_list

import (
	"context"
	"io"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"gifticon-wallet/internal/domain/gifticon"
	otelinfra "gifticon-wallet/internal/infrastructure/observability/otel"
)

// MockGateway モックゲートウェイ
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) FetchAvailable(ctx context.Context, q gifticon.AvailableQuery) (*gifticon.Page, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gifticon.Page), args.Error(1)
}

func (m *MockGateway) FetchUsed(ctx context.Context, q gifticon.UsedQuery) (*gifticon.Page, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gifticon.Page), args.Error(1)
}

func (m *MockGateway) MarkProductUsed(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGateway) UseAmount(ctx context.Context, id int64, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

// fakeMessages キーとパラメータをそのまま文字列にするカタログ
type fakeMessages struct{}

func (fakeMessages) Text(key string, params map[string]string) string {
	if len(params) == 0 {
		return key
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return key + "(" + strings.Join(parts, ",") + ")"
}

func (fakeMessages) FormatAmount(amount int64) string {
	return strconv.FormatInt(amount, 10)
}

var (
	kst      = time.FixedZone("KST", 9*60*60)
	fixedNow = time.Date(2026, 10, 15, 13, 0, 0, 0, kst)
)

func newTestController(t *testing.T, gw gifticon.Gateway, opts ...Option) *ListController {
	t.Helper()
	logger := otelinfra.NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), io.Discard)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(kst),
	}
	return NewListController(gw, fakeMessages{}, logger, metrics, append(base, opts...)...)
}

func newProduct(id int64, scope gifticon.Scope) *gifticon.Gifticon {
	return gifticon.MustNewGifticon(gifticon.Params{
		ID:         id,
		Name:       "아메리카노 T",
		BrandName:  "스타벅스",
		Type:       gifticon.GifticonTypeProduct,
		Scope:      scope,
		ExpiryDate: fixedNow.AddDate(0, 0, 30),
		OwnerID:    1,
		CreatedAt:  fixedNow.AddDate(0, 0, -1),
	})
}

func newAmount(id, remaining int64) *gifticon.Gifticon {
	return gifticon.MustNewGifticon(gifticon.Params{
		ID:              id,
		Name:            "모바일 금액권",
		BrandName:       "CU",
		Type:            gifticon.GifticonTypeAmount,
		Scope:           gifticon.ScopeMyBox,
		RemainingAmount: remaining,
		ExpiryDate:      fixedNow.AddDate(0, 1, 0),
		OwnerID:         1,
	})
}

func newPage(hasNext bool, cursor string, items ...*gifticon.Gifticon) *gifticon.Page {
	return &gifticon.Page{
		Items:       append([]*gifticon.Gifticon{}, items...),
		HasNextPage: hasNext,
		NextCursor:  cursor,
	}
}

func itemIDs(items []*gifticon.Gifticon) []int64 {
	ids := make([]int64, 0, len(items))
	for _, g := range items {
		ids = append(ids, g.ID())
	}
	return ids
}

// myBoxFirstPage マイボックス・全種別・登録順の先頭ページ
var myBoxFirstPage = gifticon.AvailableQuery{
	Size:  10,
	Scope: gifticon.ScopeMyBox,
	Sort:  gifticon.SortCreatedDesc,
}
