package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// ページ取得数
	FetchCount metric.Int64Counter

	// 世代が古く破棄した取得結果の件数
	StaleResultCount metric.Int64Counter

	// 使用処理（使用完了・金額使用）の件数
	MutationCount metric.Int64Counter

	// usedAtを補完した件数
	EstimatedUsedAtCount metric.Int64Counter

	// 表示中の画面数
	ActiveScreens metric.Int64UpDownCounter

	// ギフティコンAPIの呼び出し時間
	APICallDuration metric.Float64Histogram

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー率
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	fetchCount, err := meter.Int64Counter(
		"gifticon_list_fetches_total",
		metric.WithDescription("Total number of gifticon list page fetches"),
	)
	if err != nil {
		return nil, err
	}

	staleResultCount, err := meter.Int64Counter(
		"gifticon_list_stale_results_total",
		metric.WithDescription("Total number of fetch results discarded because the list was reset"),
	)
	if err != nil {
		return nil, err
	}

	mutationCount, err := meter.Int64Counter(
		"gifticon_mutations_total",
		metric.WithDescription("Total number of gifticon use operations"),
	)
	if err != nil {
		return nil, err
	}

	estimatedUsedAtCount, err := meter.Int64Counter(
		"gifticon_used_at_estimated_total",
		metric.WithDescription("Total number of used gifticons whose usedAt was missing and filled locally"),
	)
	if err != nil {
		return nil, err
	}

	activeScreens, err := meter.Int64UpDownCounter(
		"list_screens_active",
		metric.WithDescription("Number of mounted list screens"),
	)
	if err != nil {
		return nil, err
	}

	apiCallDuration, err := meter.Float64Histogram(
		"gifticon_api_call_duration_seconds",
		metric.WithDescription("Gifticon API call duration in seconds"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		FetchCount:           fetchCount,
		StaleResultCount:     staleResultCount,
		MutationCount:        mutationCount,
		EstimatedUsedAtCount: estimatedUsedAtCount,
		ActiveScreens:        activeScreens,
		APICallDuration:      apiCallDuration,
		RequestCount:         requestCount,
		ResponseTime:         responseTime,
		ErrorCount:           errorCount,
	}, nil
}

// RecordFetch ページ取得を記録
func (m *Metrics) RecordFetch(ctx context.Context, category, result string) {
	m.FetchCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("category", category),
			attribute.String("result", result),
		),
	)
}

// RecordStaleResult 破棄した取得結果を記録
func (m *Metrics) RecordStaleResult(ctx context.Context, category string) {
	m.StaleResultCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("category", category),
		),
	)
}

// RecordMutation 使用処理を記録
func (m *Metrics) RecordMutation(ctx context.Context, operation, result string) {
	m.MutationCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}

// RecordEstimatedUsedAt usedAtの補完を記録
func (m *Metrics) RecordEstimatedUsedAt(ctx context.Context, n int) {
	if n <= 0 {
		return
	}
	m.EstimatedUsedAtCount.Add(ctx, int64(n))
}

// RecordScreenMounted 画面のマウントを記録
func (m *Metrics) RecordScreenMounted(ctx context.Context) {
	m.ActiveScreens.Add(ctx, 1)
}

// RecordScreenUnmounted 画面のアンマウントを記録
func (m *Metrics) RecordScreenUnmounted(ctx context.Context) {
	m.ActiveScreens.Add(ctx, -1)
}

// RecordAPICall ギフティコンAPIの呼び出しを記録
func (m *Metrics) RecordAPICall(ctx context.Context, endpoint string, status int, duration float64) {
	m.APICallDuration.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("endpoint", endpoint),
			attribute.Int("status", status),
		),
	)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
