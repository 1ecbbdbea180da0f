package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "gifticon-wallet/internal/infrastructure/observability/otel"
)

// MetricsMiddleware メトリクス記録ミドルウェア。
// ErrorHandlerMiddlewareより外側に置き、変換後のステータスで記録する
func MetricsMiddleware(metrics *otelinfra.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()
			method := c.Request().Method

			// ルートが決まるのはnextの後
			err := next(c)

			route := c.Path()
			metrics.RecordRequest(ctx, method, route)
			metrics.RecordResponseTime(ctx, method, route, time.Since(start).Seconds())

			if errorType := statusErrorType(c.Response().Status, err); errorType != "" {
				metrics.RecordError(ctx, errorType)
			}

			return err
		}
	}
}

// statusErrorType 4xxはclient_error、5xxと未処理のエラーはserver_error
func statusErrorType(status int, err error) string {
	switch {
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	case err != nil:
		return "server_error"
	default:
		return ""
	}
}
