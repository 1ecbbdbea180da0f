package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"gifticon-wallet/internal/application/gifticon_list"
	"gifticon-wallet/internal/application/screen"
	"gifticon-wallet/internal/domain/listing"
	otelinfra "gifticon-wallet/internal/infrastructure/observability/otel"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// sentinelErrors ドメインエラーとHTTPステータスの対応
var sentinelErrors = []struct {
	err    error
	status int
	code   string
}{
	{screen.ErrScreenNotFound, http.StatusNotFound, "screen_not_found"},
	{listing.ErrInvalidCategory, http.StatusBadRequest, "invalid_category"},
	{listing.ErrInvalidFilter, http.StatusBadRequest, "invalid_filter"},
	{listing.ErrInvalidSortKey, http.StatusBadRequest, "invalid_sort_key"},
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			// エラーハンドリング
			return handleError(c, err, logger)
		}
	}
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	// 一覧操作のエラー。Messageは利用者向けの文言
	if listErr, ok := gifticon_list.AsListError(err); ok {
		status := listErrorStatus(listErr)
		fields := map[string]interface{}{
			"kind":        string(listErr.Kind),
			"op":          listErr.Op,
			"status_code": listErr.StatusCode,
		}
		if status >= http.StatusInternalServerError {
			logger.Error(ctx, "Gifticon list operation failed", err, fields)
		} else {
			logger.Warn(ctx, "Gifticon list operation rejected", fields)
		}
		return c.JSON(status, ErrorResponse{
			Error:   string(listErr.Kind),
			Message: listErr.Message,
			Code:    listErr.Op,
		})
	}

	for _, s := range sentinelErrors {
		if errors.Is(err, s.err) {
			logger.Warn(ctx, "Request rejected", map[string]interface{}{
				"error": err.Error(),
				"code":  s.code,
			})
			return c.JSON(s.status, ErrorResponse{
				Error:   s.code,
				Message: err.Error(),
			})
		}
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message := ""
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, ErrorResponse{
			Error:   http.StatusText(httpErr.Code),
			Message: message,
		})
	}

	// 予期しないエラー
	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_server_error",
		Message: "An unexpected error occurred",
	})
}

// listErrorStatus ListErrorの種類をHTTPステータスに変換する。
// ギフティコンAPIの4xxのうち利用者の操作に起因するものはそのまま返す
func listErrorStatus(e *gifticon_list.ListError) int {
	switch e.Kind {
	case gifticon_list.KindInvalidAmount, gifticon_list.KindSortNotSelectable, gifticon_list.KindInvalidSelection:
		return http.StatusBadRequest
	case gifticon_list.KindAmountExceedsBalance, gifticon_list.KindUnsupportedType:
		return http.StatusUnprocessableEntity
	case gifticon_list.KindItemNotLoaded:
		return http.StatusNotFound
	case gifticon_list.KindServer:
		switch e.StatusCode {
		case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict:
			return e.StatusCode
		}
		return http.StatusBadGateway
	case gifticon_list.KindInvalidResponse:
		return http.StatusBadGateway
	case gifticon_list.KindNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
