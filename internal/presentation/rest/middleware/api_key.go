package middleware

import (
	"crypto/subtle"
	"net/http"
	"net/netip"
	"strings"

	"github.com/labstack/echo/v4"

	"gifticon-wallet/internal/infrastructure/config"
	otelinfra "gifticon-wallet/internal/infrastructure/observability/otel"
)

// APIKeyHeader APIキーのヘッダー名
const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware 表示層APIのAPIキー認証ミドルウェア。
// APIキーが未設定なら検証しない。許可IPが設定されていればIPも検証する
func APIKeyMiddleware(cfg *config.PresentationConfig, logger *otelinfra.Logger) echo.MiddlewareFunc {
	allowed := parseAllowedIPs(cfg.AllowedIPs)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			if cfg.APIKey != "" {
				apiKey := c.Request().Header.Get(APIKeyHeader)
				if apiKey == "" {
					logger.Warn(ctx, "Missing X-API-Key header", nil)
					return c.JSON(http.StatusUnauthorized, ErrorResponse{
						Error:   "unauthorized",
						Message: "Missing X-API-Key header",
					})
				}
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(cfg.APIKey)) != 1 {
					logger.Warn(ctx, "Invalid API key", nil)
					return c.JSON(http.StatusUnauthorized, ErrorResponse{
						Error:   "unauthorized",
						Message: "Invalid API key",
					})
				}
			}

			if len(allowed) > 0 {
				clientIP := getClientIP(c)
				if !isIPAllowed(clientIP, allowed) {
					logger.Warn(ctx, "IP address not allowed", map[string]interface{}{
						"ip": clientIP,
					})
					return c.JSON(http.StatusForbidden, ErrorResponse{
						Error:   "forbidden",
						Message: "IP address not allowed",
					})
				}
			}

			return next(c)
		}
	}
}

// parseAllowedIPs 許可IPをプレフィックスに変換する。単一のアドレスは/32（/128）として扱う
func parseAllowedIPs(entries []string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return prefixes
}

// getClientIP クライアントのIPアドレスを取得
func getClientIP(c echo.Context) string {
	// X-Forwarded-Forヘッダーから取得（プロキシ経由の場合）
	if forwardedFor := c.Request().Header.Get("X-Forwarded-For"); forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}

	// X-Real-IPヘッダーから取得
	if realIP := c.Request().Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	// RemoteAddrから取得
	addr := c.Request().RemoteAddr
	if ap, err := netip.ParseAddrPort(addr); err == nil {
		return ap.Addr().String()
	}
	return addr
}

// isIPAllowed IPアドレスが許可リストに含まれているかチェック
func isIPAllowed(ip string, allowed []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range allowed {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
