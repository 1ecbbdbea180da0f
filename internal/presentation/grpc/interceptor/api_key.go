package interceptor

import (
	"context"
	"crypto/subtle"
	"net/netip"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"gifticon-wallet/internal/infrastructure/config"
	otelinfra "gifticon-wallet/internal/infrastructure/observability/otel"
)

// healthServicePrefix APIキーなしで呼び出せるヘルスチェックサービス
const healthServicePrefix = "/grpc.health.v1.Health/"

// APIKeyInterceptor APIキー認証インターセプター。
// APIキーが未設定なら検証しない。ヘルスチェックは検証の対象外
func APIKeyInterceptor(cfg *config.PresentationConfig, logger *otelinfra.Logger) grpc.UnaryServerInterceptor {
	allowed := parseAllowedIPs(cfg.AllowedIPs)

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if strings.HasPrefix(info.FullMethod, healthServicePrefix) {
			return handler(ctx, req)
		}

		md, _ := metadata.FromIncomingContext(ctx)

		if cfg.APIKey != "" {
			apiKeys := md.Get("x-api-key")
			if len(apiKeys) == 0 {
				logger.Warn(ctx, "Missing X-API-Key metadata", map[string]interface{}{
					"method": info.FullMethod,
				})
				return nil, status.Error(codes.Unauthenticated, "missing X-API-Key metadata")
			}
			if subtle.ConstantTimeCompare([]byte(apiKeys[0]), []byte(cfg.APIKey)) != 1 {
				logger.Warn(ctx, "Invalid API key", map[string]interface{}{
					"method": info.FullMethod,
				})
				return nil, status.Error(codes.Unauthenticated, "invalid API key")
			}
		}

		if len(allowed) > 0 {
			clientIP := clientIPFromContext(ctx, md)
			if !isIPAllowed(clientIP, allowed) {
				logger.Warn(ctx, "IP address not allowed", map[string]interface{}{
					"ip": clientIP,
				})
				return nil, status.Error(codes.PermissionDenied, "IP address not allowed")
			}
		}

		return handler(ctx, req)
	}
}

// parseAllowedIPs 許可リストをプレフィックスに変換。単一アドレスは全ビット一致のプレフィックスにする
func parseAllowedIPs(entries []string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			addr = addr.Unmap()
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return prefixes
}

// clientIPFromContext クライアントのIPアドレスを取得。
// x-forwarded-for、x-real-ip、接続元アドレスの順に見る
func clientIPFromContext(ctx context.Context, md metadata.MD) string {
	if forwardedFor := md.Get("x-forwarded-for"); len(forwardedFor) > 0 {
		first, _, _ := strings.Cut(forwardedFor[0], ",")
		return strings.TrimSpace(first)
	}
	if realIP := md.Get("x-real-ip"); len(realIP) > 0 {
		return realIP[0]
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		if addrPort, err := netip.ParseAddrPort(p.Addr.String()); err == nil {
			return addrPort.Addr().String()
		}
	}
	return ""
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
