package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gifticon-wallet/internal/infrastructure/persistence/sqlite"
)

// 端末ストアのキー
const (
	KeyUserID      = "userId"
	KeyAccessToken = "accessToken"
)

// ErrInvalidUserID 保存されたユーザーIDが数値ではない
var ErrInvalidUserID = errors.New("invalid stored user id")

// KeyValue 端末内のキー・値ストア
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store 端末に保存されたセッションから現在のユーザーを解決する
type Store struct {
	kv     KeyValue
	parser *jwt.Parser
	tracer trace.Tracer
}

// NewStore 新しいStoreを作成
func NewStore(kv KeyValue) *Store {
	return &Store{
		kv:     kv,
		parser: jwt.NewParser(),
		tracer: otel.Tracer("identity-store"),
	}
}

// CurrentUserID 現在のユーザーIDを返す。
// 保存されたuserIdを優先し、なければアクセストークンのuser_id/subクレームから求める。
// 署名鍵は持たないためトークンは検証せずに読む
func (s *Store) CurrentUserID(ctx context.Context) (int64, bool, error) {
	ctx, span := s.tracer.Start(ctx, "Store.CurrentUserID")
	defer span.End()

	stored, err := s.get(ctx, KeyUserID)
	if err != nil {
		return 0, false, err
	}
	if stored != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(stored), 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("%w: %q", ErrInvalidUserID, stored)
		}
		span.SetAttributes(attribute.String("source", "stored"))
		return id, true, nil
	}

	token, err := s.AccessToken(ctx)
	if err != nil || token == "" {
		return 0, false, err
	}

	id, ok := s.userIDFromToken(token)
	if !ok {
		span.SetAttributes(attribute.String("source", "none"))
		return 0, false, nil
	}
	span.SetAttributes(attribute.String("source", "token"))
	return id, true, nil
}

// AccessToken 保存されたアクセストークンを返す。未保存なら空文字
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, KeyAccessToken)
}

// SaveSession ユーザーIDとアクセストークンを保存する。空の値は保存しない
func (s *Store) SaveSession(ctx context.Context, userID, accessToken string) error {
	if userID != "" {
		if _, err := strconv.ParseInt(userID, 10, 64); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidUserID, userID)
		}
		if err := s.kv.Set(ctx, KeyUserID, userID); err != nil {
			return err
		}
	}
	if accessToken != "" {
		if err := s.kv.Set(ctx, KeyAccessToken, accessToken); err != nil {
			return err
		}
	}
	return nil
}

// ClearSession 保存されたセッションを削除する
func (s *Store) ClearSession(ctx context.Context) error {
	if err := s.kv.Delete(ctx, KeyUserID); err != nil {
		return err
	}
	return s.kv.Delete(ctx, KeyAccessToken)
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	value, err := s.kv.Get(ctx, key)
	if errors.Is(err, sqlite.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) userIDFromToken(token string) (int64, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := s.parser.ParseUnverified(token, claims); err != nil {
		return 0, false
	}

	for _, name := range []string{"user_id", "sub"} {
		switch v := claims[name].(type) {
		case string:
			if id, err := strconv.ParseInt(v, 10, 64); err == nil {
				return id, true
			}
		case float64:
			if v == float64(int64(v)) {
				return int64(v), true
			}
		}
	}
	return 0, false
}
