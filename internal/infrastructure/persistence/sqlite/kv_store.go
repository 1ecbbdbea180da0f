package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrKeyNotFound キーが保存されていない
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore 端末内のキー・値ストア
type KeyValueStore struct {
	db     *DB
	tracer trace.Tracer
	now    func() time.Time
}

// NewKeyValueStore 新しいKeyValueStoreを作成
func NewKeyValueStore(db *DB) *KeyValueStore {
	return &KeyValueStore{
		db:     db,
		tracer: otel.Tracer("device-kv-store"),
		now:    time.Now,
	}
}

// Get キーの値を取得する
func (s *KeyValueStore) Get(ctx context.Context, key string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "KeyValueStore.Get")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.key", key),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "device_kv"),
	)

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM device_kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "key not found")
		return "", ErrKeyNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

// Set キーの値を保存する。既存の値は上書きする
func (s *KeyValueStore) Set(ctx context.Context, key, value string) error {
	ctx, span := s.tracer.Start(ctx, "KeyValueStore.Set")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.key", key),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.table", "device_kv"),
	)

	query := `
		INSERT INTO device_kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, value, s.now().UTC().Format(time.RFC3339Nano)); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete キーを削除する。存在しなくてもエラーにしない
func (s *KeyValueStore) Delete(ctx context.Context, key string) error {
	ctx, span := s.tracer.Start(ctx, "KeyValueStore.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.key", key),
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.table", "device_kv"),
	)

	if _, err := s.db.ExecContext(ctx, `DELETE FROM device_kv WHERE key = ?`, key); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
