package gifticon

import (
	"fmt"
)

// Scope ギフティコンの保管区分を表す値オブジェクト
type Scope string

const (
	ScopeMyBox    Scope = "MY_BOX"    // マイボックス
	ScopeShareBox Scope = "SHARE_BOX" // シェアボックス
	ScopeUsed     Scope = "USED"      // 使用済み
	// ScopeAll 取得条件専用。レコードに付与されることはない
	ScopeAll Scope = "ALL"
)

// NewScope 新しいScopeを作成（レコード用のためALLは受け付けない）
func NewScope(s string) (Scope, error) {
	switch s {
	case "MY_BOX", "SHARE_BOX", "USED":
		return Scope(s), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidScope, s)
	}
}

// String 文字列表現を返す
func (s Scope) String() string {
	return string(s)
}

// Valid レコードの区分として有効かどうかを返す
func (s Scope) Valid() bool {
	switch s {
	case ScopeMyBox, ScopeShareBox, ScopeUsed:
		return true
	default:
		return false
	}
}

// IsUsed 使用済みかどうかを返す
func (s Scope) IsUsed() bool {
	return s == ScopeUsed
}
