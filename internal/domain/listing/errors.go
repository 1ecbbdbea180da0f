package listing

import "errors"

var (
	// ErrInvalidCategory 無効なタブ
	ErrInvalidCategory = errors.New("invalid category")

	// ErrInvalidFilter 無効な種別フィルタ
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInvalidSortKey 無効な並び順
	ErrInvalidSortKey = errors.New("invalid sort key")

	// ErrSortNotSelectable このタブでは選択できない並び順
	ErrSortNotSelectable = errors.New("sort key is not selectable for category")
)
