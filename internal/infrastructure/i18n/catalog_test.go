package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gifticon-wallet/internal/application/gifticon_list"
)

var _ gifticon_list.Messages = (*Catalog)(nil)

func TestNewCatalog(t *testing.T) {
	tests := []struct {
		name    string
		locale  string
		want    string
		wantErr error
	}{
		{name: "正常系: 既定は韓国語", locale: "", want: "ko"},
		{name: "正常系: 英語", locale: "en", want: "en"},
		{name: "異常系: 未対応", locale: "ja", wantErr: ErrUnsupportedLocale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCatalog(tt.locale)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Locale())
		})
	}
}

func TestCatalog_Text(t *testing.T) {
	ko, err := NewCatalog("ko")
	require.NoError(t, err)

	tests := []struct {
		name   string
		key    string
		params map[string]string
		want   string
	}{
		{
			name: "正常系: パラメータなし",
			key:  gifticon_list.MsgFetchNetworkError,
			want: "네트워크 연결을 확인해주세요. 서버에 연결할 수 없습니다.",
		},
		{
			name:   "正常系: ステータスの埋め込み",
			key:    gifticon_list.MsgFetchServerError,
			params: map[string]string{"status": "500"},
			want:   "서버 오류가 발생했습니다 (500). 잠시 후 다시 시도해주세요.",
		},
		{
			name:   "正常系: 残高超過",
			key:    gifticon_list.MsgAmountExceeds,
			params: map[string]string{"remaining": "5,000"},
			want:   "사용 가능한 금액은 5,000원입니다.",
		},
		{
			name:   "正常系: D-day",
			key:    gifticon_list.MsgLabelDaysLeft,
			params: map[string]string{"days": "3"},
			want:   "D-3",
		},
		{
			name:   "正常系: 共有者",
			key:    gifticon_list.MsgLabelSharedBy,
			params: map[string]string{"name": "민지"},
			want:   "민지님 공유",
		},
		{
			name: "正常系: タブ名",
			key:  "category.SHARE_BOX",
			want: "쉐어박스",
		},
		{
			name: "正常系: 使用済みタブの並び順",
			key:  "sort.USED_RECENT",
			want: "사용순",
		},
		{
			name: "正常系: 未定義のキー",
			key:  "unknown.key",
			want: "unknown.key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ko.Text(tt.key, tt.params))
		})
	}
}

func TestCatalog_FallbackToDefaultLocale(t *testing.T) {
	c, err := Parse([]byte(`
ko:
  use.conflict: 이미 사용된 기프티콘입니다.
  label.expired: 만료됨
en:
  label.expired: Expired
`), "en")
	require.NoError(t, err)

	assert.Equal(t, "Expired", c.Text(gifticon_list.MsgLabelExpired, nil))
	assert.Equal(t, "이미 사용된 기프티콘입니다.", c.Text(gifticon_list.MsgUseConflict, nil))
}

func TestCatalog_FormatAmount(t *testing.T) {
	ko, err := NewCatalog("ko")
	require.NoError(t, err)

	assert.Equal(t, "5,000", ko.FormatAmount(5000))
	assert.Equal(t, "1,234,567", ko.FormatAmount(1234567))
	assert.Equal(t, "0", ko.FormatAmount(0))
}

func TestCatalog_AllKeysTranslated(t *testing.T) {
	ko, err := NewCatalog("ko")
	require.NoError(t, err)
	en, err := NewCatalog("en")
	require.NoError(t, err)

	keys := []string{
		gifticon_list.MsgFetchInvalidResponse, gifticon_list.MsgFetchServerError,
		gifticon_list.MsgFetchNetworkError, gifticon_list.MsgFetchRequestError,
		gifticon_list.MsgMarkUsedFailed, gifticon_list.MsgMarkUsedBadRequest,
		gifticon_list.MsgUseAmountFailed, gifticon_list.MsgUseAmountBadReq,
		gifticon_list.MsgUseForbidden, gifticon_list.MsgUseNotFound,
		gifticon_list.MsgUseConflict, gifticon_list.MsgUseNetworkError,
		gifticon_list.MsgAmountInvalid, gifticon_list.MsgAmountExceeds,
		gifticon_list.MsgItemNotLoaded, gifticon_list.MsgUnsupportedType,
		gifticon_list.MsgSortNotSelectable, gifticon_list.MsgInvalidSelection,
		gifticon_list.MsgLabelExpired, gifticon_list.MsgLabelDueToday,
		gifticon_list.MsgLabelDaysLeft, gifticon_list.MsgLabelBalance,
		gifticon_list.MsgLabelSharedBy,
		"category.MY_BOX", "category.SHARE_BOX", "category.USED",
		"filter.ALL", "filter.PRODUCT", "filter.AMOUNT",
		"sort.RECENT", "sort.EXPIRY", "sort.USED_RECENT",
		"empty.MY_BOX", "empty.SHARE_BOX", "empty.USED",
	}
	for _, key := range keys {
		_, inKo := ko.messages[key]
		_, inEn := en.messages[key]
		assert.True(t, inKo, "ko: %s", key)
		assert.True(t, inEn, "en: %s", key)
	}
}
