package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	otelinfra "gifticon-wallet/internal/infrastructure/observability/otel"
)

// logLines 出力されたJSONログを読み取る
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		lines = append(lines, entry)
	}
	return lines
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		handler     echo.HandlerFunc
		wantErr     bool
		wantLevel   string
		wantStatus  float64
		wantMessage string
	}{
		{
			name:        "正常系: 完了をINFOで記録",
			handler:     func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
			wantLevel:   "INFO",
			wantStatus:  200,
			wantMessage: "HTTP request completed",
		},
		{
			name:        "正常系: 5xxのレスポンスはWARN",
			handler:     func(c echo.Context) error { return c.String(http.StatusBadGateway, "bad gateway") },
			wantLevel:   "WARN",
			wantStatus:  502,
			wantMessage: "HTTP request completed with server error",
		},
		{
			name:        "異常系: 未処理のエラーはERROR",
			handler:     func(c echo.Context) error { return errors.New("test error") },
			wantErr:     true,
			wantLevel:   "ERROR",
			wantMessage: "HTTP request failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := otelinfra.NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), &buf)

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/screens/abc/refresh", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetPath("/api/v1/screens/:id/refresh")
			c.SetParamNames("id")
			c.SetParamValues("abc")

			err := LoggingMiddleware(logger)(tt.handler)(c)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			lines := logLines(t, &buf)
			require.NotEmpty(t, lines)
			last := lines[len(lines)-1]
			assert.Equal(t, tt.wantLevel, last["level"])
			assert.Equal(t, tt.wantMessage, last["message"])
			fields, ok := last["fields"].(map[string]interface{})
			require.True(t, ok)
			if tt.wantStatus != 0 {
				assert.Equal(t, tt.wantStatus, fields["status_code"])
			}
			assert.Equal(t, "abc", fields["screen_id"])
			assert.Equal(t, "/api/v1/screens/:id/refresh", fields["route"])
		})
	}
}
