package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// serveLogged пропускает один запрос через RequestLogger и возвращает
// JSON-строку лога.
func serveLogged(t *testing.T, path string, status int) string {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("тело ответа"))
	}))

	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	return buf.String()
}

// TestRequestLogger_Levels проверяет уровень лога по пути и статусу:
// self-ping не засоряет логи, ошибки поднимаются до WARN/ERROR.
func TestRequestLogger_Levels(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		level  string
	}{
		{"self-ping на DEBUG", "/ping", http.StatusOK, `"level":"DEBUG"`},
		{"probe на INFO", "/health/live", http.StatusOK, `"level":"INFO"`},
		{"4xx на WARN", "/nope", http.StatusNotFound, `"level":"WARN"`},
		{"5xx на ERROR", "/health/ready", http.StatusServiceUnavailable, `"level":"ERROR"`},
		{"ошибка на /ping важнее DEBUG", "/ping", http.StatusInternalServerError, `"level":"ERROR"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serveLogged(t, tt.path, tt.status)
			if !strings.Contains(got, tt.level) {
				t.Errorf("лог %q без уровня %s", got, tt.level)
			}
		})
	}
}

// TestRequestLogger_Attrs проверяет атрибуты записи: метод, путь,
// статус, размер ответа, component.
func TestRequestLogger_Attrs(t *testing.T) {
	got := serveLogged(t, "/health/live", http.StatusOK)

	for _, want := range []string{
		`"method":"GET"`,
		`"path":"/health/live"`,
		`"status":200,`,
		`"component":"http_server"`,
		`"bytes":`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("лог %q без атрибута %s", got, want)
		}
	}
}
