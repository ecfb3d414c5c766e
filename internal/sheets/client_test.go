package sheets

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestFetchCSV_Success проверяет загрузку и парсинг CSV.
func TestFetchCSV_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("филиал,РЭС,id,имя\nЮжный,Центральный,100,Иванов\nЮжный,Западный,200,Петров\n"))
	}))
	defer srv.Close()

	client := New(5*time.Second, slog.Default())
	rows, err := client.FetchCSV(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchCSV ошибка: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("rows = %d, ожидалось 3", len(rows))
	}
	if rows[1][0] != "Южный" || rows[1][3] != "Иванов" {
		t.Errorf("rows[1] = %v, ожидалась строка Иванова", rows[1])
	}
}

// TestFetchCSV_RaggedRows проверяет, что строки с разным числом полей
// допустимы (ручная таблица).
func TestFetchCSV_RaggedRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("a,b,c\nодно\nраз,два,три,четыре\n"))
	}))
	defer srv.Close()

	client := New(5*time.Second, slog.Default())
	rows, err := client.FetchCSV(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchCSV ошибка: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("rows = %d, ожидалось 3", len(rows))
	}
	if len(rows[1]) != 1 || len(rows[2]) != 4 {
		t.Errorf("длины строк = %d, %d; ожидались 1 и 4", len(rows[1]), len(rows[2]))
	}
}

// TestFetchCSV_HTTPError проверяет, что не-2xx статус — ErrFetch.
func TestFetchCSV_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := New(5*time.Second, slog.Default())
	_, err := client.FetchCSV(context.Background(), srv.URL)
	if !errors.Is(err, ErrFetch) {
		t.Errorf("err = %v, ожидался ErrFetch", err)
	}
}

// TestFetchCSV_NetworkError проверяет, что сетевая ошибка — ErrFetch.
func TestFetchCSV_NetworkError(t *testing.T) {
	// Сервер сразу закрыт: соединение откажет
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	srv.Close()

	client := New(2*time.Second, slog.Default())
	_, err := client.FetchCSV(context.Background(), srv.URL)
	if !errors.Is(err, ErrFetch) {
		t.Errorf("err = %v, ожидался ErrFetch", err)
	}
}

// TestFetchCSV_ContextCancelled проверяет прерывание по контексту.
func TestFetchCSV_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(time.Second)
		_, _ = w.Write([]byte("a,b\n"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := New(5*time.Second, slog.Default())
	if _, err := client.FetchCSV(ctx, srv.URL); err == nil {
		t.Error("ожидалась ошибка при отменённом контексте")
	}
}
