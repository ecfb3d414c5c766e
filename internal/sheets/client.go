// Пакет sheets — загрузка табличных данных из опубликованных таблиц.
// HTTP-клиент с ограниченным таймаутом + парсинг CSV в строки полей.
// Любая сетевая или парсинговая ошибка — FetchError: восстановимая,
// пользователь повторяет ввод, шаг диалога не продвигается.
package sheets

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrFetch — табличный источник недоступен или вернул некорректные данные.
// Для пользователя это «попробуйте ещё раз», не фатальная ошибка.
var ErrFetch = errors.New("табличный источник недоступен")

// Prometheus-метрики загрузки таблиц.
var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vb_sheet_fetch_total",
		Help: "Общее количество загрузок табличных источников (по статусу).",
	}, []string{"status"})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vb_sheet_fetch_duration_seconds",
		Help:    "Длительность загрузки и парсинга табличного источника.",
		Buckets: prometheus.DefBuckets,
	})
)

// Client — HTTP-клиент табличных источников.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиент с ограниченным таймаутом запросов.
// timeout — общий таймаут загрузки одной таблицы (VB_FETCH_TIMEOUT).
func New(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
			},
		},
		logger: logger.With(slog.String("component", "sheets_client")),
	}
}

// FetchCSV загружает таблицу по прямой CSV-ссылке и возвращает строки полей.
// Заголовок не пропускается — это ответственность вызывающего кода.
// Количество полей в строках может различаться (ручная таблица).
func (c *Client) FetchCSV(ctx context.Context, url string) ([][]string, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		fetchTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("создание запроса к таблице: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		fetchTotal.WithLabelValues("network_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fetchTotal.WithLabelValues("http_error").Inc()
		return nil, fmt.Errorf("%w: статус %d", ErrFetch, resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	// Ручные таблицы: строки с разным числом полей допустимы
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		fetchTotal.WithLabelValues("parse_error").Inc()
		return nil, fmt.Errorf("%w: парсинг CSV: %v", ErrFetch, err)
	}

	duration := time.Since(start)
	fetchTotal.WithLabelValues("success").Inc()
	fetchDuration.Observe(duration.Seconds())

	c.logger.Debug("Таблица загружена",
		slog.String("url", url),
		slog.Int("rows", len(rows)),
		slog.Duration("duration", duration),
	)

	return rows, nil
}
