// readiness.go — проверка доступности табличного источника для
// readiness probe. Дешёвый GET к таблице каталога доступа: если
// каталог недоступен, бот не может проверить ни один доступ.
package service

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const statusFail = "fail"

// SheetsReadinessChecker — проверка доступности табличного источника.
type SheetsReadinessChecker struct {
	url    string
	client *http.Client
}

// NewSheetsReadinessChecker создаёт checker доступности табличного источника.
// url — нормализованный CSV-URL каталога доступа.
func NewSheetsReadinessChecker(url string, timeout time.Duration) *SheetsReadinessChecker {
	return &SheetsReadinessChecker{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// CheckReady проверяет доступность табличного источника.
func (s *SheetsReadinessChecker) CheckReady() (status, message string) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return statusFail, "ошибка создания запроса: " + err.Error()
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return statusFail, fmt.Sprintf("табличный источник недоступен: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusFail, fmt.Sprintf("табличный источник вернул статус %d", resp.StatusCode)
	}

	return "ok", "табличный источник доступен"
}
