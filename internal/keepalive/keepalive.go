// Пакет keepalive — периодический self-ping внешнего URL сервиса.
// Бесплатные хостинги усыпляют контейнер без входящего трафика;
// long polling исходящий и от усыпления не спасает.
package keepalive

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Pinger — периодический self-ping.
type Pinger struct {
	// selfURL — внешний URL сервиса как задан конфигурацией;
	// пустая строка означает «self-ping выключен»
	selfURL  string
	interval time.Duration
	client   *http.Client
	logger   *slog.Logger
}

// New создаёт Pinger. selfURL — внешний URL сервиса; пустая строка
// означает, что self-ping выключен (Start сразу вернётся).
func New(selfURL string, interval time.Duration, logger *slog.Logger) *Pinger {
	return &Pinger{
		selfURL:  selfURL,
		interval: interval,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger.With(slog.String("component", "keepalive")),
	}
}

// Start пингует /ping каждые interval до отмены контекста.
// Блокирует вызывающую горутину.
func (p *Pinger) Start(ctx context.Context) {
	if p.selfURL == "" {
		p.logger.Info("Self-ping выключен: внешний URL не задан")
		return
	}

	url := strings.TrimRight(p.selfURL, "/") + "/ping"
	p.logger.Info("Self-ping запущен",
		slog.String("url", url),
		slog.Duration("interval", p.interval),
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Self-ping остановлен")
			return
		case <-ticker.C:
			p.ping(ctx, url)
		}
	}
}

// ping выполняет один self-ping. Ошибки только логируются.
func (p *Pinger) ping(ctx context.Context, url string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		p.logger.Warn("Self-ping: ошибка создания запроса", slog.String("error", err.Error()))
		return
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("Self-ping не удался", slog.String("error", err.Error()))
		return
	}
	defer resp.Body.Close()

	p.logger.Debug("Self-ping выполнен", slog.Int("status", resp.StatusCode))
}
