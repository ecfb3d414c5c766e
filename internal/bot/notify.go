// notify.go — рассылка уведомлений о несанкционированной ВОЛС.
// Получатели — все пользователи каталога с тем же ключом зоны
// ответственности, что у отправителя. Доставка best-effort:
// сбой у одного получателя не прерывает рассылку остальным.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lineops/vols-bot/internal/directory"
	"github.com/lineops/vols-bot/internal/domain/model"
)

// Prometheus-метрики рассылки.
var (
	notificationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vb_notifications_total",
		Help: "Общее количество разосланных уведомлений о ВОЛС.",
	})
	notifyDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vb_notify_deliveries_total",
		Help: "Количество доставок уведомлений получателям (по статусу).",
	}, []string{"status"})
)

// fanOutNotification рассылает уведомление коллегам отправителя и
// сообщает отправителю агрегированный результат «Доставлено: Y из X».
// Завершает поток уведомления: сессия возвращается в главное меню.
func (e *Engine) fanOutNotification(ctx context.Context, msg LocationMessage, perm model.UserPermission, sess *model.SessionState, snap *directory.Snapshot, logger *slog.Logger) {
	tp := sess.NotifyTargetTP
	line := sess.NotifyTargetLine

	sess.NotifyTargetTP = ""
	sess.NotifyTargetLine = ""
	sess.Step = model.StepBranchSelected

	peers := snap.PeersByResponsibility(perm.ResponsibilityKey, perm.UserID)
	if len(peers) == 0 {
		e.send(ctx, msg.ChatID, msgNoPeers, mainMenuKeyboard())
		return
	}

	notificationsTotal.Inc()
	text := notificationText(perm, tp, line)

	delivered := 0
	for _, peer := range peers {
		// Личный чат: chat id совпадает с id пользователя
		if err := e.deliverToPeer(ctx, peer.UserID, text, msg.Latitude, msg.Longitude); err != nil {
			notifyDeliveriesTotal.WithLabelValues("error").Inc()
			logger.Warn("Уведомление не доставлено получателю",
				slog.Int64("peer_id", peer.UserID),
				slog.String("error", err.Error()),
			)
			continue
		}
		notifyDeliveriesTotal.WithLabelValues("success").Inc()
		delivered++
	}

	logger.Info("Рассылка уведомления завершена",
		slog.String("tp", tp),
		slog.String("line", line),
		slog.Int("delivered", delivered),
		slog.Int("recipients", len(peers)),
	)

	report := fmt.Sprintf("Уведомление доставлено: %d из %d.", delivered, len(peers))
	e.send(ctx, msg.ChatID, report, mainMenuKeyboard())
}

// deliverToPeer отправляет одному получателю текст и геолокацию.
// Ошибка любой из двух отправок — недоставка этому получателю.
func (e *Engine) deliverToPeer(ctx context.Context, chatID int64, text string, lat, lon float64) error {
	if err := e.sender.SendText(ctx, chatID, text, nil); err != nil {
		return fmt.Errorf("отправка текста: %w", err)
	}
	if err := e.sender.SendLocation(ctx, chatID, lat, lon); err != nil {
		return fmt.Errorf("отправка геолокации: %w", err)
	}
	return nil
}
