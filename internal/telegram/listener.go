// listener.go — цикл long polling: маппинг апдейтов Bot API
// во входные события диалоговой машины.
package telegram

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lineops/vols-bot/internal/bot"
)

// Engine — входящая граница диалоговой машины.
type Engine interface {
	HandleText(ctx context.Context, msg bot.TextMessage)
	HandleLocation(ctx context.Context, msg bot.LocationMessage)
}

// Listen читает апдейты long polling'ом и передаёт их диалоговой
// машине до отмены контекста. Каждый апдейт обрабатывается в
// отдельной горутине: события разных пользователей идут параллельно,
// per-user порядок обеспечивает SessionStore.
func (c *Client) Listen(ctx context.Context, engine Engine) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30

	updates := c.api.GetUpdatesChan(cfg)
	c.logger.Info("Приём апдейтов запущен")

	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			c.logger.Info("Приём апдейтов остановлен")
			return
		case update, ok := <-updates:
			if !ok {
				c.logger.Info("Канал апдейтов закрыт")
				return
			}
			go c.dispatch(ctx, engine, update)
		}
	}
}

// dispatch преобразует апдейт в событие диалоговой машины.
// Апдейты без сообщения (редактирования, сервисные) игнорируются.
func (c *Client) dispatch(ctx context.Context, engine Engine, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	switch {
	case msg.Location != nil:
		engine.HandleLocation(ctx, bot.LocationMessage{
			UserID:    msg.From.ID,
			ChatID:    msg.Chat.ID,
			Latitude:  msg.Location.Latitude,
			Longitude: msg.Location.Longitude,
		})
	case msg.Text != "":
		engine.HandleText(ctx, bot.TextMessage{
			UserID: msg.From.ID,
			ChatID: msg.Chat.ID,
			Text:   msg.Text,
		})
	default:
		c.logger.Debug("Апдейт без текста и геолокации пропущен",
			slog.Int("update_id", update.UpdateID),
		)
	}
}
