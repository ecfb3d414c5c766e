// Пакет telegram — адаптер messaging-платформы поверх Bot API.
// Реализует исходящую границу диалоговой машины (bot.Sender):
// текстовые сообщения с reply-клавиатурами, геолокация, запрос
// геолокации, разбиение длинных сообщений.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxMessageLen — порог разбиения исходящего сообщения.
// Bot API ограничивает сообщение 4096 символами; запас на служебные
// символы.
const maxMessageLen = 4000

// Client — клиент Bot API.
type Client struct {
	api    *tgbotapi.BotAPI
	logger *slog.Logger
}

// New создаёт клиент Bot API и проверяет токен (getMe).
func New(token string, logger *slog.Logger) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("инициализация Bot API: %w", err)
	}

	logger = logger.With(slog.String("component", "telegram_client"))
	logger.Info("Bot API инициализирован",
		slog.String("username", api.Self.UserName),
	)

	return &Client{api: api, logger: logger}, nil
}

// SendText отправляет текст с клавиатурой быстрого выбора.
// Тело длиннее maxMessageLen разбивается по границам строк на
// последовательные сообщения; клавиатура прикрепляется к последнему.
func (c *Client) SendText(ctx context.Context, chatID int64, text string, keyboard [][]string) error {
	chunks := splitMessage(text, maxMessageLen)

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg := tgbotapi.NewMessage(chatID, chunk)
		if i == len(chunks)-1 && keyboard != nil {
			msg.ReplyMarkup = replyKeyboard(keyboard)
		}

		if _, err := c.api.Send(msg); err != nil {
			return fmt.Errorf("отправка сообщения в чат %d: %w", chatID, err)
		}
	}
	return nil
}

// SendLocation отправляет геолокацию.
func (c *Client) SendLocation(ctx context.Context, chatID int64, lat, lon float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Send(tgbotapi.NewLocation(chatID, lat, lon)); err != nil {
		return fmt.Errorf("отправка геолокации в чат %d: %w", chatID, err)
	}
	return nil
}

// SendLocationRequest отправляет текст с кнопкой запроса геолокации
// и кнопкой «Назад».
func (c *Client) SendLocationRequest(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonLocation("Отправить геолокацию"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Назад"),
		),
	)

	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("запрос геолокации в чат %d: %w", chatID, err)
	}
	return nil
}

// replyKeyboard собирает reply-клавиатуру из рядов подписей.
func replyKeyboard(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	buttonRows := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		buttonRows = append(buttonRows, buttons)
	}

	kb := tgbotapi.NewReplyKeyboard(buttonRows...)
	kb.ResizeKeyboard = true
	return kb
}

// splitMessage разбивает текст на части не длиннее limit символов по
// границам строк, сохраняя порядок. Лимит платформы задан в символах,
// не в байтах: кириллический текст нельзя мерить len(). Строка никогда
// не рвётся между частями: строка длиннее limit уходит отдельной
// частью целиком.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	lines := strings.Split(text, "\n")
	var chunks []string
	var current strings.Builder
	currentRunes := 0

	for _, line := range lines {
		lineRunes := utf8.RuneCountInString(line)
		// +1 — символ перевода строки при склейке
		if currentRunes > 0 && currentRunes+1+lineRunes > limit {
			chunks = append(chunks, current.String())
			current.Reset()
			currentRunes = 0
		}
		if currentRunes > 0 {
			current.WriteByte('\n')
			currentRunes++
		}
		current.WriteString(line)
		currentRunes += lineRunes
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
