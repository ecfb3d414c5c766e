// Пакет bot — диалоговая машина состояний vols-bot.
// Потребляет события messaging-платформы (текст, геолокация),
// сверяется с каталогом доступа и сессией пользователя, дёргает поиск
// или рассылку уведомлений и отвечает сообщениями с клавиатурами.
//
// Ввод, не соответствующий ожидаемой форме текущего шага, молча
// отбрасывается (случайные нажатия), но логируется и учитывается
// в метрике vb_dropped_updates_total.
package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lineops/vols-bot/internal/directory"
	"github.com/lineops/vols-bot/internal/domain/model"
	"github.com/lineops/vols-bot/internal/session"
)

// Prometheus-метрики диалоговой машины.
var (
	updatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vb_updates_total",
		Help: "Общее количество обработанных входящих событий (по типу).",
	}, []string{"kind"})

	droppedUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vb_dropped_updates_total",
		Help: "Количество отброшенных событий, не подходящих текущему шагу.",
	}, []string{"step"})
)

// TextMessage — входящее текстовое сообщение.
type TextMessage struct {
	UserID int64
	ChatID int64
	Text   string
}

// LocationMessage — входящее сообщение с геолокацией.
type LocationMessage struct {
	UserID    int64
	ChatID    int64
	Latitude  float64
	Longitude float64
}

// Sender — исходящая граница к messaging-платформе.
// keyboard — упорядоченные ряды текстовых кнопок быстрого выбора
// (nil — убрать клавиатуру).
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string, keyboard [][]string) error
	SendLocation(ctx context.Context, chatID int64, lat, lon float64) error
	// SendLocationRequest отправляет текст с кнопкой запроса геолокации.
	SendLocationRequest(ctx context.Context, chatID int64, text string) error
}

// AccessLoader — загрузчик каталога доступа.
// Каталог перечитывается на каждое событие: снапшот всегда свежий.
type AccessLoader interface {
	Load(ctx context.Context) (*directory.Snapshot, error)
}

// Datasets — провайдер датасетов ВОЛС.
type Datasets interface {
	Groups() []string
	Branches(group string) []string
	HasBranch(group, branch string) bool
	GroupOf(branch string) string
	Branch(ctx context.Context, group, branch string) ([]model.AssetRecord, error)
	Notification(ctx context.Context) ([]model.AssetRecord, error)
}

// Engine — диалоговая машина состояний.
type Engine struct {
	access   AccessLoader
	datasets Datasets
	store    session.Store
	sender   Sender
	// providerPhones — статический справочник телефонов провайдеров
	providerPhones string
	logger         *slog.Logger
}

// New создаёт диалоговую машину.
func New(access AccessLoader, datasets Datasets, store session.Store, sender Sender, providerPhones string, logger *slog.Logger) *Engine {
	return &Engine{
		access:         access,
		datasets:       datasets,
		store:          store,
		sender:         sender,
		providerPhones: providerPhones,
		logger:         logger.With(slog.String("component", "engine")),
	}
}

// HandleText обрабатывает текстовое событие.
// Обработка сериализуется per-user: одно событие пользователя
// завершается до начала следующего.
func (e *Engine) HandleText(ctx context.Context, msg TextMessage) {
	updatesTotal.WithLabelValues("text").Inc()
	e.store.WithLock(msg.UserID, func() {
		e.handleText(ctx, msg)
	})
}

// HandleLocation обрабатывает событие геолокации.
func (e *Engine) HandleLocation(ctx context.Context, msg LocationMessage) {
	updatesTotal.WithLabelValues("location").Inc()
	e.store.WithLock(msg.UserID, func() {
		e.handleLocation(ctx, msg)
	})
}

func (e *Engine) handleText(ctx context.Context, msg TextMessage) {
	logger := e.logger.With(
		slog.String("event_id", uuid.NewString()),
		slog.Int64("user_id", msg.UserID),
	)

	snap, err := e.access.Load(ctx)
	if err != nil {
		logger.Warn("Каталог доступа недоступен", slog.String("error", err.Error()))
		e.send(ctx, msg.ChatID, msgSourceUnavailable, nil)
		return
	}

	perm, err := snap.PermissionOf(msg.UserID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			// Ожидаемый случай, не аномалия
			e.send(ctx, msg.ChatID, msgAccessDenied, nil)
			return
		}
		logger.Error("Ошибка каталога доступа", slog.String("error", err.Error()))
		e.send(ctx, msg.ChatID, msgSourceUnavailable, nil)
		return
	}

	if msg.Text == cmdStart {
		e.enterStart(ctx, msg.ChatID, msg.UserID, perm)
		return
	}

	sess := e.store.Get(msg.UserID)
	if sess == nil {
		// Диалог не начат — игнорируем всё, кроме /start
		e.drop(logger, "no_session", msg.Text)
		return
	}

	if msg.Text == btnBack {
		e.goBack(ctx, msg.ChatID, perm, sess)
		return
	}

	logger = logger.With(slog.String("step", sess.Step.String()))

	switch sess.Step {
	case model.StepInit:
		e.stepInit(ctx, msg, sess, logger)
	case model.StepNetworkSelected:
		e.stepNetworkSelected(ctx, msg, sess, logger)
	case model.StepBranchSelected:
		e.stepBranchSelected(ctx, msg, perm, sess, logger)
	case model.StepAwaitTPInput:
		e.stepAwaitTPInput(ctx, msg, perm, sess, logger)
	case model.StepDisambiguous:
		e.stepDisambiguous(ctx, msg, sess, logger)
	case model.StepNotifyAwaitTP:
		e.stepNotifyAwaitTP(ctx, msg, perm, sess, logger)
	case model.StepNotifyDisambiguous:
		e.stepNotifyDisambiguous(ctx, msg, sess, logger)
	case model.StepNotifyAwaitVL:
		e.stepNotifyAwaitVL(ctx, msg, sess, logger)
	default:
		// StepNotifyWaitGeo ждёт геолокацию, StepViewPhones и
		// StepViewReport — только «Назад»
		e.drop(logger, sess.Step.String(), msg.Text)
	}
}

func (e *Engine) handleLocation(ctx context.Context, msg LocationMessage) {
	logger := e.logger.With(
		slog.String("event_id", uuid.NewString()),
		slog.Int64("user_id", msg.UserID),
	)

	snap, err := e.access.Load(ctx)
	if err != nil {
		logger.Warn("Каталог доступа недоступен", slog.String("error", err.Error()))
		e.send(ctx, msg.ChatID, msgSourceUnavailable, nil)
		return
	}

	perm, err := snap.PermissionOf(msg.UserID)
	if err != nil {
		e.send(ctx, msg.ChatID, msgAccessDenied, nil)
		return
	}

	sess := e.store.Get(msg.UserID)
	if sess == nil || sess.Step != model.StepNotifyWaitGeo {
		e.drop(logger, "unexpected_location", "")
		return
	}

	e.fanOutNotification(ctx, msg, perm, sess, snap, logger)
}

// enterStart сбрасывает сессию и входит в диалог по режиму доступа.
// UNRESTRICTED — выбор группы; группа фиксирована — выбор филиала;
// филиал фиксирован — сразу главное меню.
func (e *Engine) enterStart(ctx context.Context, chatID, userID int64, perm model.UserPermission) {
	sess := e.store.Start(userID)

	switch perm.Mode() {
	case model.ModeUnrestricted:
		if perm.VisibilityGroup != model.ScopeAll && perm.VisibilityGroup != "" {
			// Группа фиксирована каталогом, филиал выбирается
			sess.Group = perm.VisibilityGroup
			sess.Step = model.StepNetworkSelected
			e.send(ctx, chatID, msgChooseBranch, branchKeyboard(e.datasets.Branches(sess.Group)))
			return
		}
		sess.Step = model.StepInit
		e.send(ctx, chatID, msgChooseGroup, groupKeyboard(e.datasets.Groups()))

	case model.ModeBranchLocked, model.ModeZoneLocked:
		sess.Group = perm.VisibilityGroup
		if sess.Group == model.ScopeAll || sess.Group == "" {
			sess.Group = e.datasets.GroupOf(perm.Branch)
		}
		sess.Branch = perm.Branch
		sess.SubZone = perm.SubZone
		if sess.SubZone == model.ScopeAll {
			sess.SubZone = ""
		}
		sess.Step = model.StepBranchSelected
		e.send(ctx, chatID, greeting(perm), mainMenuKeyboard())
	}
}

// goBack выполняет переход «Назад» по фиксированной карте шагов.
func (e *Engine) goBack(ctx context.Context, chatID int64, perm model.UserPermission, sess *model.SessionState) {
	sess.ClearPending()
	sess.NotifyTargetTP = ""
	sess.NotifyTargetLine = ""

	switch backStep(sess.Step) {
	case model.StepBranchSelected:
		sess.Step = model.StepBranchSelected
		e.send(ctx, chatID, msgChooseAction, mainMenuKeyboard())
	default:
		// Возврат в начало — как /start, с учётом режима доступа
		e.enterStart(ctx, chatID, perm.UserID, perm)
	}
}

// backStep — карта переходов «Назад».
// Шаги поиска и уведомления возвращают в главное меню филиала,
// выбор филиала — к выбору группы, остальное — в начало.
func backStep(s model.Step) model.Step {
	switch s {
	case model.StepAwaitTPInput, model.StepDisambiguous,
		model.StepNotifyAwaitTP, model.StepNotifyDisambiguous,
		model.StepNotifyAwaitVL, model.StepNotifyWaitGeo,
		model.StepViewReport:
		return model.StepBranchSelected
	default:
		return model.StepInit
	}
}

// drop отбрасывает событие, не подходящее текущему шагу.
// Ответ пользователю не отправляется.
func (e *Engine) drop(logger *slog.Logger, step, text string) {
	droppedUpdatesTotal.WithLabelValues(step).Inc()
	logger.Debug("Событие отброшено",
		slog.String("drop_step", step),
		slog.String("text", text),
	)
}

// send отправляет текст, логируя ошибку доставки.
// Ошибка отправки не меняет состояние диалога.
func (e *Engine) send(ctx context.Context, chatID int64, text string, keyboard [][]string) {
	if err := e.sender.SendText(ctx, chatID, text, keyboard); err != nil {
		e.logger.Error("Ошибка отправки сообщения",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}
