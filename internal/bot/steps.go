// steps.go — обработчики шагов диалога.
// Каждый обработчик отвечает за один шаг: проверяет форму ввода,
// выполняет действие и переводит сессию в следующий шаг.
// Матрица переходов зафиксирована тестами engine_test.go.
package bot

import (
	"context"
	"log/slog"

	"github.com/lineops/vols-bot/internal/domain/model"
	"github.com/lineops/vols-bot/internal/search"
)

// stepInit: выбор сетевой группы или просмотр телефонов провайдеров.
func (e *Engine) stepInit(ctx context.Context, msg TextMessage, sess *model.SessionState, logger *slog.Logger) {
	if msg.Text == btnPhones {
		sess.Step = model.StepViewPhones
		e.send(ctx, msg.ChatID, e.phonesText(), backKeyboard())
		return
	}

	for _, g := range e.datasets.Groups() {
		if msg.Text == g {
			sess.Group = g
			sess.Step = model.StepNetworkSelected
			e.send(ctx, msg.ChatID, msgChooseBranch, branchKeyboard(e.datasets.Branches(g)))
			return
		}
	}

	e.drop(logger, sess.Step.String(), msg.Text)
}

// stepNetworkSelected: выбор филиала внутри группы.
func (e *Engine) stepNetworkSelected(ctx context.Context, msg TextMessage, sess *model.SessionState, logger *slog.Logger) {
	if !e.datasets.HasBranch(sess.Group, msg.Text) {
		e.drop(logger, sess.Step.String(), msg.Text)
		return
	}

	sess.Branch = msg.Text
	sess.Step = model.StepBranchSelected
	e.send(ctx, msg.ChatID, msgChooseAction, mainMenuKeyboard())
}

// stepBranchSelected: главное меню действий филиала.
func (e *Engine) stepBranchSelected(ctx context.Context, msg TextMessage, perm model.UserPermission, sess *model.SessionState, logger *slog.Logger) {
	switch msg.Text {
	case btnSearch:
		sess.Step = model.StepAwaitTPInput
		e.send(ctx, msg.ChatID, msgEnterTP, backKeyboard())

	case btnNotify:
		if !perm.CanNotify() {
			// Рассылать могут только закреплённые за конкретным РЭС;
			// шаг не меняется
			e.send(ctx, msg.ChatID, msgNotifyRefused, mainMenuKeyboard())
			return
		}
		sess.Step = model.StepNotifyAwaitTP
		e.send(ctx, msg.ChatID, msgNotifyEnterTP, backKeyboard())

	case btnReport:
		records, err := e.datasets.Branch(ctx, sess.Group, sess.Branch)
		if err != nil {
			logger.Warn("Датасет недоступен", slog.String("error", err.Error()))
			e.send(ctx, msg.ChatID, msgSourceUnavailable, mainMenuKeyboard())
			return
		}
		sess.Step = model.StepViewReport
		e.send(ctx, msg.ChatID, branchReport(sess.Branch, records), backKeyboard())

	case btnPhones:
		sess.Step = model.StepViewPhones
		e.send(ctx, msg.ChatID, e.phonesText(), backKeyboard())

	default:
		e.drop(logger, sess.Step.String(), msg.Text)
	}
}

// stepAwaitTPInput: свободный ввод наименования ТП для поиска.
func (e *Engine) stepAwaitTPInput(ctx context.Context, msg TextMessage, perm model.UserPermission, sess *model.SessionState, logger *slog.Logger) {
	records, err := e.datasets.Branch(ctx, sess.Group, sess.Branch)
	if err != nil {
		// Шаг не продвигается: пользователь повторит тот же ввод
		logger.Warn("Датасет недоступен", slog.String("error", err.Error()))
		e.send(ctx, msg.ChatID, msgSourceUnavailable, backKeyboard())
		return
	}

	result := search.Search(records, msg.Text, sess.SubZone)

	switch result.Kind {
	case search.KindEmpty:
		sess.Step = model.StepBranchSelected
		e.send(ctx, msg.ChatID, msgNotFound, mainMenuKeyboard())

	case search.KindUnique:
		sess.Step = model.StepBranchSelected
		e.send(ctx, msg.ChatID, formatRecords(result.Records), mainMenuKeyboard())

	case search.KindAmbiguous:
		sess.SetPending(result.Names, result.Records)
		sess.Step = model.StepDisambiguous
		e.send(ctx, msg.ChatID, msgChooseTP, nameKeyboard(result.Names))
	}
}

// stepDisambiguous: уточнение ТП из удержанного набора кандидатов.
func (e *Engine) stepDisambiguous(ctx context.Context, msg TextMessage, sess *model.SessionState, logger *slog.Logger) {
	if !sess.HasPendingName(msg.Text) {
		e.drop(logger, sess.Step.String(), msg.Text)
		return
	}

	matched := search.MatchResult{Records: sess.PendingRecords}.FilterByName(msg.Text)
	sess.ClearPending()
	sess.Step = model.StepBranchSelected
	e.send(ctx, msg.ChatID, formatRecords(matched), mainMenuKeyboard())
}

// stepNotifyAwaitTP: свободный ввод ТП в потоке уведомления.
// Поиск идёт по датасету уведомлений, отфильтрованному по РЭС
// отправителя.
func (e *Engine) stepNotifyAwaitTP(ctx context.Context, msg TextMessage, perm model.UserPermission, sess *model.SessionState, logger *slog.Logger) {
	records, err := e.datasets.Notification(ctx)
	if err != nil {
		logger.Warn("Датасет уведомлений недоступен", slog.String("error", err.Error()))
		e.send(ctx, msg.ChatID, msgSourceUnavailable, backKeyboard())
		return
	}

	result := search.Search(records, msg.Text, perm.SubZone)

	switch result.Kind {
	case search.KindEmpty:
		// Остаёмся на шаге: пользователь вводит другое имя
		e.send(ctx, msg.ChatID, msgNotFoundRetry, backKeyboard())

	case search.KindUnique:
		sess.NotifyTargetTP = result.Names[0]
		sess.SetPending(result.Names, result.Records)
		sess.Step = model.StepNotifyAwaitVL
		e.send(ctx, msg.ChatID, msgChooseVL, nameKeyboard(distinctLines(result.Records)))

	case search.KindAmbiguous:
		sess.SetPending(result.Names, result.Records)
		sess.Step = model.StepNotifyDisambiguous
		e.send(ctx, msg.ChatID, msgChooseTP, nameKeyboard(result.Names))
	}
}

// stepNotifyDisambiguous: уточнение ТП в потоке уведомления.
func (e *Engine) stepNotifyDisambiguous(ctx context.Context, msg TextMessage, sess *model.SessionState, logger *slog.Logger) {
	if !sess.HasPendingName(msg.Text) {
		e.drop(logger, sess.Step.String(), msg.Text)
		return
	}

	matched := search.MatchResult{Records: sess.PendingRecords}.FilterByName(msg.Text)
	sess.NotifyTargetTP = msg.Text
	sess.SetPending([]string{msg.Text}, matched)
	sess.Step = model.StepNotifyAwaitVL
	e.send(ctx, msg.ChatID, msgChooseVL, nameKeyboard(distinctLines(matched)))
}

// stepNotifyAwaitVL: выбор ВЛ выбранной ТП, затем запрос геолокации.
func (e *Engine) stepNotifyAwaitVL(ctx context.Context, msg TextMessage, sess *model.SessionState, logger *slog.Logger) {
	valid := false
	for _, line := range distinctLines(sess.PendingRecords) {
		if msg.Text == line {
			valid = true
			break
		}
	}
	if !valid {
		e.drop(logger, sess.Step.String(), msg.Text)
		return
	}

	sess.NotifyTargetLine = msg.Text
	sess.ClearPending()
	sess.Step = model.StepNotifyWaitGeo

	if err := e.sender.SendLocationRequest(ctx, msg.ChatID, msgSendGeo); err != nil {
		e.logger.Error("Ошибка запроса геолокации",
			slog.Int64("chat_id", msg.ChatID),
			slog.String("error", err.Error()),
		)
	}
}

// distinctLines возвращает уникальные имена ВЛ в порядке появления.
func distinctLines(records []model.AssetRecord) []string {
	var lines []string
	seen := make(map[string]struct{})
	for _, rec := range records {
		if _, ok := seen[rec.LineName]; ok {
			continue
		}
		seen[rec.LineName] = struct{}{}
		lines = append(lines, rec.LineName)
	}
	return lines
}
