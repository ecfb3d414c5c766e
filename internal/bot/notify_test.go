package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/lineops/vols-bot/internal/domain/model"
)

// notifyPerms — каталог для тестов рассылки: отправитель 1 и коллеги
// 2, 3 в одной зоне ответственности, 4 — в другой.
func notifyPerms() []model.UserPermission {
	return []model.UserPermission{
		{UserID: 1, VisibilityGroup: "Север", Branch: "Южный", SubZone: "Центральный", DisplayName: "Иванов", ResponsibilityKey: "ЮЖ-Ц"},
		{UserID: 2, VisibilityGroup: "Север", Branch: "Южный", SubZone: "Центральный", DisplayName: "Петров", ResponsibilityKey: "ЮЖ-Ц"},
		{UserID: 3, VisibilityGroup: "Север", Branch: "Южный", SubZone: "Центральный", DisplayName: "Сидоров", ResponsibilityKey: "ЮЖ-Ц"},
		{UserID: 4, VisibilityGroup: "Север", Branch: "Южный", SubZone: "Западный", DisplayName: "Козлов", ResponsibilityKey: "ЮЖ-З"},
	}
}

// walkToGeo доводит отправителя до шага ожидания геолокации.
func walkToGeo(t *testing.T, engine *Engine, userID int64) {
	t.Helper()
	ctx := context.Background()
	engine.HandleText(ctx, text(userID, "/start"))
	engine.HandleText(ctx, text(userID, btnNotify))
	engine.HandleText(ctx, text(userID, "ТП-15А"))
	engine.HandleText(ctx, text(userID, "ВЛ-1"))
}

func notifyDatasets() *mockDatasets {
	return &mockDatasets{
		notificationFn: func(_ context.Context) ([]model.AssetRecord, error) {
			return testAssets(), nil
		},
	}
}

// TestNotifyFlow_FanOut проверяет полный поток уведомления: ТП, ВЛ,
// геолокация, доставка текста и геолокации каждому коллеге и
// агрегированный отчёт отправителю.
func TestNotifyFlow_FanOut(t *testing.T) {
	sender := &mockSender{}
	engine, store := newTestEngine(notifyPerms(), notifyDatasets(), sender)

	walkToGeo(t, engine, 1)

	sess := store.Get(1)
	if sess.Step != model.StepNotifyWaitGeo {
		t.Fatalf("Step = %v, ожидался StepNotifyWaitGeo", sess.Step)
	}
	if len(sender.locationRequests) != 1 {
		t.Fatalf("locationRequests = %d, ожидался 1 запрос геолокации", len(sender.locationRequests))
	}

	engine.HandleLocation(context.Background(), LocationMessage{
		UserID: 1, ChatID: 1, Latitude: 55.75, Longitude: 37.62,
	})

	sess = store.Get(1)
	if sess.Step != model.StepBranchSelected {
		t.Errorf("Step = %v, ожидался возврат в StepBranchSelected", sess.Step)
	}
	if sess.NotifyTargetTP != "" || sess.NotifyTargetLine != "" {
		t.Errorf("состояние уведомления не сброшено: %+v", sess)
	}

	// Текст и геолокация доставлены коллегам 2 и 3, но не 4
	delivered := map[int64]bool{}
	for _, loc := range sender.locations {
		delivered[loc.chatID] = true
		if loc.lat != 55.75 || loc.lon != 37.62 {
			t.Errorf("геолокация (%v, %v), ожидалась (55.75, 37.62)", loc.lat, loc.lon)
		}
	}
	if !delivered[2] || !delivered[3] || delivered[4] {
		t.Errorf("геолокации доставлены %v, ожидались получатели 2 и 3", delivered)
	}

	var peerText string
	for _, m := range sender.texts {
		if m.chatID == 2 {
			peerText = m.text
		}
	}
	for _, want := range []string{"Иванов", "ТП-15А", "ВЛ-1", "Центральный"} {
		if !strings.Contains(peerText, want) {
			t.Errorf("текст уведомления %q без %q", peerText, want)
		}
	}

	// Отправителю — агрегированный отчёт
	if got := sender.last(t); !strings.Contains(got.text, "2 из 2") {
		t.Errorf("отчёт %q, ожидалось «2 из 2»", got.text)
	}
}

// TestNotifyFlow_PartialFailure: сбой доставки одному получателю не
// прерывает рассылку, отчёт отражает фактические доставки.
func TestNotifyFlow_PartialFailure(t *testing.T) {
	sender := &mockSender{failFor: map[int64]bool{2: true}}
	engine, _ := newTestEngine(notifyPerms(), notifyDatasets(), sender)

	walkToGeo(t, engine, 1)
	engine.HandleLocation(context.Background(), LocationMessage{UserID: 1, ChatID: 1})

	if got := sender.last(t); !strings.Contains(got.text, "1 из 2") {
		t.Errorf("отчёт %q, ожидалось «1 из 2»", got.text)
	}

	// Здоровый получатель получил и текст, и геолокацию
	gotText := false
	for _, m := range sender.texts {
		if m.chatID == 3 {
			gotText = true
		}
	}
	gotLoc := false
	for _, loc := range sender.locations {
		if loc.chatID == 3 {
			gotLoc = true
		}
	}
	if !gotText || !gotLoc {
		t.Error("получатель 3 не получил текст или геолокацию")
	}
}

// TestNotifyFlow_NoPeers: единственный в зоне ответственности получает
// сообщение об отсутствии получателей.
func TestNotifyFlow_NoPeers(t *testing.T) {
	perms := []model.UserPermission{
		{UserID: 1, VisibilityGroup: "Север", Branch: "Южный", SubZone: "Центральный", ResponsibilityKey: "ЮЖ-Ц"},
	}
	sender := &mockSender{}
	engine, store := newTestEngine(perms, notifyDatasets(), sender)

	walkToGeo(t, engine, 1)
	engine.HandleLocation(context.Background(), LocationMessage{UserID: 1, ChatID: 1})

	if got := sender.last(t); got.text != msgNoPeers {
		t.Errorf("text = %q, ожидался msgNoPeers", got.text)
	}
	if sess := store.Get(1); sess.Step != model.StepBranchSelected {
		t.Errorf("Step = %v, ожидался StepBranchSelected", sess.Step)
	}
}

// TestNotify_RefusedForUnboundZone: пользователь с РЭС «Все» не может
// рассылать уведомления, шаг не меняется.
func TestNotify_RefusedForUnboundZone(t *testing.T) {
	perms := []model.UserPermission{
		{UserID: 1, VisibilityGroup: "Север", Branch: "Южный", SubZone: model.ScopeAll},
	}
	sender := &mockSender{}
	engine, store := newTestEngine(perms, notifyDatasets(), sender)
	ctx := context.Background()

	engine.HandleText(ctx, text(1, "/start"))
	engine.HandleText(ctx, text(1, btnNotify))

	if sess := store.Get(1); sess.Step != model.StepBranchSelected {
		t.Errorf("Step = %v, ожидался StepBranchSelected (отказ)", sess.Step)
	}
	if got := sender.last(t); got.text != msgNotifyRefused {
		t.Errorf("text = %q, ожидался msgNotifyRefused", got.text)
	}
}

// TestNotifyFlow_Disambiguation: неоднозначная ТП в датасете
// уведомлений уточняется перед выбором ВЛ.
func TestNotifyFlow_Disambiguation(t *testing.T) {
	sender := &mockSender{}
	engine, store := newTestEngine(notifyPerms(), &mockDatasets{
		notificationFn: func(_ context.Context) ([]model.AssetRecord, error) {
			// Обе ТП в РЭС отправителя
			return []model.AssetRecord{
				{TPName: "ТП-15А", LineName: "ВЛ-1", SubZone: "Центральный"},
				{TPName: "ТП-150", LineName: "ВЛ-3", SubZone: "Центральный"},
			}, nil
		},
	}, sender)
	ctx := context.Background()

	engine.HandleText(ctx, text(1, "/start"))
	engine.HandleText(ctx, text(1, btnNotify))
	engine.HandleText(ctx, text(1, "15"))

	sess := store.Get(1)
	if sess.Step != model.StepNotifyDisambiguous {
		t.Fatalf("Step = %v, ожидался StepNotifyDisambiguous", sess.Step)
	}

	engine.HandleText(ctx, text(1, "ТП-150"))

	sess = store.Get(1)
	if sess.Step != model.StepNotifyAwaitVL {
		t.Fatalf("Step = %v, ожидался StepNotifyAwaitVL", sess.Step)
	}
	if sess.NotifyTargetTP != "ТП-150" {
		t.Errorf("NotifyTargetTP = %q, ожидался ТП-150", sess.NotifyTargetTP)
	}
}

// TestNotifyFlow_EmptyStaysOnStep: ненайденная ТП в потоке уведомления
// не продвигает шаг, пользователь вводит другое имя.
func TestNotifyFlow_EmptyStaysOnStep(t *testing.T) {
	sender := &mockSender{}
	engine, store := newTestEngine(notifyPerms(), notifyDatasets(), sender)
	ctx := context.Background()

	engine.HandleText(ctx, text(1, "/start"))
	engine.HandleText(ctx, text(1, btnNotify))
	engine.HandleText(ctx, text(1, "ТП-999"))

	if sess := store.Get(1); sess.Step != model.StepNotifyAwaitTP {
		t.Errorf("Step = %v, ожидался StepNotifyAwaitTP", sess.Step)
	}
	if got := sender.last(t); got.text != msgNotFoundRetry {
		t.Errorf("text = %q, ожидался msgNotFoundRetry", got.text)
	}
}

// TestHandleLocation_UnexpectedDropped: геолокация вне шага ожидания
// молча отбрасывается.
func TestHandleLocation_UnexpectedDropped(t *testing.T) {
	sender := &mockSender{}
	engine, _ := newTestEngine(notifyPerms(), notifyDatasets(), sender)

	engine.HandleText(context.Background(), text(1, "/start"))
	before := len(sender.texts)

	engine.HandleLocation(context.Background(), LocationMessage{UserID: 1, ChatID: 1})

	if len(sender.texts) != before || len(sender.locations) != 0 {
		t.Error("геолокация вне шага ожидания должна отбрасываться молча")
	}
}
