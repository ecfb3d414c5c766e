package dataset

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

// --- Mock source ---

// mockSource — мок RowSource для unit-тестов.
type mockSource struct {
	calls   int
	fetchFn func(ctx context.Context, url string) ([][]string, error)
}

func (m *mockSource) FetchCSV(ctx context.Context, url string) ([][]string, error) {
	m.calls++
	if m.fetchFn != nil {
		return m.fetchFn(ctx, url)
	}
	return nil, nil
}

func assetRows() [][]string {
	return [][]string{
		{"ТП", "Напряжение", "ВЛ", "Опоры", "Кол-во", "РЭС", "Провайдер", "Договор"},
		{"ТП-15", "0,4 кВ", "ВЛ-1", "1-10", "10", "Центральный", "Ростелеком", "Д-42"},
		{"ТП-7", "0,4 кВ", "ВЛ-2", "3-5", "3", "Западный", "ЭР-Телеком"},
		{"коротко"},
	}
}

func testURLs() map[string]map[string]string {
	return map[string]map[string]string{
		"Север": {
			"Южный":   "http://example/south.csv",
			"Арктика": "http://example/arctic.csv",
		},
		"Юг": {
			"Степной": "http://example/steppe.csv",
		},
	}
}

// --- Тесты ---

// TestGroups проверяет список групп в алфавитном порядке.
func TestGroups(t *testing.T) {
	p := New(&mockSource{}, testURLs(), "", 8, 0, slog.Default())

	groups := p.Groups()
	if len(groups) != 2 || groups[0] != "Север" || groups[1] != "Юг" {
		t.Errorf("Groups = %v, ожидались [Север Юг]", groups)
	}
}

// TestBranches проверяет список филиалов группы.
func TestBranches(t *testing.T) {
	p := New(&mockSource{}, testURLs(), "", 8, 0, slog.Default())

	branches := p.Branches("Север")
	if len(branches) != 2 || branches[0] != "Арктика" || branches[1] != "Южный" {
		t.Errorf("Branches = %v, ожидались [Арктика Южный]", branches)
	}

	if got := p.Branches("Неизвестная"); len(got) != 0 {
		t.Errorf("Branches неизвестной группы = %v, ожидался пустой список", got)
	}
}

// TestGroupOf проверяет обратный поиск группы по филиалу.
func TestGroupOf(t *testing.T) {
	p := New(&mockSource{}, testURLs(), "", 8, 0, slog.Default())

	if got := p.GroupOf("Степной"); got != "Юг" {
		t.Errorf("GroupOf(Степной) = %q, ожидался Юг", got)
	}
	if got := p.GroupOf("Неизвестный"); got != "" {
		t.Errorf("GroupOf неизвестного филиала = %q, ожидалась пустая строка", got)
	}
}

// TestBranch_Parse проверяет парсинг строк датасета: заголовок и
// короткие строки пропускаются, восьмая колонка опциональна.
func TestBranch_Parse(t *testing.T) {
	source := &mockSource{
		fetchFn: func(_ context.Context, _ string) ([][]string, error) {
			return assetRows(), nil
		},
	}
	p := New(source, testURLs(), "", 8, 0, slog.Default())

	records, err := p.Branch(context.Background(), "Север", "Южный")
	if err != nil {
		t.Fatalf("Branch ошибка: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("records = %d, ожидались 2", len(records))
	}
	if records[0].TPName != "ТП-15" || records[0].ContractNumber != "Д-42" {
		t.Errorf("records[0] = %+v, поля не совпали", records[0])
	}
	// Седьмая колонка без договора
	if records[1].TPName != "ТП-7" || records[1].ContractNumber != "" {
		t.Errorf("records[1] = %+v, ожидался пустой договор", records[1])
	}
}

// TestBranch_Unknown проверяет ошибку для несконфигурированного филиала.
func TestBranch_Unknown(t *testing.T) {
	p := New(&mockSource{}, testURLs(), "", 8, 0, slog.Default())

	if _, err := p.Branch(context.Background(), "Север", "Неизвестный"); err == nil {
		t.Error("ожидалась ошибка для несконфигурированного филиала")
	}
}

// TestBranch_CacheHit проверяет, что при включённом TTL-кэше повторное
// обращение не перечитывает таблицу.
func TestBranch_CacheHit(t *testing.T) {
	source := &mockSource{
		fetchFn: func(_ context.Context, _ string) ([][]string, error) {
			return assetRows(), nil
		},
	}
	p := New(source, testURLs(), "", 8, time.Minute, slog.Default())

	for i := 0; i < 3; i++ {
		if _, err := p.Branch(context.Background(), "Север", "Южный"); err != nil {
			t.Fatalf("Branch ошибка: %v", err)
		}
	}

	if source.calls != 1 {
		t.Errorf("calls = %d, ожидался 1 (кэш)", source.calls)
	}
}

// TestBranch_CacheDisabled проверяет, что при TTL 0 каждая операция
// читает таблицу заново.
func TestBranch_CacheDisabled(t *testing.T) {
	source := &mockSource{
		fetchFn: func(_ context.Context, _ string) ([][]string, error) {
			return assetRows(), nil
		},
	}
	p := New(source, testURLs(), "", 8, 0, slog.Default())

	for i := 0; i < 3; i++ {
		if _, err := p.Branch(context.Background(), "Север", "Южный"); err != nil {
			t.Fatalf("Branch ошибка: %v", err)
		}
	}

	if source.calls != 3 {
		t.Errorf("calls = %d, ожидались 3 (без кэша)", source.calls)
	}
}

// TestNotification проверяет датасет уведомлений и ошибку при
// отсутствии конфигурации.
func TestNotification(t *testing.T) {
	source := &mockSource{
		fetchFn: func(_ context.Context, url string) ([][]string, error) {
			if url != "http://example/notify.csv" {
				return nil, errors.New("неожиданный url: " + url)
			}
			return assetRows(), nil
		},
	}

	p := New(source, testURLs(), "http://example/notify.csv", 8, 0, slog.Default())
	records, err := p.Notification(context.Background())
	if err != nil {
		t.Fatalf("Notification ошибка: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("records = %d, ожидались 2", len(records))
	}

	// Без URL датасета уведомлений — ошибка
	p2 := New(source, testURLs(), "", 8, 0, slog.Default())
	if _, err := p2.Notification(context.Background()); err == nil {
		t.Error("ожидалась ошибка без URL датасета уведомлений")
	}
}

// TestNew_NormalizesURLs проверяет нормализацию ссылок при создании.
func TestNew_NormalizesURLs(t *testing.T) {
	var gotURL string
	source := &mockSource{
		fetchFn: func(_ context.Context, url string) ([][]string, error) {
			gotURL = url
			return nil, nil
		},
	}

	urls := map[string]map[string]string{
		"Север": {"Южный": "https://docs.google.com/spreadsheets/d/ABC/edit#gid=0"},
	}
	p := New(source, urls, "", 8, 0, slog.Default())

	if _, err := p.Branch(context.Background(), "Север", "Южный"); err != nil {
		t.Fatalf("Branch ошибка: %v", err)
	}
	want := "https://docs.google.com/spreadsheets/d/ABC/export?format=csv&gid=0"
	if gotURL != want {
		t.Errorf("url = %q, ожидался %q", gotURL, want)
	}
}
