// Пакет search — поиск записей ВОЛС по наименованию ТП.
// Алгоритм — подстрочное вхождение нормализованного запроса в
// нормализованное имя ТП. Числового ранжирования нет: несколько разных
// ТП с общей подстрокой — неоднозначный результат, уточняет человек.
package search

import (
	"strings"
	"unicode"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lineops/vols-bot/internal/domain/model"
)

// Prometheus-метрики поиска.
var searchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vb_search_total",
	Help: "Общее количество поисковых запросов (по классу результата).",
}, []string{"result"})

// Kind — класс результата поиска.
type Kind int

const (
	// KindEmpty — ни одна запись не совпала.
	KindEmpty Kind = iota
	// KindUnique — совпадения относятся ровно к одной ТП.
	KindUnique
	// KindAmbiguous — совпадения охватывают несколько разных ТП.
	KindAmbiguous
)

// String возвращает имя класса результата (для логов и метрик).
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindUnique:
		return "unique"
	case KindAmbiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// MatchResult — результат поиска по датасету.
type MatchResult struct {
	// Kind — класс результата
	Kind Kind
	// Records — все совпавшие записи
	Records []model.AssetRecord
	// Names — уникальные имена ТП среди совпавших записей,
	// в порядке первого появления в датасете
	Names []string
}

// FilterByName выбирает из удержанного набора кандидатов записи
// с точным совпадением имени ТП. Используется на шаге уточнения
// после неоднозначного результата.
func (r MatchResult) FilterByName(name string) []model.AssetRecord {
	var out []model.AssetRecord
	for _, rec := range r.Records {
		if rec.TPName == name {
			out = append(out, rec)
		}
	}
	return out
}

// NormalizeIdentifier приводит идентификатор к сравнимому токену:
// верхний регистр (с учётом кириллицы) и отбрасывание всего, кроме
// букв, цифр и подчёркивания. Идемпотентна: повторная нормализация
// не меняет результат.
func NormalizeIdentifier(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// Search ищет записи, чьё нормализованное имя ТП содержит
// нормализованный запрос как подстроку.
// subZoneFilter — необязательный фильтр по РЭС (пустая строка — без
// фильтра): применяется до сравнения имён.
func Search(records []model.AssetRecord, query, subZoneFilter string) MatchResult {
	normQuery := NormalizeIdentifier(query)

	var matched []model.AssetRecord
	var names []string
	seen := make(map[string]struct{})

	for _, rec := range records {
		if subZoneFilter != "" && rec.SubZone != subZoneFilter {
			continue
		}
		if !strings.Contains(NormalizeIdentifier(rec.TPName), normQuery) {
			continue
		}
		matched = append(matched, rec)
		if _, ok := seen[rec.TPName]; !ok {
			seen[rec.TPName] = struct{}{}
			names = append(names, rec.TPName)
		}
	}

	result := MatchResult{Records: matched, Names: names}
	switch {
	case len(names) == 0:
		result.Kind = KindEmpty
	case len(names) == 1:
		result.Kind = KindUnique
	default:
		result.Kind = KindAmbiguous
	}

	searchTotal.WithLabelValues(result.Kind.String()).Inc()
	return result
}
