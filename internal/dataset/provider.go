// Пакет dataset — провайдер датасетов ВОЛС.
// Знает карту (сетевая группа → филиал → URL таблицы) и URL датасета
// уведомлений, загружает таблицы через sheets.Client и парсит строки
// в AssetRecord. Конфигурация передаётся явно при старте — внутри
// бизнес-логики никакого ambient-состояния нет.
//
// Короткоживущий TTL-кэш (expirable.LRU) сглаживает повторные
// обращения в рамках одного диалога; TTL 0 отключает кэш, и каждая
// операция читает таблицу заново.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lineops/vols-bot/internal/domain/model"
	"github.com/lineops/vols-bot/internal/sheets"
)

// Prometheus-метрики кэша датасетов.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vb_dataset_cache_hits_total",
		Help: "Общее количество попаданий в кэш датасетов.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vb_dataset_cache_misses_total",
		Help: "Общее количество промахов кэша датасетов.",
	})
	rowsSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vb_dataset_rows_skipped_total",
		Help: "Количество пропущенных строк датасетов (мало полей).",
	})
)

// Минимальное число колонок строки датасета: tpName, voltageLevel,
// lineName, structureIds, structureCount, subZone, providerName.
// Восьмая колонка (contractNumber) опциональна.
const minAssetFields = 7

// RowSource — источник строк таблицы (sheets.Client).
type RowSource interface {
	FetchCSV(ctx context.Context, url string) ([][]string, error)
}

// Provider — провайдер датасетов ВОЛС по филиалам.
type Provider struct {
	source RowSource
	// urls — группа → филиал → нормализованный CSV URL
	urls map[string]map[string]string
	// notifyURL — нормализованный URL датасета уведомлений
	notifyURL string
	cache     *expirable.LRU[string, []model.AssetRecord]
	logger    *slog.Logger
}

// New создаёт провайдер датасетов.
// urls — карта (группа → филиал → URL), ссылки нормализуются один раз
// здесь. notifyURL — URL датасета уведомлений (может быть пустым,
// тогда поток уведомлений недоступен). cacheSize/cacheTTL — параметры
// кэша; TTL 0 отключает кэширование.
func New(source RowSource, urls map[string]map[string]string, notifyURL string, cacheSize int, cacheTTL time.Duration, logger *slog.Logger) *Provider {
	normalized := make(map[string]map[string]string, len(urls))
	for group, branches := range urls {
		normalized[group] = make(map[string]string, len(branches))
		for branch, rawURL := range branches {
			normalized[group][branch] = sheets.NormalizeURL(rawURL)
		}
	}

	var cache *expirable.LRU[string, []model.AssetRecord]
	if cacheTTL > 0 {
		cache = expirable.NewLRU[string, []model.AssetRecord](cacheSize, nil, cacheTTL)
	}

	if notifyURL != "" {
		notifyURL = sheets.NormalizeURL(notifyURL)
	}

	return &Provider{
		source:    source,
		urls:      normalized,
		notifyURL: notifyURL,
		cache:     cache,
		logger:    logger.With(slog.String("component", "dataset_provider")),
	}
}

// Groups возвращает известные сетевые группы в алфавитном порядке.
func (p *Provider) Groups() []string {
	groups := make([]string, 0, len(p.urls))
	for g := range p.urls {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// Branches возвращает филиалы группы в алфавитном порядке.
// Неизвестная группа — пустой список.
func (p *Provider) Branches(group string) []string {
	branches := make([]string, 0, len(p.urls[group]))
	for b := range p.urls[group] {
		branches = append(branches, b)
	}
	sort.Strings(branches)
	return branches
}

// HasBranch сообщает, сконфигурирован ли датасет для пары (группа, филиал).
func (p *Provider) HasBranch(group, branch string) bool {
	_, ok := p.urls[group][branch]
	return ok
}

// GroupOf возвращает группу, в которой сконфигурирован филиал.
// Нужен для пользователей с фиксированным филиалом, у которых группа
// в каталоге не указана (legacy4). Пустая строка — филиал не найден.
func (p *Provider) GroupOf(branch string) string {
	for _, g := range p.Groups() {
		if _, ok := p.urls[g][branch]; ok {
			return g
		}
	}
	return ""
}

// Branch возвращает датасет ВОЛС филиала.
func (p *Provider) Branch(ctx context.Context, group, branch string) ([]model.AssetRecord, error) {
	url, ok := p.urls[group][branch]
	if !ok {
		return nil, fmt.Errorf("датасет для филиала %q группы %q не сконфигурирован", branch, group)
	}
	return p.fetch(ctx, url)
}

// Notification возвращает датасет уведомлений.
func (p *Provider) Notification(ctx context.Context) ([]model.AssetRecord, error) {
	if p.notifyURL == "" {
		return nil, fmt.Errorf("датасет уведомлений не сконфигурирован")
	}
	return p.fetch(ctx, p.notifyURL)
}

// fetch загружает и парсит датасет, с учётом кэша.
func (p *Provider) fetch(ctx context.Context, url string) ([]model.AssetRecord, error) {
	if p.cache != nil {
		if records, ok := p.cache.Get(url); ok {
			cacheHitsTotal.Inc()
			return records, nil
		}
		cacheMissesTotal.Inc()
	}

	rows, err := p.source.FetchCSV(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("загрузка датасета: %w", err)
	}

	records := p.parseRows(rows)

	if p.cache != nil {
		p.cache.Add(url, records)
	}
	return records, nil
}

// parseRows маппит строки таблицы в AssetRecord.
// Первая строка — заголовок. Строки с числом полей меньше
// minAssetFields пропускаются (ручная таблица).
func (p *Provider) parseRows(rows [][]string) []model.AssetRecord {
	var records []model.AssetRecord
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < minAssetFields {
			rowsSkippedTotal.Inc()
			p.logger.Debug("Строка датасета пропущена: мало полей",
				slog.Int("row", i),
				slog.Int("fields", len(row)),
			)
			continue
		}

		rec := model.AssetRecord{
			TPName:         strings.TrimSpace(row[0]),
			VoltageLevel:   strings.TrimSpace(row[1]),
			LineName:       strings.TrimSpace(row[2]),
			StructureIDs:   strings.TrimSpace(row[3]),
			StructureCount: strings.TrimSpace(row[4]),
			SubZone:        strings.TrimSpace(row[5]),
			ProviderName:   strings.TrimSpace(row[6]),
		}
		if len(row) > minAssetFields {
			rec.ContractNumber = strings.TrimSpace(row[7])
		}
		records = append(records, rec)
	}
	return records
}
