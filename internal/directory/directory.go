// Пакет directory — каталог доступа: кто из пользователей что видит.
// Источник — ручная таблица, строки маппятся в поля позиционно
// (по номеру колонки, не по имени — таблицу ведут люди, заголовки
// у них меняются чаще, чем порядок колонок).
// Каталог перечитывается на (почти) каждое обращение: снапшот
// считается всегда актуальным, инварианта кэширования нет.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lineops/vols-bot/internal/domain/model"
)

// Ошибки каталога доступа.
var (
	// ErrNotFound — пользователь отсутствует в каталоге.
	ErrNotFound = errors.New("пользователь не найден в каталоге доступа")
)

// Prometheus-метрики каталога.
var (
	rowsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vb_directory_rows_skipped_total",
		Help: "Количество пропущенных строк каталога доступа (по причине).",
	}, []string{"reason"})

	loadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vb_directory_load_total",
		Help: "Общее количество загрузок каталога доступа (по статусу).",
	}, []string{"status"})
)

// Schema — позиционная схема строк каталога.
// Выбор схемы — явная конфигурация (VB_DIRECTORY_SCHEMA),
// из данных схема не выводится.
type Schema int

const (
	// SchemaLegacy4 — устаревшая схема: филиал, РЭС, id, имя.
	SchemaLegacy4 Schema = iota
	// SchemaExtended6 — расширенная схема: группа, филиал, РЭС, id,
	// имя, ключ зоны ответственности.
	SchemaExtended6
)

// ParseSchema разбирает имя схемы из конфигурации.
func ParseSchema(name string) (Schema, error) {
	switch strings.ToLower(name) {
	case "legacy4":
		return SchemaLegacy4, nil
	case "extended6":
		return SchemaExtended6, nil
	default:
		return 0, fmt.Errorf("неизвестная схема каталога %q, допустимые: legacy4, extended6", name)
	}
}

// fields возвращает минимальное число колонок схемы.
func (s Schema) fields() int {
	if s == SchemaLegacy4 {
		return 4
	}
	return 6
}

// String возвращает имя схемы.
func (s Schema) String() string {
	if s == SchemaLegacy4 {
		return "legacy4"
	}
	return "extended6"
}

// RowSource — источник строк таблицы каталога (sheets.Client).
type RowSource interface {
	FetchCSV(ctx context.Context, url string) ([][]string, error)
}

// Directory — загрузчик каталога доступа.
type Directory struct {
	source RowSource
	url    string
	schema Schema
	logger *slog.Logger
}

// New создаёт загрузчик каталога.
// url — уже нормализованная CSV-ссылка на таблицу каталога.
func New(source RowSource, url string, schema Schema, logger *slog.Logger) *Directory {
	return &Directory{
		source: source,
		url:    url,
		schema: schema,
		logger: logger.With(slog.String("component", "directory")),
	}
}

// Snapshot — разовый слепок каталога доступа.
// Только чтение: один снапшот обслуживает одну обработку события.
type Snapshot struct {
	byID  map[int64]model.UserPermission
	order []int64
}

// NewSnapshot собирает снапшот из готового списка прав.
// Порядок списка сохраняется, дубликаты id перезаписываются.
func NewSnapshot(perms []model.UserPermission) *Snapshot {
	snap := &Snapshot{byID: make(map[int64]model.UserPermission, len(perms))}
	for _, perm := range perms {
		if _, dup := snap.byID[perm.UserID]; !dup {
			snap.order = append(snap.order, perm.UserID)
		}
		snap.byID[perm.UserID] = perm
	}
	return snap
}

// Load загружает и парсит каталог доступа.
// Первая строка (заголовок) пропускается. Строка с нечисловым id или
// недостаточным числом полей пропускается молча — ручная таблица,
// частично заполненные строки не считаются ошибкой загрузки.
func (d *Directory) Load(ctx context.Context) (*Snapshot, error) {
	rows, err := d.source.FetchCSV(ctx, d.url)
	if err != nil {
		loadTotal.WithLabelValues("fetch_error").Inc()
		return nil, fmt.Errorf("загрузка каталога доступа: %w", err)
	}

	snap := &Snapshot{byID: make(map[int64]model.UserPermission)}

	for i, row := range rows {
		// Заголовок
		if i == 0 {
			continue
		}

		if len(row) < d.schema.fields() {
			rowsSkippedTotal.WithLabelValues("too_few_fields").Inc()
			d.logger.Debug("Строка каталога пропущена: мало полей",
				slog.Int("row", i),
				slog.Int("fields", len(row)),
			)
			continue
		}

		perm, perr := d.parseRow(row)
		if perr != nil {
			rowsSkippedTotal.WithLabelValues("bad_user_id").Inc()
			d.logger.Debug("Строка каталога пропущена: некорректный id",
				slog.Int("row", i),
			)
			continue
		}

		if _, dup := snap.byID[perm.UserID]; !dup {
			snap.order = append(snap.order, perm.UserID)
		}
		snap.byID[perm.UserID] = perm
	}

	loadTotal.WithLabelValues("success").Inc()
	d.logger.Debug("Каталог доступа загружен",
		slog.String("schema", d.schema.String()),
		slog.Int("users", len(snap.byID)),
	)

	return snap, nil
}

// parseRow маппит строку таблицы в UserPermission по активной схеме.
func (d *Directory) parseRow(row []string) (model.UserPermission, error) {
	var perm model.UserPermission
	var rawID string

	switch d.schema {
	case SchemaLegacy4:
		// филиал, РЭС, id, имя
		perm.VisibilityGroup = model.ScopeAll
		perm.Branch = strings.TrimSpace(row[0])
		perm.SubZone = strings.TrimSpace(row[1])
		rawID = strings.TrimSpace(row[2])
		perm.DisplayName = strings.TrimSpace(row[3])
	case SchemaExtended6:
		// группа, филиал, РЭС, id, имя, ключ ответственности
		perm.VisibilityGroup = strings.TrimSpace(row[0])
		perm.Branch = strings.TrimSpace(row[1])
		perm.SubZone = strings.TrimSpace(row[2])
		rawID = strings.TrimSpace(row[3])
		perm.DisplayName = strings.TrimSpace(row[4])
		perm.ResponsibilityKey = strings.TrimSpace(row[5])
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return model.UserPermission{}, fmt.Errorf("некорректный id пользователя %q: %w", rawID, err)
	}
	perm.UserID = id

	return perm, nil
}

// HasAccess сообщает, есть ли пользователь в каталоге.
func (s *Snapshot) HasAccess(userID int64) bool {
	_, ok := s.byID[userID]
	return ok
}

// PermissionOf возвращает права пользователя или ErrNotFound.
func (s *Snapshot) PermissionOf(userID int64) (model.UserPermission, error) {
	perm, ok := s.byID[userID]
	if !ok {
		return model.UserPermission{}, ErrNotFound
	}
	return perm, nil
}

// PeersByResponsibility возвращает всех пользователей с указанным
// ключом зоны ответственности, кроме excludeID (отправителя).
// Порядок — порядок строк каталога.
func (s *Snapshot) PeersByResponsibility(key string, excludeID int64) []model.UserPermission {
	if key == "" {
		return nil
	}
	var peers []model.UserPermission
	for _, id := range s.order {
		perm := s.byID[id]
		if perm.UserID == excludeID {
			continue
		}
		if perm.ResponsibilityKey == key {
			peers = append(peers, perm)
		}
	}
	return peers
}

// VisibilityGroups возвращает уникальные сетевые группы каталога
// (кроме ScopeAll), в порядке появления. Используется для клавиатуры
// выбора группы на начальном шаге.
func (s *Snapshot) VisibilityGroups() []string {
	var groups []string
	seen := make(map[string]struct{})
	for _, id := range s.order {
		g := s.byID[id].VisibilityGroup
		if g == "" || g == model.ScopeAll {
			continue
		}
		if _, ok := seen[g]; !ok {
			seen[g] = struct{}{}
			groups = append(groups, g)
		}
	}
	return groups
}

// Size возвращает количество пользователей в снапшоте.
func (s *Snapshot) Size() int {
	return len(s.byID)
}
