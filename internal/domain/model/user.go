package model

// ScopeAll — значение «Все» в колонках каталога доступа: пользователь
// не ограничен конкретной группой/филиалом/РЭС.
const ScopeAll = "Все"

// UserPermission — строка каталога доступа: кто и что видит.
// Ключ — UserID, уникален в пределах каталога.
type UserPermission struct {
	// UserID — Telegram id пользователя
	UserID int64
	// VisibilityGroup — сетевая группа (или ScopeAll)
	VisibilityGroup string
	// Branch — филиал (или ScopeAll)
	Branch string
	// SubZone — РЭС (или ScopeAll)
	SubZone string
	// DisplayName — отображаемое имя (для подписи уведомлений)
	DisplayName string
	// ResponsibilityKey — ключ зоны ответственности для рассылки
	// уведомлений коллегам (пусто в схеме legacy4)
	ResponsibilityKey string
}

// AccessMode — режим доступа, выводимый из UserPermission.
type AccessMode int

const (
	// ModeUnrestricted — branch=Все, subZone=Все: пользователь сам
	// выбирает группу и филиал в каждой сессии.
	ModeUnrestricted AccessMode = iota
	// ModeBranchLocked — филиал фиксирован, все РЭС видимы.
	ModeBranchLocked
	// ModeZoneLocked — фиксированы и филиал, и РЭС: датасет
	// предфильтрован по РЭС.
	ModeZoneLocked
)

// Mode возвращает режим доступа пользователя.
func (p UserPermission) Mode() AccessMode {
	if p.Branch == ScopeAll {
		return ModeUnrestricted
	}
	if p.SubZone == ScopeAll {
		return ModeBranchLocked
	}
	return ModeZoneLocked
}

// CanNotify сообщает, доступна ли пользователю отправка уведомлений.
// Рассылать могут только пользователи, закреплённые за конкретным РЭС.
func (p UserPermission) CanNotify() bool {
	return p.SubZone != ScopeAll
}

// String возвращает читаемое имя режима (для логов).
func (m AccessMode) String() string {
	switch m {
	case ModeUnrestricted:
		return "unrestricted"
	case ModeBranchLocked:
		return "branch_locked"
	case ModeZoneLocked:
		return "zone_locked"
	default:
		return "unknown"
	}
}
