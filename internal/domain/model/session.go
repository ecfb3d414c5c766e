package model

// Step — шаг диалога пользователя с ботом.
// Машина состояний циклическая, терминального шага нет:
// /start всегда возвращает сессию в начальное состояние.
type Step int

const (
	// StepInit — начальное состояние, выбор сетевой группы.
	StepInit Step = iota
	// StepNetworkSelected — группа выбрана, выбор филиала.
	StepNetworkSelected
	// StepBranchSelected — филиал выбран, главное меню действий.
	StepBranchSelected
	// StepAwaitTPInput — ожидание наименования ТП для поиска.
	StepAwaitTPInput
	// StepDisambiguous — поиск дал несколько ТП, ожидание выбора.
	StepDisambiguous
	// StepNotifyAwaitTP — ожидание ТП для уведомления.
	StepNotifyAwaitTP
	// StepNotifyDisambiguous — несколько ТП в датасете уведомлений.
	StepNotifyDisambiguous
	// StepNotifyAwaitVL — ожидание выбора ВЛ.
	StepNotifyAwaitVL
	// StepNotifyWaitGeo — ожидание геолокации.
	StepNotifyWaitGeo
	// StepViewPhones — просмотр телефонов провайдеров.
	StepViewPhones
	// StepViewReport — просмотр сводки по филиалу.
	StepViewReport
)

// String возвращает имя шага для логов.
func (s Step) String() string {
	switch s {
	case StepInit:
		return "init"
	case StepNetworkSelected:
		return "network_selected"
	case StepBranchSelected:
		return "branch_selected"
	case StepAwaitTPInput:
		return "await_tp_input"
	case StepDisambiguous:
		return "disambiguous"
	case StepNotifyAwaitTP:
		return "notify_await_tp"
	case StepNotifyDisambiguous:
		return "notify_disambiguous"
	case StepNotifyAwaitVL:
		return "notify_await_vl"
	case StepNotifyWaitGeo:
		return "notify_wait_geo"
	case StepViewPhones:
		return "view_phones"
	case StepViewReport:
		return "view_report"
	default:
		return "unknown"
	}
}

// SessionState — изменяемый контекст диалога одного пользователя.
// Живёт в памяти процесса от /start до перезаписи следующим /start.
// Инвариант: PendingNames и PendingRecords либо оба заполнены,
// либо оба пусты (SetPending/ClearPending).
type SessionState struct {
	// Step — текущий шаг диалога
	Step Step
	// Group — выбранная сетевая группа
	Group string
	// Branch — выбранный филиал
	Branch string
	// SubZone — РЭС пользователя (пусто для режимов без фиксации РЭС)
	SubZone string
	// PendingNames — уникальные имена ТП, ожидающие уточнения
	PendingNames []string
	// PendingRecords — полный набор кандидатов неоднозначного поиска
	PendingRecords []AssetRecord
	// NotifyTargetTP — ТП, выбранная в потоке уведомления
	NotifyTargetTP string
	// NotifyTargetLine — ВЛ, выбранная в потоке уведомления
	NotifyTargetLine string
}

// SetPending сохраняет кандидатов неоднозначного поиска.
func (s *SessionState) SetPending(names []string, records []AssetRecord) {
	s.PendingNames = names
	s.PendingRecords = records
}

// ClearPending сбрасывает кандидатов неоднозначного поиска.
func (s *SessionState) ClearPending() {
	s.PendingNames = nil
	s.PendingRecords = nil
}

// HasPendingName сообщает, есть ли name среди ожидающих уточнения ТП.
func (s *SessionState) HasPendingName(name string) bool {
	for _, n := range s.PendingNames {
		if n == name {
			return true
		}
	}
	return false
}
