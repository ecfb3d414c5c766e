// messages.go — тексты ответов бота и форматирование записей ВОЛС.
package bot

import (
	"fmt"
	"strings"

	"github.com/lineops/vols-bot/internal/domain/model"
)

// Команды и кнопки.
const (
	cmdStart  = "/start"
	btnBack   = "Назад"
	btnSearch = "Поиск по ТП"
	btnNotify = "Отправить уведомление"
	btnPhones = "Телефоны провайдеров"
	btnReport = "Отчёт по ВОЛС"
)

// Тексты ответов.
const (
	msgChooseGroup       = "Выберите сетевую группу:"
	msgChooseBranch      = "Выберите филиал:"
	msgChooseAction      = "Выберите действие:"
	msgEnterTP           = "Введите наименование или номер ТП:"
	msgNotifyEnterTP     = "Введите ТП, возле которой обнаружена несанкционированная ВОЛС:"
	msgChooseTP          = "Найдено несколько ТП, уточните:"
	msgChooseVL          = "Выберите ВЛ:"
	msgSendGeo           = "Отправьте геолокацию места обнаружения:"
	msgNotFound          = "По вашему запросу ничего не найдено."
	msgNotFoundRetry     = "ТП не найдена, попробуйте ввести другое наименование."
	msgAccessDenied      = "У вас нет доступа к боту. Обратитесь к администратору."
	msgSourceUnavailable = "Источник данных временно недоступен, попробуйте ещё раз."
	msgNotifyRefused     = "Отправка уведомлений доступна только сотрудникам, закреплённым за конкретным РЭС."
	msgNoPeers           = "В вашей зоне ответственности нет других получателей."
	msgPhonesEmpty       = "Справочник телефонов провайдеров не заполнен."
)

// greeting — приветствие пользователя с фиксированным филиалом.
func greeting(perm model.UserPermission) string {
	var b strings.Builder
	b.WriteString("Здравствуйте")
	if perm.DisplayName != "" {
		b.WriteString(", ")
		b.WriteString(perm.DisplayName)
	}
	b.WriteString("!\nФилиал: ")
	b.WriteString(perm.Branch)
	if perm.SubZone != model.ScopeAll && perm.SubZone != "" {
		b.WriteString("\nРЭС: ")
		b.WriteString(perm.SubZone)
	}
	b.WriteString("\n\n")
	b.WriteString(msgChooseAction)
	return b.String()
}

// formatRecords форматирует записи ВОЛС для выдачи пользователю.
// Каждая запись — блок строк, блоки разделены пустой строкой.
func formatRecords(records []model.AssetRecord) string {
	if len(records) == 0 {
		return msgNotFound
	}

	blocks := make([]string, 0, len(records))
	for _, rec := range records {
		var b strings.Builder
		fmt.Fprintf(&b, "ТП: %s\n", rec.TPName)
		fmt.Fprintf(&b, "Напряжение: %s\n", rec.VoltageLevel)
		fmt.Fprintf(&b, "ВЛ: %s\n", rec.LineName)
		fmt.Fprintf(&b, "Опоры: %s (%s шт.)\n", rec.StructureIDs, rec.StructureCount)
		fmt.Fprintf(&b, "РЭС: %s\n", rec.SubZone)
		fmt.Fprintf(&b, "Провайдер: %s", rec.ProviderName)
		if rec.ContractNumber != "" {
			fmt.Fprintf(&b, "\nДоговор: %s", rec.ContractNumber)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// branchReport — сводка по филиалу: число записей и уникальных ТП
// в разрезе РЭС, в порядке появления в датасете.
func branchReport(branch string, records []model.AssetRecord) string {
	if len(records) == 0 {
		return fmt.Sprintf("По филиалу %s данных нет.", branch)
	}

	type zoneStat struct {
		rows int
		tps  map[string]struct{}
	}
	stats := make(map[string]*zoneStat)
	var order []string

	for _, rec := range records {
		st, ok := stats[rec.SubZone]
		if !ok {
			st = &zoneStat{tps: make(map[string]struct{})}
			stats[rec.SubZone] = st
			order = append(order, rec.SubZone)
		}
		st.rows++
		st.tps[rec.TPName] = struct{}{}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Отчёт по ВОЛС, филиал %s\n", branch)
	totalTPs := make(map[string]struct{})
	for _, zone := range order {
		st := stats[zone]
		fmt.Fprintf(&b, "\n%s: %d ТП, %d записей", zone, len(st.tps), st.rows)
	}
	for _, rec := range records {
		totalTPs[rec.TPName] = struct{}{}
	}
	fmt.Fprintf(&b, "\n\nВсего: %d ТП, %d записей", len(totalTPs), len(records))
	return b.String()
}

// notificationText — текст уведомления коллегам.
func notificationText(sender model.UserPermission, tp, line string) string {
	var b strings.Builder
	b.WriteString("Обнаружена несанкционированная ВОЛС!\n")
	fmt.Fprintf(&b, "Обнаружил: %s\n", sender.DisplayName)
	fmt.Fprintf(&b, "РЭС: %s\n", sender.SubZone)
	fmt.Fprintf(&b, "ТП: %s\n", tp)
	fmt.Fprintf(&b, "ВЛ: %s", line)
	return b.String()
}

// phonesText — справочник телефонов провайдеров (статический текст
// из конфигурации).
func (e *Engine) phonesText() string {
	if e.providerPhones == "" {
		return msgPhonesEmpty
	}
	return e.providerPhones
}
