// Пакет model — доменные модели vols-bot.
// AssetRecord — строка реестра ВОЛС (волоконно-оптических линий связи),
// размещённых на опорах ВЛ одного филиала.
package model

// AssetRecord — одна запись реестра ВОЛС: ТП и привязанная к ней линия
// с перечнем опор, на которых размещён кабель провайдера.
// Записи неизменяемы после загрузки из таблицы.
type AssetRecord struct {
	// TPName — наименование ТП (первичный поисковый ключ, кириллица)
	TPName string
	// VoltageLevel — класс напряжения линии (0,4 кВ / 6-10 кВ)
	VoltageLevel string
	// LineName — наименование ВЛ
	LineName string
	// StructureIDs — перечень номеров опор с подвесом ВОЛС
	StructureIDs string
	// StructureCount — количество опор с подвесом
	StructureCount string
	// SubZone — РЭС, к которому относится ТП
	SubZone string
	// ProviderName — владелец ВОЛС (провайдер)
	ProviderName string
	// ContractNumber — номер договора на размещение (может отсутствовать)
	ContractNumber string
}
