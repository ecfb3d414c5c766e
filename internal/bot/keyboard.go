// keyboard.go — сборка рядов кнопок быстрого выбора.
// Семантика кнопок — только текст: платформа отправляет нажатую
// подпись обычным текстовым сообщением.
package bot

// mainMenuKeyboard — главное меню филиала.
func mainMenuKeyboard() [][]string {
	return [][]string{
		{btnSearch},
		{btnNotify},
		{btnReport, btnPhones},
		{btnBack},
	}
}

// backKeyboard — единственная кнопка «Назад».
func backKeyboard() [][]string {
	return [][]string{{btnBack}}
}

// groupKeyboard — выбор сетевой группы + телефоны провайдеров.
func groupKeyboard(groups []string) [][]string {
	rows := make([][]string, 0, len(groups)+1)
	for _, g := range groups {
		rows = append(rows, []string{g})
	}
	rows = append(rows, []string{btnPhones})
	return rows
}

// branchKeyboard — выбор филиала + «Назад».
func branchKeyboard(branches []string) [][]string {
	return nameKeyboard(branches)
}

// nameKeyboard — по одной кнопке на имя + «Назад».
// Используется для уточнения ТП и выбора ВЛ.
func nameKeyboard(names []string) [][]string {
	rows := make([][]string, 0, len(names)+1)
	for _, n := range names {
		rows = append(rows, []string{n})
	}
	rows = append(rows, []string{btnBack})
	return rows
}
