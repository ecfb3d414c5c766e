// url.go — нормализация ссылок на таблицы в прямые CSV-ссылки.
// Пользователи вставляют в конфигурацию «расшаренные» ссылки из браузера;
// бот переписывает их в форму прямого CSV-экспорта.
package sheets

import "regexp"

// Шаблоны распознаваемых ссылок, в порядке приоритета.
var (
	// Уже прямая CSV/export-ссылка — не трогаем.
	reAlreadyCSV = regexp.MustCompile(`output=csv|export\?format=csv|\.csv$`)

	// «Опубликовано в веб»: /spreadsheets/d/e/<id>/pub[html]
	rePublished = regexp.MustCompile(`^https://docs\.google\.com/spreadsheets/d/e/([a-zA-Z0-9_-]+)/pub`)

	// Обычная ссылка на документ: /spreadsheets/d/<id>
	reDocument = regexp.MustCompile(`^https://docs\.google\.com/spreadsheets/d/([a-zA-Z0-9_-]+)`)

	// Ссылка на файл Drive: /file/d/<id>
	reFile = regexp.MustCompile(`^https://drive\.google\.com/file/d/([a-zA-Z0-9_-]+)`)
)

// NormalizeURL переписывает ссылку на таблицу в прямую CSV-ссылку.
// Приоритет шаблонов:
//  1. уже CSV/export-ссылка — возвращается без изменений;
//  2. «опубликовано в веб» — CSV-экспорт первого листа (gid=0);
//  3. ссылка на документ — CSV-экспорт первого листа (gid=0);
//  4. ссылка на файл — прямое скачивание;
//  5. ни один шаблон не подошёл — возвращается как есть
//     (скорее всего, загрузка упадёт дальше с FetchError).
func NormalizeURL(rawURL string) string {
	if reAlreadyCSV.MatchString(rawURL) {
		return rawURL
	}
	if m := rePublished.FindStringSubmatch(rawURL); m != nil {
		return "https://docs.google.com/spreadsheets/d/e/" + m[1] + "/pub?gid=0&single=true&output=csv"
	}
	if m := reDocument.FindStringSubmatch(rawURL); m != nil {
		return "https://docs.google.com/spreadsheets/d/" + m[1] + "/export?format=csv&gid=0"
	}
	if m := reFile.FindStringSubmatch(rawURL); m != nil {
		return "https://drive.google.com/uc?export=download&id=" + m[1]
	}
	return rawURL
}
