package sheets

import "testing"

// TestNormalizeURL проверяет переписывание ссылок на таблицы
// в прямые CSV-ссылки для всех распознаваемых шаблонов.
func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "уже CSV-ссылка с output=csv не меняется",
			in:   "https://docs.google.com/spreadsheets/d/e/ABC123/pub?gid=0&single=true&output=csv",
			want: "https://docs.google.com/spreadsheets/d/e/ABC123/pub?gid=0&single=true&output=csv",
		},
		{
			name: "уже export-ссылка не меняется",
			in:   "https://docs.google.com/spreadsheets/d/XYZ/export?format=csv&gid=0",
			want: "https://docs.google.com/spreadsheets/d/XYZ/export?format=csv&gid=0",
		},
		{
			name: "прямая ссылка на .csv не меняется",
			in:   "https://example.com/data/assets.csv",
			want: "https://example.com/data/assets.csv",
		},
		{
			name: "опубликованная таблица pubhtml",
			in:   "https://docs.google.com/spreadsheets/d/e/2PACX-abc_DEF/pubhtml",
			want: "https://docs.google.com/spreadsheets/d/e/2PACX-abc_DEF/pub?gid=0&single=true&output=csv",
		},
		{
			name: "опубликованная таблица pub",
			in:   "https://docs.google.com/spreadsheets/d/e/2PACX-abc/pub",
			want: "https://docs.google.com/spreadsheets/d/e/2PACX-abc/pub?gid=0&single=true&output=csv",
		},
		{
			name: "обычная ссылка на документ",
			in:   "https://docs.google.com/spreadsheets/d/1AbCdEf_123/edit#gid=0",
			want: "https://docs.google.com/spreadsheets/d/1AbCdEf_123/export?format=csv&gid=0",
		},
		{
			name: "ссылка на файл Drive",
			in:   "https://drive.google.com/file/d/1XyZ-abc_09/view?usp=sharing",
			want: "https://drive.google.com/uc?export=download&id=1XyZ-abc_09",
		},
		{
			name: "нераспознанная ссылка возвращается как есть",
			in:   "https://example.com/table",
			want: "https://example.com/table",
		},
		{
			name: "пустая строка",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeURL(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, ожидалось %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestNormalizeURL_Idempotent проверяет идемпотентность: повторная
// нормализация уже нормализованной ссылки ничего не меняет.
func TestNormalizeURL_Idempotent(t *testing.T) {
	inputs := []string{
		"https://docs.google.com/spreadsheets/d/e/2PACX-abc/pubhtml",
		"https://docs.google.com/spreadsheets/d/1AbC/edit",
		"https://example.com/data.csv",
	}
	for _, in := range inputs {
		once := NormalizeURL(in)
		twice := NormalizeURL(once)
		if once != twice {
			t.Errorf("NormalizeURL не идемпотентна для %q: %q != %q", in, once, twice)
		}
	}
}
