package catalog

import (
	"strconv"
	"strings"
)

// Entry describes one burnout level: its glyph, short label and the canned
// reply sent back when a user reports that level.
type Entry struct {
	Level    int
	Glyph    string
	Label    string
	Response string
}

// entries is the single source of truth for validation, replies and report
// rendering. Порядок важен: уровни идут от 0 к 5.
var entries = []Entry{
	{0, "💡", "Светлячок", "💡 Ты светишь! Ты заряжаешь! Не забудь поделиться этим светом с коллегами ✨"},
	{1, "✨", "Искрящийся", "✨ Ты ещё в игре, но искры утекают. Найди 30 минут на чай и тишину."},
	{2, "🔦", "Фонарик", "🔦 Свет есть, но только по просьбе. Сделай одну задачу и больше ничего."},
	{3, "🔥", "Углём дышу", "🔥 Эй. Не геройствуй. Отдохни, убери часть задач."},
	{4, "🪨", "Горячий пепел", "🪨 Всё сгорело, но ты ещё шевелишься. Уйди в плед, без встреч."},
	{5, "⚰️", "Мёртвый уголь", "⚰️ Ты — мёртвый уголь. День без всего. ПепелВасилич принес конфету."},
}

// All returns the catalog entries in ascending level order.
func All() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Lookup resolves trimmed message text to a catalog entry. It only accepts
// the exact digit strings "0".."5".
func Lookup(text string) (Entry, bool) {
	key := strings.TrimSpace(text)
	for _, e := range entries {
		if key == strconv.Itoa(e.Level) {
			return e, true
		}
	}
	return Entry{}, false
}

// ByLevel returns the entry for a stored level value.
func ByLevel(level int) (Entry, bool) {
	if level < 0 || level >= len(entries) {
		return Entry{}, false
	}
	return entries[level], true
}

// Scale renders the level legend shown in the /start instructions and in the
// weekly broadcast.
func Scale() string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(strconv.Itoa(e.Level))
		b.WriteString(" — ")
		b.WriteString(e.Glyph)
		b.WriteString(" ")
		b.WriteString(e.Label)
		b.WriteString("\n")
	}
	return b.String()
}

// Greeting is the /start instructions text.
func Greeting() string {
	return "🔥 Привет, смертные! Я — ПепелВасилич.\n" +
		"Укажи свой уровень по шкале выгорания:\n\n" +
		Scale() + "\n" +
		"Просто нажми нужную цифру:"
}

// Prompt is the weekly check-in text. Same scale as the greeting.
func Prompt() string {
	return "🔥 Пора замерить уровень выгорания, смертный:\n\n" +
		Scale() + "\n" +
		"Ответь цифрой:"
}

// KeyboardRows returns the digit layout for the reply keyboard.
func KeyboardRows() [][]string {
	return [][]string{{"0", "1", "2"}, {"3", "4", "5"}}
}
