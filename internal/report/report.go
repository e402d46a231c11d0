package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/pepelbot/internal/catalog"
	"github.com/example/pepelbot/pkg/models"
)

const timeLayout = "02.01.2006 15:04"

// Personal renders a user's recent history, one line per response in the
// order the store returned them (newest first). Callers handle the empty
// case themselves.
func Personal(rows []models.Response) string {
	var b strings.Builder
	b.WriteString("🧾 Твой недавний путь по пеплу:\n")
	for _, row := range rows {
		glyph := ""
		if e, ok := catalog.ByLevel(row.Level); ok {
			glyph = e.Glyph
		}
		b.WriteString(fmt.Sprintf("%s — %d %s\n", formatTimestamp(row.Timestamp), row.Level, glyph))
	}
	return b.String()
}

// Team renders the team-wide level distribution with one-decimal percentages,
// levels in ascending order. Callers handle the zero-total case themselves.
func Team(counts map[int]int) string {
	total := 0
	levels := make([]int, 0, len(counts))
	for level, count := range counts {
		total += count
		levels = append(levels, level)
	}
	sort.Ints(levels)

	var b strings.Builder
	b.WriteString("📊 Статистика команды:\n")
	for _, level := range levels {
		count := counts[level]
		percent := float64(count) / float64(total) * 100
		glyph := ""
		if e, ok := catalog.ByLevel(level); ok {
			glyph = e.Glyph
		}
		b.WriteString(fmt.Sprintf("%s Уровень %d: %d ответов (%.1f%%)\n", glyph, level, count, percent))
	}
	return b.String()
}

// formatTimestamp renders a stored RFC3339 instant for display. Storage stays
// UTC; only this layer decides presentation.
func formatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.UTC().Format(timeLayout)
}
