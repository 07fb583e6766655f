package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/eslsoft/lvgames/internal/entity"
)

func lookupFrom(items ...entity.Item) func(string) (entity.Item, bool) {
	return func(id string) (entity.Item, bool) {
		for _, item := range items {
			if item.ID == id {
				return item, true
			}
		}
		return entity.Item{}, false
	}
}

func TestStatsRowsSortsByMisses(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	stats := entity.Stats{
		"a":    {Correct: 3, Incorrect: 1, LastSeen: now},
		"b":    {Correct: 0, Incorrect: 4, LastSeen: now.Add(-time.Hour)},
		"gone": {Correct: 1},
	}
	lookup := lookupFrom(
		entity.Item{ID: "a", LV: "suns", Translations: map[entity.Language]string{entity.LanguageEnglish: "dog"}},
		entity.Item{ID: "b", LV: "kaķis", Translations: map[entity.Language]string{entity.LanguageEnglish: "cat"}},
	)

	rows, err := statsRows(stats, lookup, entity.LanguageEnglish, "")
	if err != nil {
		t.Fatalf("statsRows returned error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].ID != "b" || rows[1].ID != "a" || rows[2].ID != "gone" {
		t.Fatalf("unexpected order: %s %s %s", rows[0].ID, rows[1].ID, rows[2].ID)
	}
	if rows[0].LV != "kaķis" || rows[0].Translation != "cat" {
		t.Fatalf("row not joined with item: %+v", rows[0])
	}
	if rows[2].LV != "gone" || rows[2].Translation != "" {
		t.Fatalf("unknown id should be listed by id: %+v", rows[2])
	}

	rows, err = statsRows(stats, lookup, entity.LanguageEnglish, "recent")
	if err != nil {
		t.Fatalf("statsRows returned error: %v", err)
	}
	if rows[0].ID != "a" {
		t.Fatalf("expected most recent first, got %s", rows[0].ID)
	}
}

func TestStatsRowsRejectsUnknownOrder(t *testing.T) {
	if _, err := statsRows(entity.Stats{}, lookupFrom(), entity.LanguageEnglish, "loudest"); err == nil {
		t.Fatal("expected error for unknown sort order")
	}
}

func TestWriteStats(t *testing.T) {
	var out bytes.Buffer
	if err := writeStats(&out, nil); err != nil {
		t.Fatalf("writeStats returned error: %v", err)
	}
	if !strings.Contains(out.String(), "no answers recorded") {
		t.Fatalf("unexpected output for empty stats: %q", out.String())
	}

	out.Reset()
	rows := []statsRow{{ID: "a", LV: "suns", Translation: "dog", Stats: entity.ItemStats{Correct: 1, Incorrect: 1}}}
	if err := writeStats(&out, rows); err != nil {
		t.Fatalf("writeStats returned error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", out.String())
	}
	if !strings.Contains(lines[1], "suns") || !strings.Contains(lines[1], "50%") || !strings.HasSuffix(lines[1], "-") {
		t.Fatalf("unexpected row: %q", lines[1])
	}
}
