package utils

import (
	"strings"
	"testing"
)

func TestTableDraw(t *testing.T) {
	table := NewTable("id", "word")
	table.AddRow(1, "release")
	table.AddRow(22, "go")

	want := strings.Join([]string{
		"╔════╦═════════╗",
		"║ id ║  word   ║",
		"║════╬═════════║",
		"║ 1  ║ release ║",
		"║ 22 ║   go    ║",
		"╚════╩═════════╝",
	}, "\n")
	if got := table.String(); got != want {
		t.Fatalf("unexpected table:\n%s\nwant:\n%s", got, want)
	}
	if table.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", table.Len())
	}
}

func TestTableShortRow(t *testing.T) {
	table := NewTable("a", "b")
	table.AddRow("x")
	if !strings.Contains(table.String(), "║ x ║   ║") {
		t.Fatalf("expected empty cell for missing value:\n%s", table.String())
	}
}
