package store

import (
	"fmt"
	"strings"
)

// selectColumns is the column list shared by every tick query.
var selectColumns = "id, contract_id, timestamp, " + strings.Join(tickColumns[:], ", ")

// twoSided restricts a tick query to rows with a complete best bid and
// best offer.
const twoSided = "bp1 IS NOT NULL AND bq1 IS NOT NULL AND op1 IS NOT NULL AND oq1 IS NOT NULL"

// levelColumnDefs renders the nullable level columns for CREATE TABLE.
func levelColumnDefs(colType string) string {
	defs := make([]string, len(tickColumns))
	for i, c := range tickColumns {
		defs[i] = c + " " + colType
	}
	return strings.Join(defs, ",\n\t\t")
}

// insertStatement renders the tick insert with placeholders from ph.
func insertStatement(ph func(i int) string) string {
	cols := append([]string{"contract_id", "timestamp"}, tickColumns[:]...)
	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = ph(i + 1)
	}
	return fmt.Sprintf("INSERT INTO ticks (%s) VALUES (%s)",
		strings.Join(cols, ", "), strings.Join(marks, ", "))
}

// inList renders n placeholders starting at index start.
func inList(ph func(i int) string, start, n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = ph(start + i)
	}
	return strings.Join(marks, ", ")
}

func sqlitePlaceholder(int) string { return "?" }

func postgresPlaceholder(i int) string { return fmt.Sprintf("$%d", i) }
