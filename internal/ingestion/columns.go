package ingestion

import "strings"

// Field names a logical column of the call export
type Field string

const (
	FieldDate         Field = "date"
	FieldTime         Field = "time"
	FieldOperator     Field = "operator"
	FieldStatus       Field = "status"
	FieldQueue        Field = "queue"
	FieldDuration     Field = "duration"
	FieldWait         Field = "wait"
	FieldSatisfaction Field = "satisfaction"
)

// ColumnMap maps logical fields to column indexes in the raw grid.
// Built once per dataset from the header row; a missing field is absent
// from the map.
type ColumnMap map[Field]int

// Has reports whether the map resolved an index for field
func (cm ColumnMap) Has(field Field) bool {
	_, ok := cm[field]
	return ok
}

// HasRequired reports whether all fields the record builder needs are present
func (cm ColumnMap) HasRequired() bool {
	return cm.Has(FieldDate) && cm.Has(FieldTime) && cm.Has(FieldOperator) && cm.Has(FieldStatus)
}

// BuildColumnMap matches header texts against known substrings so that
// exports with reordered or renamed columns still resolve. Matching is
// case-insensitive; the first header matching a field wins.
func BuildColumnMap(header []string) ColumnMap {
	cm := make(ColumnMap)

	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		if l == "" {
			continue
		}

		switch {
		case containsAny(l, "data", "date"):
			setFirst(cm, FieldDate, i)
		case containsAny(l, "hora", "time") && !containsAny(l, "dura", "talk", "espera", "wait"):
			setFirst(cm, FieldTime, i)
		case containsAny(l, "operador", "operator", "agente", "agent", "atendente"):
			setFirst(cm, FieldOperator, i)
		case containsAny(l, "status", "situa", "result"):
			setFirst(cm, FieldStatus, i)
		case containsAny(l, "fila", "queue"):
			setFirst(cm, FieldQueue, i)
		case containsAny(l, "dura", "talk"):
			setFirst(cm, FieldDuration, i)
		case containsAny(l, "espera", "wait"):
			setFirst(cm, FieldWait, i)
		case containsAny(l, "satisfa", "nota", "avalia", "rating"):
			setFirst(cm, FieldSatisfaction, i)
		}
	}

	return cm
}

// Value returns the trimmed cell for field, or "" when the column is absent
// or the row is short
func (cm ColumnMap) Value(row []string, field Field) string {
	idx, ok := cm[field]
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func setFirst(cm ColumnMap, field Field, idx int) {
	if _, ok := cm[field]; !ok {
		cm[field] = idx
	}
}
