package ingestion

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dialboard/backend/internal/normalize"
	"github.com/dialboard/backend/internal/types"
	"github.com/rs/zerolog"
)

// Builder maps raw rows into canonical CallRecords, delegating field
// cleanup to the normalizer. Rows missing a required field produce nil
// rather than an error; the quality auditor reports the why separately.
type Builder struct {
	normalizer *normalize.Normalizer
	logger     zerolog.Logger
}

// NewBuilder creates a record builder
func NewBuilder(normalizer *normalize.Normalizer, logger zerolog.Logger) *Builder {
	return &Builder{
		normalizer: normalizer,
		logger:     logger.With().Str("component", "builder").Logger(),
	}
}

// Build converts one raw row into a CallRecord. Returns nil when the row
// lacks a required field (date, time, operator, status) or its timestamp
// does not parse.
func (b *Builder) Build(row types.RawRow, cm ColumnMap, rowIndex int) *types.CallRecord {
	date := cm.Value(row, FieldDate)
	clock := cm.Value(row, FieldTime)
	rawOperator := cm.Value(row, FieldOperator)
	rawStatus := cm.Value(row, FieldStatus)

	if date == "" || clock == "" || rawOperator == "" || rawStatus == "" {
		return nil
	}

	ts, err := ParseTimestamp(date, clock)
	if err != nil {
		b.logger.Debug().Int("row", rowIndex).Str("date", date).Str("time", clock).Msg("unparseable timestamp, row dropped")
		return nil
	}

	operator := b.normalizer.Normalize(normalize.KindOperator, rawOperator)
	status := b.normalizer.Normalize(normalize.KindStatus, rawStatus)
	if !status.IsValid {
		// A status outside the canonical enum cannot be represented
		b.logger.Debug().Int("row", rowIndex).Str("status", rawStatus).Msg("unmappable status, row dropped")
		return nil
	}

	queue := b.normalizer.Normalize(normalize.KindQueue, cm.Value(row, FieldQueue))
	duration := b.normalizer.Normalize(normalize.KindDuration, cm.Value(row, FieldDuration))
	wait := b.normalizer.Normalize(normalize.KindDuration, cm.Value(row, FieldWait))

	durationSeconds, _ := strconv.Atoi(duration.NormalizedValue)
	waitSeconds, _ := strconv.Atoi(wait.NormalizedValue)

	record := &types.CallRecord{
		ID:              recordID(ts, rowIndex),
		Timestamp:       ts,
		Operator:        operator.NormalizedValue,
		Queue:           queue.NormalizedValue,
		Status:          types.CallStatus(status.NormalizedValue),
		DurationSeconds: durationSeconds,
		WaitSeconds:     waitSeconds,
		Satisfaction:    parseSatisfaction(cm.Value(row, FieldSatisfaction)),
		PeriodOfDay:     periodOfDay(ts),
		DayOfWeek:       ts.Weekday().String(),
		IsWeekend:       ts.Weekday() == time.Saturday || ts.Weekday() == time.Sunday,
	}
	return record
}

// BuildAll converts data rows in source order, dropping rejected rows.
// Order preservation matters: the trend computation splits the record
// stream into halves by index.
func (b *Builder) BuildAll(rows []types.RawRow, cm ColumnMap) []types.CallRecord {
	records := make([]types.CallRecord, 0, len(rows))
	for i, row := range rows {
		if record := b.Build(row, cm, i); record != nil {
			records = append(records, *record)
		}
	}
	return records
}

// ParseTimestamp combines a date and a time-of-day string into a timestamp.
// Dates in DD/MM/YYYY are rewritten to YYYY-MM-DD before parsing.
func ParseTimestamp(date, clock string) (time.Time, error) {
	if parts := strings.Split(date, "/"); len(parts) == 3 {
		date = fmt.Sprintf("%s-%s-%s", parts[2], parts[1], parts[0])
	}

	combined := date + " " + clock
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if ts, err := time.ParseInLocation(layout, combined, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", combined)
}

// recordID derives a stable identifier from row position and timestamp,
// for sources that carry no ID of their own
func recordID(ts time.Time, rowIndex int) string {
	return fmt.Sprintf("%s-%04d", ts.Format("20060102T150405"), rowIndex)
}

func periodOfDay(ts time.Time) types.PeriodOfDay {
	switch hour := ts.Hour(); {
	case hour >= 6 && hour < 12:
		return types.PeriodMorning
	case hour >= 12 && hour < 18:
		return types.PeriodAfternoon
	default:
		return types.PeriodEvening
	}
}

// parseSatisfaction accepts 1-5 ratings with dot or comma decimals;
// anything else is treated as absent (0)
func parseSatisfaction(raw string) float64 {
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil || f < 1 || f > 5 {
		return 0
	}
	return f
}
