package quality

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dialboard/backend/internal/ingestion"
	"github.com/dialboard/backend/internal/normalize"
	"github.com/dialboard/backend/internal/types"
	"github.com/rs/zerolog"
)

// Durations above a full day are treated as recording glitches
const maxPlausibleDuration = 24 * 60 * 60

// Auditor runs the normalizer independently over every raw row to explain
// why rows are invalid, not just that they are. It deliberately does not
// reuse the record builder's output: the builder discards rejected rows,
// the auditor has to account for them.
type Auditor struct {
	aliases normalize.AliasTable
	logger  zerolog.Logger
}

// NewAuditor creates an auditor over the given alias tables
func NewAuditor(aliases normalize.AliasTable, logger zerolog.Logger) *Auditor {
	return &Auditor{
		aliases: aliases,
		logger:  logger.With().Str("component", "auditor").Logger(),
	}
}

// Audit produces a quality report for a full raw dataset. rows are the data
// rows only, header excluded.
func (a *Auditor) Audit(rows []types.RawRow, cm ingestion.ColumnMap) types.QualityReport {
	// Fresh normalizer per run so the seen-operator state starts clean
	normalizer := normalize.NewNormalizer(a.aliases)

	report := types.QualityReport{
		TotalRecords: len(rows),
		GeneratedAt:  time.Now(),
	}

	seen := make(map[string]bool)

	for _, row := range rows {
		date := cm.Value(row, ingestion.FieldDate)
		clock := cm.Value(row, ingestion.FieldTime)
		rawOperator := cm.Value(row, ingestion.FieldOperator)
		rawStatus := cm.Value(row, ingestion.FieldStatus)

		valid := true

		for _, required := range []string{date, clock, rawOperator, rawStatus} {
			if required == "" {
				report.IssueCounts.Missing++
				valid = false
			}
		}

		if date != "" && clock != "" {
			if _, err := ingestion.ParseTimestamp(date, clock); err != nil {
				report.IssueCounts.FormatErrors++
				valid = false
			}
		}

		var status types.NormalizationResult
		if rawOperator != "" {
			if r := normalizer.Normalize(normalize.KindOperator, rawOperator); !r.IsValid {
				report.IssueCounts.FormatErrors++
				valid = false
			}
		}
		if rawStatus != "" {
			status = normalizer.Normalize(normalize.KindStatus, rawStatus)
			if !status.IsValid {
				report.IssueCounts.FormatErrors++
				valid = false
			}
		}
		if rawQueue := cm.Value(row, ingestion.FieldQueue); rawQueue != "" {
			if r := normalizer.Normalize(normalize.KindQueue, rawQueue); !r.IsValid {
				report.IssueCounts.FormatErrors++
			}
		}

		duration := 0
		if rawDuration := cm.Value(row, ingestion.FieldDuration); rawDuration != "" {
			r := normalizer.Normalize(normalize.KindDuration, rawDuration)
			if !r.IsValid {
				report.IssueCounts.FormatErrors++
				valid = false
			}
			duration, _ = strconv.Atoi(r.NormalizedValue)
		}

		if status.IsValid {
			report.IssueCounts.Inconsistencies += countInconsistencies(types.CallStatus(status.NormalizedValue), duration)
		}

		// Duplicate rows share (date, time, operator) after trim, case-insensitive.
		// First occurrence stays canonical; later ones are counted.
		if date != "" && clock != "" && rawOperator != "" {
			key := strings.ToLower(date) + "|" + strings.ToLower(clock) + "|" + strings.ToLower(rawOperator)
			if seen[key] {
				report.IssueCounts.Duplicates++
				valid = false
			}
			seen[key] = true
		}

		if valid {
			report.ValidRecords++
		}
	}

	report.InvalidRecords = report.TotalRecords - report.ValidRecords
	report.QualityScore = score(report)
	report.Recommendations = recommendations(report.IssueCounts)

	a.logger.Info().
		Int("total", report.TotalRecords).
		Int("valid", report.ValidRecords).
		Float64("score", report.QualityScore).
		Msg("quality audit complete")

	return report
}

// countInconsistencies cross-checks status against talk duration. Flagged,
// never auto-corrected.
func countInconsistencies(status types.CallStatus, duration int) int {
	count := 0
	if status == types.StatusMissed && duration > 0 {
		count++
	}
	if status == types.StatusAnswered && duration == 0 {
		count++
	}
	if duration > maxPlausibleDuration {
		count++
	}
	return count
}

func score(report types.QualityReport) float64 {
	if report.TotalRecords == 0 {
		return 0
	}

	issues := report.IssueCounts.Duplicates +
		report.IssueCounts.Inconsistencies +
		report.IssueCounts.Missing +
		report.IssueCounts.FormatErrors

	s := float64(report.ValidRecords)/float64(report.TotalRecords)*100 - 2*float64(issues)
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// recommendations derives deterministic advice from the non-zero counters
func recommendations(counts types.QualityIssueCounts) []string {
	var recs []string

	if counts.Duplicates > 0 {
		recs = append(recs, fmt.Sprintf("Remove %d duplicate row(s) sharing the same date, time and operator", counts.Duplicates))
	}
	if counts.Missing > 0 {
		recs = append(recs, fmt.Sprintf("Fill in %d missing required field value(s) (date, time, operator or status)", counts.Missing))
	}
	if counts.Inconsistencies > 0 {
		recs = append(recs, fmt.Sprintf("Review %d status/duration mismatch(es), e.g. missed calls with talk time recorded", counts.Inconsistencies))
	}
	if counts.FormatErrors > 0 {
		recs = append(recs, fmt.Sprintf("Standardize %d field value(s) that failed format checks, or extend the alias tables", counts.FormatErrors))
	}
	if len(recs) == 0 {
		recs = append(recs, "No data quality issues detected")
	}

	return recs
}
