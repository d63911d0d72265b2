package types

import "time"

// CallStatus is the canonical status of a call after normalization.
// Raw source strings never leave the normalizer.
type CallStatus string

const (
	StatusAnswered  CallStatus = "Answered"
	StatusMissed    CallStatus = "Missed"
	StatusAbandoned CallStatus = "Abandoned"
	StatusWaiting   CallStatus = "Waiting"
)

// AllStatuses returns all canonical call statuses
var AllStatuses = []CallStatus{
	StatusAnswered,
	StatusMissed,
	StatusAbandoned,
	StatusWaiting,
}

// DefaultQueue is the canonical queue assigned when the source has none
const DefaultQueue = "General"

// PeriodOfDay buckets a call timestamp by local hour
type PeriodOfDay string

const (
	PeriodMorning   PeriodOfDay = "morning"   // 06:00-11:59
	PeriodAfternoon PeriodOfDay = "afternoon" // 12:00-17:59
	PeriodEvening   PeriodOfDay = "evening"   // everything else
)

// RawRow is one unparsed row from an upstream source (spreadsheet or PBX API)
type RawRow []string

// CallRecord is one normalized call event. Built once by the record builder
// from a raw row and immutable afterwards.
type CallRecord struct {
	ID              string      `json:"id"`
	Timestamp       time.Time   `json:"timestamp"`
	Operator        string      `json:"operator"`
	Queue           string      `json:"queue"`
	Status          CallStatus  `json:"status"`
	DurationSeconds int         `json:"durationSeconds"`
	WaitSeconds     int         `json:"waitSeconds"`
	Satisfaction    float64     `json:"satisfaction,omitempty"` // 1-5, 0 when absent
	PeriodOfDay     PeriodOfDay `json:"periodOfDay"`
	DayOfWeek       string      `json:"dayOfWeek"`
	IsWeekend       bool        `json:"isWeekend"`
}

// Trend describes the direction of an operator's efficiency between
// the two halves of the observation window
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// AlertSeverity represents the severity of an operator alert
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// OperatorAlert represents a threshold breach on an operator's KPIs
type OperatorAlert struct {
	Rule     string        `json:"rule"`
	Severity AlertSeverity `json:"severity"`
	Message  string        `json:"message"`
}

// OperatorMetrics holds the aggregate KPIs for one operator over a window.
// Recomputed wholesale on every engine invocation, never mutated in place.
type OperatorMetrics struct {
	Operator string `json:"operator"`

	TotalCalls     int `json:"totalCalls"`
	AnsweredCalls  int `json:"answeredCalls"`
	MissedCalls    int `json:"missedCalls"`
	AbandonedCalls int `json:"abandonedCalls"`

	TotalTalkSeconds int     `json:"totalTalkSeconds"`
	AvgTalkSeconds   float64 `json:"avgTalkSeconds"`
	TotalWaitSeconds int     `json:"totalWaitSeconds"`
	AvgWaitSeconds   float64 `json:"avgWaitSeconds"`

	ServiceLevel        float64 `json:"serviceLevel"`        // 0-100%
	Efficiency          float64 `json:"efficiency"`          // 0-100%
	Availability        float64 `json:"availability"`        // 0-100%
	Productivity        float64 `json:"productivity"`        // calls/hour
	Adherence           float64 `json:"adherence"`           // 0-100%
	FirstCallResolution float64 `json:"firstCallResolution"` // 0-100% proxy
	Satisfaction        float64 `json:"satisfaction"`        // 0-100% proxy

	Score       float64 `json:"score"`
	Ranking     int     `json:"ranking"` // 1-based position by weighted score
	Percentile  int     `json:"percentile"`
	Trend       Trend   `json:"trend"`
	Improvement float64 `json:"improvement"` // percentage-point delta between sub-periods

	Alerts []OperatorAlert `json:"alerts,omitempty"`
}

// GeneralMetrics holds aggregate KPIs across all operators
type GeneralMetrics struct {
	TotalCalls      int     `json:"totalCalls"`
	AnsweredCalls   int     `json:"answeredCalls"`
	MissedCalls     int     `json:"missedCalls"`
	AbandonedCalls  int     `json:"abandonedCalls"`
	ServiceLevel    float64 `json:"serviceLevel"`    // 0-100%
	AbandonmentRate float64 `json:"abandonmentRate"` // 0-100%
	AvgTalkSeconds  float64 `json:"avgTalkSeconds"`
	AvgWaitSeconds  float64 `json:"avgWaitSeconds"`
	OperatorCount   int     `json:"operatorCount"`

	CallsByQueue  map[string]int      `json:"callsByQueue"`
	CallsByPeriod map[PeriodOfDay]int `json:"callsByPeriod"`
}

// NormalizationResult is the outcome of normalizing one raw field value.
// Consumed immediately by the record builder and the quality auditor,
// never persisted.
type NormalizationResult struct {
	OriginalValue   string   `json:"originalValue"`
	NormalizedValue string   `json:"normalizedValue"`
	Confidence      float64  `json:"confidence"` // 0-1
	IsValid         bool     `json:"isValid"`
	Warnings        []string `json:"warnings,omitempty"`
	Suggestions     []string `json:"suggestions,omitempty"`
}

// QualityIssueCounts breaks a quality report down by issue class
type QualityIssueCounts struct {
	Duplicates      int `json:"duplicates"`
	Inconsistencies int `json:"inconsistencies"`
	Missing         int `json:"missing"`
	FormatErrors    int `json:"formatErrors"`
}

// QualityReport is the result of one full dataset audit
type QualityReport struct {
	TotalRecords    int                `json:"totalRecords"`
	ValidRecords    int                `json:"validRecords"`
	InvalidRecords  int                `json:"invalidRecords"`
	QualityScore    float64            `json:"qualityScore"` // 0-100
	IssueCounts     QualityIssueCounts `json:"issueCounts"`
	Recommendations []string           `json:"recommendations"`
	GeneratedAt     time.Time          `json:"generatedAt"`
}

// Snapshot is the payload broadcast to dashboard clients after each sync
type Snapshot struct {
	Type      string            `json:"type"` // always "snapshot"
	Timestamp time.Time         `json:"timestamp"`
	Operators []OperatorMetrics `json:"operators"`
	Aggregate GeneralMetrics    `json:"aggregate"`
	Quality   *QualityReport    `json:"quality,omitempty"`
}
