package kpi

import (
	"math"
	"sort"
	"sync"

	"github.com/dialboard/backend/internal/types"
)

// Score weights for the operator ranking
const (
	weightServiceLevel = 0.30
	weightEfficiency   = 0.25
	weightAvailability = 0.20
	weightProductivity = 0.15
	weightSatisfaction = 0.10
)

// Efficiency blend constants
const (
	efficiencyBase     = 70.0
	callBonusPerCall   = 0.2
	callBonusCap       = 20.0
	durationBonusPerHr = 2.0
	durationBonusCap   = 10.0
)

// Engagement thresholds, in seconds
const (
	adherenceMinTalk  = 30
	fcrMinTalk        = 120
	satisfactionMin   = 60
	satisfactionMax   = 600
	satisfactionWait  = 30
	trendDeltaPercent = 5.0
)

// Engine derives operator and aggregate KPIs from normalized call records.
// All computations are pure functions of the input slice; callers window
// the records by time range before handing them over.
type Engine struct {
	mu  sync.RWMutex
	cfg Config
}

// NewEngine creates an engine with the given configuration
func NewEngine(cfg Config) *Engine {
	if !cfg.Validate() {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg}
}

// Config returns the current configuration
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// UpdateConfig swaps the configuration used by subsequent computations
func (e *Engine) UpdateConfig(cfg Config) bool {
	if !cfg.Validate() {
		return false
	}
	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
	return true
}

// ComputeOperatorMetrics derives the full KPI set for one operator's records.
// An empty slice yields all-zero metrics with a stable trend, never an error.
func (e *Engine) ComputeOperatorMetrics(records []types.CallRecord) types.OperatorMetrics {
	cfg := e.Config()

	m := types.OperatorMetrics{Trend: types.TrendStable}
	if len(records) == 0 {
		return m
	}
	m.Operator = records[0].Operator

	answeredInTarget := 0
	adherent := 0
	resolvedFirst := 0
	satisfied := 0

	for _, r := range records {
		m.TotalCalls++
		m.TotalTalkSeconds += r.DurationSeconds
		m.TotalWaitSeconds += r.WaitSeconds

		switch r.Status {
		case types.StatusAnswered:
			m.AnsweredCalls++
			if r.WaitSeconds <= cfg.ServiceLevelTargetSeconds {
				answeredInTarget++
			}
			if r.DurationSeconds > adherenceMinTalk {
				adherent++
			}
			if r.DurationSeconds > fcrMinTalk {
				resolvedFirst++
			}
			if r.DurationSeconds > satisfactionMin && r.DurationSeconds < satisfactionMax && r.WaitSeconds < satisfactionWait {
				satisfied++
			}
		case types.StatusMissed:
			m.MissedCalls++
		case types.StatusAbandoned:
			m.AbandonedCalls++
		}
	}

	m.AvgTalkSeconds = ratio(float64(m.TotalTalkSeconds), float64(m.AnsweredCalls))
	m.AvgWaitSeconds = ratio(float64(m.TotalWaitSeconds), float64(m.TotalCalls))

	m.ServiceLevel = percent(answeredInTarget, m.AnsweredCalls)
	m.Efficiency = efficiency(m.AnsweredCalls, m.TotalTalkSeconds)
	m.Availability = percent(m.AnsweredCalls, m.TotalCalls)
	m.Productivity = productivity(m.TotalCalls, cfg)
	m.Adherence = percent(adherent, m.TotalCalls)
	m.FirstCallResolution = percent(resolvedFirst, m.AnsweredCalls)
	m.Satisfaction = percent(satisfied, m.AnsweredCalls)

	m.Score = m.ServiceLevel*weightServiceLevel +
		m.Efficiency*weightEfficiency +
		m.Availability*weightAvailability +
		m.Productivity*weightProductivity +
		m.Satisfaction*weightSatisfaction
	m.Percentile = clampInt(int(math.Round(m.Score)), 0, 100)

	m.Trend, m.Improvement = e.trend(records)
	return m
}

// ComputePerOperator groups records by operator, derives each operator's
// KPIs and assigns rankings by descending weighted score. Records must
// arrive in source order: the trend split relies on it.
func (e *Engine) ComputePerOperator(records []types.CallRecord) []types.OperatorMetrics {
	groups := make(map[string][]types.CallRecord)
	order := make([]string, 0)
	for _, r := range records {
		if _, ok := groups[r.Operator]; !ok {
			order = append(order, r.Operator)
		}
		groups[r.Operator] = append(groups[r.Operator], r)
	}

	metrics := make([]types.OperatorMetrics, 0, len(order))
	for _, operator := range order {
		metrics = append(metrics, e.ComputeOperatorMetrics(groups[operator]))
	}

	// Deterministic ranking: score descending, name as tie-breaker
	sort.SliceStable(metrics, func(i, j int) bool {
		if metrics[i].Score != metrics[j].Score {
			return metrics[i].Score > metrics[j].Score
		}
		return metrics[i].Operator < metrics[j].Operator
	})
	for i := range metrics {
		metrics[i].Ranking = i + 1
	}

	return metrics
}

// ComputeAggregate derives the call-center wide KPI summary
func (e *Engine) ComputeAggregate(records []types.CallRecord) types.GeneralMetrics {
	cfg := e.Config()

	g := types.GeneralMetrics{
		CallsByQueue:  make(map[string]int),
		CallsByPeriod: make(map[types.PeriodOfDay]int),
	}

	answeredInTarget := 0
	totalTalk := 0
	totalWait := 0
	operators := make(map[string]struct{})

	for _, r := range records {
		g.TotalCalls++
		totalTalk += r.DurationSeconds
		totalWait += r.WaitSeconds
		g.CallsByQueue[r.Queue]++
		g.CallsByPeriod[r.PeriodOfDay]++
		operators[r.Operator] = struct{}{}

		switch r.Status {
		case types.StatusAnswered:
			g.AnsweredCalls++
			if r.WaitSeconds <= cfg.ServiceLevelTargetSeconds {
				answeredInTarget++
			}
		case types.StatusMissed:
			g.MissedCalls++
		case types.StatusAbandoned:
			g.AbandonedCalls++
		}
	}

	g.ServiceLevel = percent(answeredInTarget, g.AnsweredCalls)
	g.AbandonmentRate = percent(g.AbandonedCalls, g.TotalCalls)
	g.AvgTalkSeconds = ratio(float64(totalTalk), float64(g.AnsweredCalls))
	g.AvgWaitSeconds = ratio(float64(totalWait), float64(g.TotalCalls))
	g.OperatorCount = len(operators)
	return g
}

// trend compares the efficiency of the two contiguous halves of the record
// set, in index order. A swing beyond +/-5 percentage points moves the
// trend off stable; the raw delta is reported as improvement.
func (e *Engine) trend(records []types.CallRecord) (types.Trend, float64) {
	if len(records) < 2 {
		return types.TrendStable, 0
	}

	half := len(records) / 2
	first := halfEfficiency(records[:half])
	second := halfEfficiency(records[half:])
	diff := second - first

	switch {
	case diff > trendDeltaPercent:
		return types.TrendUp, diff
	case diff < -trendDeltaPercent:
		return types.TrendDown, diff
	default:
		return types.TrendStable, diff
	}
}

func halfEfficiency(records []types.CallRecord) float64 {
	answered := 0
	talk := 0
	for _, r := range records {
		if r.Status == types.StatusAnswered {
			answered++
		}
		talk += r.DurationSeconds
	}
	return efficiency(answered, talk)
}

// efficiency blends call volume and talk time into a 0-100 output proxy
func efficiency(answeredCalls, totalTalkSeconds int) float64 {
	callBonus := math.Min(float64(answeredCalls)*callBonusPerCall, callBonusCap)
	durationBonus := math.Min(float64(totalTalkSeconds)/3600*durationBonusPerHr, durationBonusCap)
	return math.Min(100, efficiencyBase+callBonus+durationBonus)
}

func productivity(totalCalls int, cfg Config) float64 {
	hours := cfg.WorkingHours - cfg.BreakHours
	return ratio(float64(totalCalls), hours)
}

// percent is numerator/denominator*100 with a zero denominator yielding 0
func percent(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator) * 100
}

func ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
