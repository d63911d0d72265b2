package alerts

import (
	"fmt"

	"github.com/dialboard/backend/internal/types"
)

// Thresholds below which an operator's KPIs raise alerts
const (
	serviceLevelWarning  = 70.0
	serviceLevelCritical = 50.0
	adherenceWarning     = 75.0
	satisfactionWarning  = 60.0
	answerRateCritical   = 50.0

	// avgHandleTimeWarning is in seconds
	avgHandleTimeWarning = 600.0
)

// CheckOperatorAlerts evaluates alert rules for a slice of operators,
// mutating each operator's Alerts field in place.
func CheckOperatorAlerts(operators []types.OperatorMetrics) {
	for i := range operators {
		operators[i].Alerts = nil

		op := &operators[i]

		if op.ServiceLevel < serviceLevelCritical {
			op.Alerts = append(op.Alerts, types.OperatorAlert{
				Rule:     "service_level_low",
				Severity: types.SeverityCritical,
				Message:  fmt.Sprintf("Service level at %.1f%%", op.ServiceLevel),
			})
		} else if op.ServiceLevel < serviceLevelWarning {
			op.Alerts = append(op.Alerts, types.OperatorAlert{
				Rule:     "service_level_low",
				Severity: types.SeverityWarning,
				Message:  fmt.Sprintf("Service level at %.1f%%", op.ServiceLevel),
			})
		}

		if op.Adherence < adherenceWarning {
			op.Alerts = append(op.Alerts, types.OperatorAlert{
				Rule:     "adherence_low",
				Severity: types.SeverityWarning,
				Message:  fmt.Sprintf("Adherence at %.1f%%", op.Adherence),
			})
		}

		if op.TotalCalls > 0 {
			answerRate := float64(op.AnsweredCalls) / float64(op.TotalCalls) * 100
			if answerRate < answerRateCritical {
				op.Alerts = append(op.Alerts, types.OperatorAlert{
					Rule:     "answer_rate_low",
					Severity: types.SeverityCritical,
					Message:  fmt.Sprintf("Only %.1f%% of calls answered", answerRate),
				})
			}
		}

		if op.AvgTalkSeconds > avgHandleTimeWarning {
			op.Alerts = append(op.Alerts, types.OperatorAlert{
				Rule:     "handle_time_high",
				Severity: types.SeverityWarning,
				Message:  fmt.Sprintf("Average handle time at %.0fs", op.AvgTalkSeconds),
			})
		}

		if op.Satisfaction > 0 && op.Satisfaction < satisfactionWarning {
			op.Alerts = append(op.Alerts, types.OperatorAlert{
				Rule:     "satisfaction_low",
				Severity: types.SeverityWarning,
				Message:  fmt.Sprintf("Satisfaction at %.1f%%", op.Satisfaction),
			})
		}

		if op.Trend == types.TrendDown {
			op.Alerts = append(op.Alerts, types.OperatorAlert{
				Rule:     "efficiency_declining",
				Severity: types.SeverityWarning,
				Message:  fmt.Sprintf("Efficiency dropped %.1f points between sub-periods", -op.Improvement),
			})
		}
	}
}
