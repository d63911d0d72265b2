package kpi

// Config holds the tunables the engine uses when deriving KPIs.
// Updated at runtime via Engine.UpdateConfig; changes affect subsequent
// computations only, cached results are not rewritten.
type Config struct {
	ServiceLevelTargetSeconds int     `json:"serviceLevelTargetSeconds"`
	WorkingHours              float64 `json:"workingHours"`
	BreakHours                float64 `json:"breakHours"`
}

// DefaultConfig returns the stock KPI configuration
func DefaultConfig() Config {
	return Config{
		ServiceLevelTargetSeconds: 30,
		WorkingHours:              8,
		BreakHours:                1,
	}
}

// Validate reports whether the configuration is usable
func (c Config) Validate() bool {
	return c.ServiceLevelTargetSeconds > 0 &&
		c.WorkingHours > 0 &&
		c.BreakHours >= 0 &&
		c.BreakHours < c.WorkingHours
}
