package risk

// Level is one of the four ordered risk tiers.
type Level string

const (
	LevelLow      Level = "Baixo"
	LevelMedium   Level = "Médio"
	LevelHigh     Level = "Alto"
	LevelCritical Level = "Crítico"
)

// Range maps a closed score interval [Min, Max] to a level.
type Range struct {
	Min   int
	Max   int
	Level Level
	Color string
}

// DefaultRanges returns the screening score ranges in lookup order.
// Ranges are non-overlapping; the last one is open-ended at the top.
func DefaultRanges() []Range {
	return []Range{
		{Min: 0, Max: 32, Level: LevelLow, Color: "#10B981"},
		{Min: 33, Max: 42, Level: LevelMedium, Color: "#F59E0B"},
		{Min: 43, Max: 52, Level: LevelHigh, Color: "#F97316"},
		{Min: 53, Max: 999, Level: LevelCritical, Color: "#EF4444"},
	}
}

// Classify maps a cumulative score to its risk level, first match in
// range order. Scores outside every range fall back to the highest tier.
func Classify(score int) Level {
	for _, r := range DefaultRanges() {
		if score >= r.Min && score <= r.Max {
			return r.Level
		}
	}
	return LevelCritical
}

// ColorFor returns the display color for a level, used by report
// consumers. Unknown levels get a neutral blue.
func ColorFor(level Level) string {
	for _, r := range DefaultRanges() {
		if r.Level == level {
			return r.Color
		}
	}
	return "#3498DB"
}
