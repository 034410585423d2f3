package service

import (
	"github.com/google/uuid"

	"github.com/foresvi/tracker/pkg/entity"
)

// Pure scoring rules shared by the dashboard and the report export.
// Each rule lives here exactly once so call sites cannot drift.

// HabitScoreInput is the slice of an assignment the scoring engine
// needs.
type HabitScoreInput struct {
	AssignmentID   uuid.UUID
	IsConsolidated bool
}

// LogKey addresses one cell of the progress matrix.
type LogKey struct {
	AssignmentID uuid.UUID
	Period       string
}

type PeriodScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type ScoreSummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// NextStatus is the canonical click rotation:
// NEGRA -> VERDE -> AMARILLA -> ROJA -> NEGRA.
func NextStatus(current entity.Status) entity.Status {
	switch current {
	case entity.StatusNegra:
		return entity.StatusVerde
	case entity.StatusVerde:
		return entity.StatusAmarilla
	case entity.StatusAmarilla:
		return entity.StatusRoja
	default:
		return entity.StatusNegra
	}
}

// EffectiveStatus resolves the status a cell scores and displays as.
// On a consolidated assignment any NEGRA, logged or defaulted, reads
// as VERDE; an explicit non-NEGRA log is never overridden.
func EffectiveStatus(raw entity.Status, consolidated bool) entity.Status {
	if consolidated && raw == entity.StatusNegra {
		return entity.StatusVerde
	}
	return raw
}

// LogLookup indexes logs by (assignment, period) for O(1) cell access.
func LogLookup(logs []entity.ProgressLog) map[LogKey]entity.Status {
	lookup := make(map[LogKey]entity.Status, len(logs))
	for _, l := range logs {
		lookup[LogKey{AssignmentID: l.AssignmentID, Period: l.PeriodIdentifier}] = l.Status
	}
	return lookup
}

// MonthlyStatuses derives per-month statuses from weekly logs: logs are
// grouped by (assignment, month label) through the week-to-month map,
// and each group resolves to its statistical mode. Ties go to the
// status latest in the fixed order NEGRA, ROJA, AMARILLA, VERDE, so
// the higher-valued status wins. Weeks outside the map are skipped.
// Nothing is persisted; monthly rows exist only in the returned lookup.
func MonthlyStatuses(logs []entity.ProgressLog, weekToMonth map[string]string) map[LogKey]entity.Status {
	counts := make(map[LogKey]*[4]int)
	for _, l := range logs {
		month, ok := weekToMonth[l.PeriodIdentifier]
		if !ok {
			continue
		}
		key := LogKey{AssignmentID: l.AssignmentID, Period: month}
		c, ok := counts[key]
		if !ok {
			c = &[4]int{}
			counts[key] = c
		}
		for i, s := range entity.StatusOrder {
			if l.Status == s {
				c[i]++
				break
			}
		}
	}
	derived := make(map[LogKey]entity.Status, len(counts))
	for key, c := range counts {
		maxCount := -1
		mode := entity.StatusNegra
		for i, s := range entity.StatusOrder {
			if c[i] >= maxCount {
				maxCount = c[i]
				mode = s
			}
		}
		derived[key] = mode
	}
	return derived
}

// PeriodScores sums the effective cell scores of the habit set for each
// label of the axis. A missing log reads as NEGRA before the
// consolidation override applies.
func PeriodScores(habits []HabitScoreInput, axis []string, lookup map[LogKey]entity.Status) []PeriodScore {
	scores := make([]PeriodScore, 0, len(axis))
	for _, label := range axis {
		var score float64
		for _, h := range habits {
			raw, ok := lookup[LogKey{AssignmentID: h.AssignmentID, Period: label}]
			if !ok {
				raw = entity.StatusNegra
			}
			score += EffectiveStatus(raw, h.IsConsolidated).Value()
		}
		scores = append(scores, PeriodScore{Label: label, Score: score})
	}
	return scores
}

// Summarize computes min, max and arithmetic mean over the period
// scores. Formatting to two decimals is the caller's concern.
func Summarize(scores []PeriodScore) ScoreSummary {
	if len(scores) == 0 {
		return ScoreSummary{}
	}
	summary := ScoreSummary{Min: scores[0].Score, Max: scores[0].Score}
	var total float64
	for _, s := range scores {
		if s.Score < summary.Min {
			summary.Min = s.Score
		}
		if s.Score > summary.Max {
			summary.Max = s.Score
		}
		total += s.Score
	}
	summary.Avg = total / float64(len(scores))
	return summary
}
