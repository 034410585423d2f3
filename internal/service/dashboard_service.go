package service

import (
	"context"
	"errors"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/foresvi/tracker/internal/repository"
	"github.com/foresvi/tracker/pkg/entity"
)

// HabitView is an assignment rendered with its effective text: the
// snapshot custom fields, falling back to the template only for legacy
// rows created before a custom field was populated.
type HabitView struct {
	AssignmentID   uuid.UUID `json:"assignment_id"`
	HabitID        uuid.UUID `json:"habit_id"`
	Topic          string    `json:"topic"`
	Name           string    `json:"name"`
	Cue            string    `json:"cue"`
	Craving        string    `json:"craving"`
	Response       string    `json:"response"`
	Reward         string    `json:"reward"`
	ExternalLink   *string   `json:"external_link,omitempty"`
	IsConsolidated bool      `json:"is_consolidated"`
}

// Cell is one (assignment, period) status of the progress matrix. For
// the monthly view cells carry derived statuses that were never stored.
type Cell struct {
	AssignmentID uuid.UUID     `json:"assignment_id"`
	Period       string        `json:"period"`
	Status       entity.Status `json:"status"`
}

type DashboardView struct {
	View    ViewMode      `json:"view"`
	Anchor  time.Time     `json:"anchor"`
	Axis    []string      `json:"axis"`
	Habits  []HabitView   `json:"habits"`
	Cells   []Cell        `json:"cells"`
	Scores  []PeriodScore `json:"scores"`
	Summary ScoreSummary  `json:"summary"`
}

type DashboardService struct {
	assignmentsRepo repository.AssignmentsRepositoryI
	progressRepo    repository.ProgressRepositoryI
}

func NewDashboardService(assignmentsRepo repository.AssignmentsRepositoryI, progressRepo repository.ProgressRepositoryI) *DashboardService {
	if assignmentsRepo == nil || progressRepo == nil {
		log.Fatal("on dashboard service provided nil repos")
	}
	return &DashboardService{
		assignmentsRepo: assignmentsRepo,
		progressRepo:    progressRepo,
	}
}

func (ds *DashboardService) GetDashboard(ctx context.Context, userID uuid.UUID, view ViewMode, anchor time.Time) (*DashboardView, error) {
	assigned, err := ds.assignmentsRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, errors.New("assignments repository error: " + err.Error())
	}

	habits := make([]HabitView, 0, len(assigned))
	inputs := make([]HabitScoreInput, 0, len(assigned))
	ids := make([]uuid.UUID, 0, len(assigned))
	for _, item := range assigned {
		habits = append(habits, ResolveHabitView(&item.Assignment, &item.Habit))
		inputs = append(inputs, HabitScoreInput{
			AssignmentID:   item.Assignment.ID,
			IsConsolidated: item.Assignment.IsConsolidated,
		})
		ids = append(ids, item.Assignment.ID)
	}
	SortHabitViews(habits)

	logs, err := ds.progressRepo.ListByAssignments(ctx, ids)
	if err != nil {
		return nil, errors.New("progress repository error: " + err.Error())
	}

	var axis []string
	var lookup map[LogKey]entity.Status
	if view == ViewMonthly {
		weekToMonth, months := WeekToMonth(anchor)
		axis = months
		lookup = MonthlyStatuses(logs, weekToMonth)
	} else {
		view = ViewWeekly
		axis = WeekAxis(anchor)
		lookup = LogLookup(logs)
	}

	cells := make([]Cell, 0, len(lookup))
	for key, status := range lookup {
		cells = append(cells, Cell{AssignmentID: key.AssignmentID, Period: key.Period, Status: status})
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].AssignmentID != cells[j].AssignmentID {
			return cells[i].AssignmentID.String() < cells[j].AssignmentID.String()
		}
		return cells[i].Period < cells[j].Period
	})

	scores := PeriodScores(inputs, axis, lookup)
	return &DashboardView{
		View:    view,
		Anchor:  anchor,
		Axis:    axis,
		Habits:  habits,
		Cells:   cells,
		Scores:  scores,
		Summary: Summarize(scores),
	}, nil
}

// ResolveHabitView applies the effective-field rule: the assignment's
// snapshot wins; the template is a fallback for fields never populated.
func ResolveHabitView(a *entity.Assignment, h *entity.Habit) HabitView {
	view := HabitView{
		AssignmentID:   a.ID,
		HabitID:        h.ID,
		Topic:          h.Topic,
		Name:           fallback(a.CustomName, h.Name),
		Cue:            fallback(a.CustomCue, h.Cue),
		Craving:        fallback(a.CustomCraving, h.Craving),
		Response:       fallback(a.CustomResponse, h.Response),
		Reward:         fallback(a.CustomReward, h.Reward),
		IsConsolidated: a.IsConsolidated,
	}
	if a.CustomExternalLink != nil {
		view.ExternalLink = a.CustomExternalLink
	} else {
		view.ExternalLink = h.ExternalLink
	}
	return view
}

func fallback(custom *string, base string) string {
	if custom != nil && *custom != "" {
		return *custom
	}
	return base
}

var leadingNumber = regexp.MustCompile(`^\d+`)

// topicRank orders topics: an explicit leading number wins, then the
// standard FORESVI topic sequence, then everything else.
func topicRank(topic string) int {
	if topic == "" {
		return 99
	}
	t := strings.ToUpper(topic)
	if m := leadingNumber.FindString(t); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n
		}
	}
	switch {
	case strings.Contains(t, "DESTINO"):
		return 1
	case strings.Contains(t, "DINERO"):
		return 2
	case strings.Contains(t, "GESTION"), strings.Contains(t, "TIEMPO"):
		return 3
	case strings.Contains(t, "SERVICIO"):
		return 4
	case strings.Contains(t, "MARKETING"), strings.Contains(t, "VENTAS"):
		return 5
	case strings.Contains(t, "SISTEMA"):
		return 6
	case strings.Contains(t, "EQUIPO"):
		return 7
	case strings.Contains(t, "SINERGIA"):
		return 8
	case strings.Contains(t, "RESULTADOS"):
		return 9
	}
	return 99
}

// SortHabitViews orders non-consolidated habits first, then by topic
// rank, then by name.
func SortHabitViews(habits []HabitView) {
	sort.SliceStable(habits, func(i, j int) bool {
		a, b := habits[i], habits[j]
		if a.IsConsolidated != b.IsConsolidated {
			return !a.IsConsolidated
		}
		ra, rb := topicRank(a.Topic), topicRank(b.Topic)
		if ra != rb {
			return ra < rb
		}
		return a.Name < b.Name
	})
}
