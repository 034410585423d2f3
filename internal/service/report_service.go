package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	errorvalues "github.com/foresvi/tracker/internal/error_values"
	"github.com/foresvi/tracker/internal/repository"
	"github.com/foresvi/tracker/pkg/entity"
)

// ReportService renders the per-user progress report: a summary block,
// the habit detail table and the period-by-habit evolution matrix.
// Cells resolve through the same EffectiveStatus rule as the dashboard,
// so the export always matches what the user sees on screen.
type ReportService struct {
	usersRepo       repository.UsersRepositoryI
	groupsRepo      repository.GroupsRepositoryI
	assignmentsRepo repository.AssignmentsRepositoryI
	progressRepo    repository.ProgressRepositoryI
}

func NewReportService(
	usersRepo repository.UsersRepositoryI,
	groupsRepo repository.GroupsRepositoryI,
	assignmentsRepo repository.AssignmentsRepositoryI,
	progressRepo repository.ProgressRepositoryI,
) *ReportService {
	if usersRepo == nil || groupsRepo == nil || assignmentsRepo == nil || progressRepo == nil {
		log.Fatal("on report service provided nil repos")
	}
	return &ReportService{
		usersRepo:       usersRepo,
		groupsRepo:      groupsRepo,
		assignmentsRepo: assignmentsRepo,
		progressRepo:    progressRepo,
	}
}

func (rs *ReportService) BuildUserReport(ctx context.Context, actor Actor, targetUserID uuid.UUID) (*Report, error) {
	if !actor.CanActOn(targetUserID) {
		return nil, errorvalues.ErrForbidden
	}
	target, err := rs.usersRepo.FindByID(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return nil, err
		}
		return nil, errors.New("users repository error: " + err.Error())
	}

	groupName := "-"
	if target.GroupID != nil {
		group, err := rs.groupsRepo.GetByID(ctx, *target.GroupID)
		if err == nil {
			groupName = group.Name
		}
	}

	assigned, err := rs.assignmentsRepo.ListActiveByUser(ctx, targetUserID)
	if err != nil {
		return nil, errors.New("assignments repository error: " + err.Error())
	}
	views := make([]HabitView, 0, len(assigned))
	consolidated := make(map[uuid.UUID]bool, len(assigned))
	ids := make([]uuid.UUID, 0, len(assigned))
	for _, item := range assigned {
		views = append(views, ResolveHabitView(&item.Assignment, &item.Habit))
		consolidated[item.Assignment.ID] = item.Assignment.IsConsolidated
		ids = append(ids, item.Assignment.ID)
	}
	SortHabitViews(views)

	logs, err := rs.progressRepo.ListByAssignments(ctx, ids)
	if err != nil {
		return nil, errors.New("progress repository error: " + err.Error())
	}

	body, err := renderReportCSV(target, groupName, views, consolidated, logs, time.Now())
	if err != nil {
		return nil, errors.New("rendering report error: " + err.Error())
	}
	return &Report{
		Filename: reportFilename(target.Name),
		CSV:      body,
	}, nil
}

func renderReportCSV(
	target *entity.User,
	groupName string,
	views []HabitView,
	consolidated map[uuid.UUID]bool,
	logs []entity.ProgressLog,
	now time.Time,
) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	// Summary block
	rows := [][]string{
		{"INFORME DE HABITOS - FORESVI"},
		{"Usuario", target.Name},
		{"Email", target.Email},
		{"Grupo", groupName},
		{"Fecha Informe", now.Format("2006-01-02")},
		{"Habitos Activos", strconv.Itoa(len(views))},
		{},
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	// Habit detail
	if err := w.Write([]string{"TEMA", "HABITO", "SEÑAL", "ANHELO", "ACCION", "RECOMPENSA", "ENLACE", "ESTADO"}); err != nil {
		return nil, err
	}
	for _, v := range views {
		state := "Activo"
		if v.IsConsolidated {
			state = "Afianzado"
		}
		link := ""
		if v.ExternalLink != nil {
			link = *v.ExternalLink
		}
		if err := w.Write([]string{v.Topic, v.Name, v.Cue, v.Craving, v.Response, v.Reward, link, state}); err != nil {
			return nil, err
		}
	}
	if err := w.Write([]string{}); err != nil {
		return nil, err
	}

	// Evolution matrix: one row per logged period (most recent label
	// first), one column per habit, cell = effective status.
	header := make([]string, 0, len(views)+1)
	header = append(header, "PERIODO")
	for _, v := range views {
		header = append(header, strings.ToUpper(v.Name))
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	lookup := LogLookup(logs)
	periods := distinctPeriodsDesc(logs)
	for _, period := range periods {
		row := make([]string, 0, len(views)+1)
		row = append(row, period)
		for _, v := range views {
			raw, ok := lookup[LogKey{AssignmentID: v.AssignmentID, Period: period}]
			if !ok {
				raw = entity.StatusNegra
			}
			row = append(row, string(EffectiveStatus(raw, consolidated[v.AssignmentID])))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func distinctPeriodsDesc(logs []entity.ProgressLog) []string {
	seen := make(map[string]struct{}, len(logs))
	periods := make([]string, 0, len(logs))
	for _, l := range logs {
		if _, ok := seen[l.PeriodIdentifier]; ok {
			continue
		}
		seen[l.PeriodIdentifier] = struct{}{}
		periods = append(periods, l.PeriodIdentifier)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))
	return periods
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9]+`)

func reportFilename(userName string) string {
	name := unsafeFilenameChars.ReplaceAllString(strings.ToLower(userName), "_")
	return "informe_" + strings.Trim(name, "_") + ".csv"
}
