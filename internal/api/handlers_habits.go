package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	errorvalues "github.com/foresvi/tracker/internal/error_values"
	"github.com/foresvi/tracker/internal/service"
	"github.com/foresvi/tracker/pkg/httputil"
)

type HabitRequest struct {
	Topic        string  `json:"topic"`
	Name         string  `json:"name"`
	Cue          string  `json:"cue"`
	Craving      string  `json:"craving"`
	Response     string  `json:"response"`
	Reward       string  `json:"reward"`
	ExternalLink *string `json:"external_link,omitempty"`
}

func (hr *HabitRequest) toInput() *service.HabitInput {
	return &service.HabitInput{
		Topic:        hr.Topic,
		Name:         hr.Name,
		Cue:          hr.Cue,
		Craving:      hr.Craving,
		Response:     hr.Response,
		Reward:       hr.Reward,
		ExternalLink: hr.ExternalLink,
	}
}

func (s *Server) CreateHabit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	actor, err := GetActorFromContext(r)
	if err != nil {
		logger.Error("create habit error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req HabitRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("create habit error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	habit, err := s.habitService.CreateHabit(ctx, actor.CompanyID, req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrValidation):
			logger.Error("create habit error: validation failed")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, err.Error(), nil)
		case errors.Is(err, errorvalues.ErrHabitExists):
			logger.Error("create habit error: duplicate name")
			httputil.WriteErrorResponse(w, http.StatusConflict, "habit with such name already exists", nil)
		default:
			logger.Error("create habit error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while creating habit", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, habit)
	logger.Info("habit created", slog.String("habit_id", habit.ID.String()))
}

// CreatePrivateHabit creates a habit owned by the caller. It never shows
// up in the shared catalog until an admin promotes it.
func (s *Server) CreatePrivateHabit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	actor, err := GetActorFromContext(r)
	if err != nil {
		logger.Error("create private habit error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req HabitRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("create private habit error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	habit, err := s.habitService.CreatePrivateHabit(ctx, actor.CompanyID, actor.ID, req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrValidation):
			logger.Error("create private habit error: validation failed")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, err.Error(), nil)
		case errors.Is(err, errorvalues.ErrHabitExists):
			logger.Error("create private habit error: duplicate name")
			httputil.WriteErrorResponse(w, http.StatusConflict, "habit with such name already exists", nil)
		default:
			logger.Error("create private habit error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while creating habit", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, habit)
	logger.Info("private habit created", slog.String("habit_id", habit.ID.String()))
}

func (s *Server) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("update habit error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid habit id in path value", nil)
		return
	}
	var req HabitRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("update habit error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	habit, err := s.habitService.UpdateHabit(ctx, id, req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrValidation):
			logger.Error("update habit error: validation failed")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, err.Error(), nil)
		case errors.Is(err, errorvalues.ErrHabitNotFound):
			logger.Error("update habit error: unexist habit")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "habit doesn't exist", nil)
		default:
			logger.Error("update habit error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while updating habit", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, habit)
	logger.Info("habit updated", slog.String("habit_id", id.String()))
}

func (s *Server) ArchiveHabit(w http.ResponseWriter, r *http.Request) {
	s.setHabitArchived(w, r, true, "archive habit")
}

func (s *Server) RestoreHabit(w http.ResponseWriter, r *http.Request) {
	s.setHabitArchived(w, r, false, "restore habit")
}

func (s *Server) setHabitArchived(w http.ResponseWriter, r *http.Request, archived bool, op string) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error(op + " error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid habit id in path value", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if archived {
		err = s.habitService.ArchiveHabit(ctx, id)
	} else {
		err = s.habitService.RestoreHabit(ctx, id)
	}
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			logger.Error(op + " error: unexist habit")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "habit doesn't exist", nil)
			return
		}
		logger.Error(op+" error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while updating habit", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	logger.Info(op+" done", slog.String("habit_id", id.String()))
}

func (s *Server) PromoteHabit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("promote habit error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid habit id in path value", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	err = s.habitService.PromoteToGlobal(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			logger.Error("promote habit error: unexist habit")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "habit doesn't exist", nil)
			return
		}
		logger.Error("promote habit error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while promoting habit", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	logger.Info("habit promoted to global", slog.String("habit_id", id.String()))
}

func (s *Server) ListCatalog(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	actor, err := GetActorFromContext(r)
	if err != nil {
		logger.Error("list catalog error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	includeArchived := r.URL.Query().Get("include_archived") == "true" && actor.Role.IsAdmin()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	habits, err := s.habitService.ListCatalog(ctx, actor.CompanyID, includeArchived)
	if err != nil {
		logger.Error("list catalog error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "error while getting habits catalog", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"habits": habits})
}

func (s *Server) ListAssignees(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("list assignees error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid habit id in path value", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	users, err := s.habitService.ListAssignees(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			logger.Error("list assignees error: unexist habit")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "habit doesn't exist", nil)
			return
		}
		logger.Error("list assignees error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "error while getting assignees", nil)
		return
	}
	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"users": resp})
}

// ImportHabits accepts either a multipart upload under "file" or the raw
// delimited text as the request body.
func (s *Server) ImportHabits(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	actor, err := GetActorFromContext(r)
	if err != nil {
		logger.Error("import habits error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var src io.Reader = r.Body
	defer r.Body.Close()
	if file, _, err := r.FormFile("file"); err == nil {
		defer file.Close()
		src = file
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()
	summary, err := s.importerService.ImportHabits(ctx, actor.CompanyID, src)
	if err != nil {
		logger.Error("import habits error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "couldn't parse import payload", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, summary)
	logger.Info("habits imported",
		slog.Int("created", summary.Created),
		slog.Int("updated", summary.Updated),
		slog.Int("failed", summary.Failed))
}
