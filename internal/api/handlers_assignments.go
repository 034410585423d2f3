package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	errorvalues "github.com/foresvi/tracker/internal/error_values"
	"github.com/foresvi/tracker/internal/service"
	"github.com/foresvi/tracker/pkg/entity"
	"github.com/foresvi/tracker/pkg/httputil"
)

type AssignRequest struct {
	UserID  string `json:"user_id,omitempty"`
	HabitID string `json:"habit_id"`
}

type CustomizeRequest struct {
	CustomName         *string `json:"custom_name,omitempty"`
	CustomCue          *string `json:"custom_cue,omitempty"`
	CustomCraving      *string `json:"custom_craving,omitempty"`
	CustomResponse     *string `json:"custom_response,omitempty"`
	CustomReward       *string `json:"custom_reward,omitempty"`
	CustomExternalLink *string `json:"custom_external_link,omitempty"`
	IsConsolidated     *bool   `json:"is_consolidated,omitempty"`
}

type ProgressRequest struct {
	AssignmentID string        `json:"assignment_id"`
	Period       string        `json:"period"`
	Status       entity.Status `json:"status"`
}

// resolveTargetUser picks the subject of an assignment call: the body's
// user_id when present, the caller otherwise.
func resolveTargetUser(actor service.Actor, raw string) (uuid.UUID, error) {
	if raw == "" {
		return actor.ID, nil
	}
	return uuid.Parse(raw)
}

func (s *Server) Assign(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	actor, err := GetActorFromContext(r)
	if err != nil {
		logger.Error("assign error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req AssignRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("assign error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	habitID, err := uuid.Parse(req.HabitID)
	if err != nil {
		logger.Error("assign error: invalid habit id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid habit id", nil)
		return
	}
	userID, err := resolveTargetUser(actor, req.UserID)
	if err != nil {
		logger.Error("assign error: invalid user id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid user id", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	assignment, err := s.assignmentService.Assign(ctx, actor, userID, habitID)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrForbidden):
			logger.Error("assign error: forbidden target")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "cannot assign habits to another user", nil)
		case errors.Is(err, errorvalues.ErrHabitNotFound):
			logger.Error("assign error: unexist habit")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "habit doesn't exist", nil)
		default:
			logger.Error("assign error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while assigning habit", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, assignment)
	logger.Info("habit assigned", slog.String("assignment_id", assignment.ID.String()))
}

func (s *Server) Unassign(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	actor, err := GetActorFromContext(r)
	if err != nil {
		logger.Error("unassign error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	habitID, err := uuid.Parse(r.URL.Query().Get("habit_id"))
	if err != nil {
		logger.Error("unassign error: invalid habit id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid habit id", nil)
		return
	}
	userID, err := resolveTargetUser(actor, r.URL.Query().Get("user_id"))
	if err != nil {
		logger.Error("unassign error: invalid user id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid user id", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	err = s.assignmentService.Unassign(ctx, actor, userID, habitID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrForbidden) {
			logger.Error("unassign error: forbidden target")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "cannot unassign habits of another user", nil)
			return
		}
		logger.Error("unassign error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while unassigning habit", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	logger.Info("habit unassigned", slog.String("habit_id", habitID.String()))
}

func (s *Server) Customize(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	actor, err := GetActorFromContext(r)
	if err != nil {
		logger.Error("customize error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("customize error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid assignment id in path value", nil)
		return
	}
	var req CustomizeRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("customize error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	assignment, err := s.assignmentService.Customize(ctx, actor, id, &service.CustomizeInput{
		CustomName:         req.CustomName,
		CustomCue:          req.CustomCue,
		CustomCraving:      req.CustomCraving,
		CustomResponse:     req.CustomResponse,
		CustomReward:       req.CustomReward,
		CustomExternalLink: req.CustomExternalLink,
		IsConsolidated:     req.IsConsolidated,
	})
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrAssignmentNotFound):
			logger.Error("customize error: unexist assignment")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "assignment doesn't exist", nil)
		case errors.Is(err, errorvalues.ErrForbidden):
			logger.Error("customize error: forbidden target")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "cannot customize another user's assignment", nil)
		default:
			logger.Error("customize error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while customizing assignment", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, assignment)
	logger.Info("assignment customized", slog.String("assignment_id", id.String()))
}

func (s *Server) SetProgress(w http.ResponseWriter, r *http.Request) {
	s.writeProgress(w, r, false)
}

func (s *Server) CycleProgress(w http.ResponseWriter, r *http.Request) {
	s.writeProgress(w, r, true)
}

// writeProgress handles both progress endpoints: a direct status write
// and the matrix-click rotation. For the rotation the body's status
// field carries the status currently on screen.
func (s *Server) writeProgress(w http.ResponseWriter, r *http.Request, cycle bool) {
	logger := GetLoggerFromCtx(r.Context())
	actor, err := GetActorFromContext(r)
	if err != nil {
		logger.Error("progress error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req ProgressRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("progress error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	assignmentID, err := uuid.Parse(req.AssignmentID)
	if err != nil {
		logger.Error("progress error: invalid assignment id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid assignment id", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	var stored entity.Status
	if cycle {
		stored, err = s.progressService.CycleStatus(ctx, actor, assignmentID, req.Period, req.Status)
	} else {
		stored, err = s.progressService.SetStatus(ctx, actor, assignmentID, req.Period, req.Status)
	}
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrValidation):
			logger.Error("progress error: validation failed")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, err.Error(), nil)
		case errors.Is(err, errorvalues.ErrAssignmentNotFound):
			logger.Error("progress error: unexist assignment")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "assignment doesn't exist", nil)
		case errors.Is(err, errorvalues.ErrForbidden):
			logger.Error("progress error: forbidden target")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "cannot log progress for another user", nil)
		default:
			logger.Error("progress error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while saving progress", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"assignment_id": assignmentID.String(),
		"period":        req.Period,
		"status":        stored,
	})
	logger.Info("progress saved",
		slog.String("assignment_id", assignmentID.String()),
		slog.String("period", req.Period))
}
