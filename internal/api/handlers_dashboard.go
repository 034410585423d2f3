package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	errorvalues "github.com/foresvi/tracker/internal/error_values"
	"github.com/foresvi/tracker/internal/service"
	"github.com/foresvi/tracker/pkg/httputil"
)

// GetDashboard renders the progress matrix for the caller, or for
// another user when an admin passes user_id. Query params: view
// (weekly|monthly), anchor (YYYY-MM-DD, defaults to today), user_id.
func (s *Server) GetDashboard(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	actor, err := GetActorFromContext(r)
	if err != nil {
		logger.Error("dashboard error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	targetID := actor.ID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		targetID, err = uuid.Parse(raw)
		if err != nil {
			logger.Error("dashboard error: invalid user id")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid user id", nil)
			return
		}
	}
	if !actor.CanActOn(targetID) {
		logger.Error("dashboard error: forbidden target")
		httputil.WriteErrorResponse(w, http.StatusForbidden, "cannot view another user's dashboard", nil)
		return
	}
	view := service.ViewMode(r.URL.Query().Get("view"))
	if view != service.ViewMonthly {
		view = service.ViewWeekly
	}
	anchor := time.Now()
	if raw := r.URL.Query().Get("anchor"); raw != "" {
		anchor, err = time.Parse("2006-01-02", raw)
		if err != nil {
			logger.Error("dashboard error: invalid anchor date")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid anchor date, expected YYYY-MM-DD", nil)
			return
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	dashboard, err := s.dashboardService.GetDashboard(ctx, targetID, view, anchor)
	if err != nil {
		logger.Error("dashboard error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "error while building dashboard", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, dashboard)
}

// ExportUserReport streams the progress report as a CSV attachment.
func (s *Server) ExportUserReport(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	actor, err := GetActorFromContext(r)
	if err != nil {
		logger.Error("export report error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	targetID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("export report error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid user id in path value", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()
	report, err := s.reportService.BuildUserReport(ctx, actor, targetID)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrForbidden):
			logger.Error("export report error: forbidden target")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "cannot export another user's report", nil)
		case errors.Is(err, errorvalues.ErrUserNotFound):
			logger.Error("export report error: unexist user")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "user doesn't exist", nil)
		default:
			logger.Error("export report error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "error while building report", nil)
		}
		return
	}
	httputil.WriteCSVAttachment(w, report.Filename, report.CSV)
	logger.Info("report exported", slog.String("target", targetID.String()))
}
