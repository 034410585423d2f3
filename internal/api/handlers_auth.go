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
	"github.com/foresvi/tracker/pkg/entity"
	"github.com/foresvi/tracker/pkg/httputil"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID        string      `json:"id"`
	CompanyID string      `json:"company_id"`
	GroupID   *uuid.UUID  `json:"group_id,omitempty"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      entity.Role `json:"role"`
	Deleted   bool        `json:"deleted"`
}

func toUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		CompanyID: u.CompanyID,
		GroupID:   u.GroupID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Deleted:   u.DeletedAt != nil,
	}
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req LoginRequest
	defer r.Body.Close()
	err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("login error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	user, err := s.userService.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrWrongCredentials):
			logger.Error("login error: wrong credentials")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "invalid email or password", nil)
			return
		default:
			logger.Error("login error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error during login", nil)
			return
		}
	}
	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		logger.Error("login error: generating token error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "error creating token", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"user":  toUserResponse(user),
		"token": token,
	})
	logger.Info("successful login")
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	actor, err := GetActorFromContext(r)
	if err != nil {
		logger.Error("me error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	user, err := s.userService.GetByID(ctx, actor.ID)
	if err != nil {
		logger.Error("me error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting user", nil)
		return
	}
	resp := map[string]any{"user": toUserResponse(user)}
	if claims, err := GetClaimsFromContext(r); err == nil && claims.ImpersonatorID != "" {
		resp["impersonator_id"] = claims.ImpersonatorID
	}
	httputil.WriteJSONResponse(w, http.StatusOK, resp)
}

// Impersonate issues a token acting as the target user. The admin's own
// id rides along in the claims so the session can be reverted.
func (s *Server) Impersonate(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	actor, err := GetActorFromContext(r)
	if err != nil {
		logger.Error("impersonation error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	claims, err := GetClaimsFromContext(r)
	if err == nil && claims.ImpersonatorID != "" {
		logger.Error("impersonation error: nested impersonation attempt")
		httputil.WriteErrorResponse(w, http.StatusConflict, "already impersonating", nil)
		return
	}
	targetID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("impersonation error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid user id in path value", nil)
		return
	}
	if targetID == actor.ID {
		logger.Error("impersonation error: self target")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "cannot impersonate yourself", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	target, err := s.userService.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			logger.Error("impersonation error: unexist user")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "user doesn't exist", nil)
			return
		}
		logger.Error("impersonation error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting user", nil)
		return
	}
	if target.DeletedAt != nil {
		logger.Error("impersonation error: deactivated target")
		httputil.WriteErrorResponse(w, http.StatusConflict, "cannot impersonate a deactivated user", nil)
		return
	}
	token, err := s.jwtService.GenerateImpersonationToken(target, actor.ID.String())
	if err != nil {
		logger.Error("impersonation error: generating token error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "error creating token", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"user":  toUserResponse(target),
		"token": token,
	})
	logger.Info("impersonation started", slog.String("target", targetID.String()))
}

// StopImpersonation swaps the impersonated session back for the admin's
// own token.
func (s *Server) StopImpersonation(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	claims, err := GetClaimsFromContext(r)
	if err != nil || claims.ImpersonatorID == "" {
		logger.Error("stop impersonation error: not impersonating")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "not impersonating", nil)
		return
	}
	impersonatorID, err := uuid.Parse(claims.ImpersonatorID)
	if err != nil {
		logger.Error("stop impersonation error: invalid impersonator id in claims")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "invalid token payload", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	admin, err := s.userService.GetByID(ctx, impersonatorID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			logger.Error("stop impersonation error: unexist impersonator")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "impersonator doesn't exist", nil)
			return
		}
		logger.Error("stop impersonation error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting user", nil)
		return
	}
	token, err := s.jwtService.GenerateToken(admin)
	if err != nil {
		logger.Error("stop impersonation error: generating token error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "error creating token", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"user":  toUserResponse(admin),
		"token": token,
	})
	logger.Info("impersonation stopped")
}
