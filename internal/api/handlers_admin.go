package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	errorvalues "github.com/foresvi/tracker/internal/error_values"
	"github.com/foresvi/tracker/internal/service"
	"github.com/foresvi/tracker/pkg/httputil"
)

type CreateUserRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	GroupID string `json:"group_id,omitempty"`
}

type SetUserGroupRequest struct {
	GroupID string `json:"group_id,omitempty"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	actor, err := GetActorFromContext(r)
	if err != nil {
		logger.Error("list users error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	includeDeleted := r.URL.Query().Get("include_deleted") == "true"
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	users, err := s.userService.ListUsers(ctx, actor.CompanyID, includeDeleted)
	if err != nil {
		logger.Error("list users error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "error while getting users list", nil)
		return
	}
	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"users": resp})
}

func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	actor, err := GetActorFromContext(r)
	if err != nil {
		logger.Error("create user error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req CreateUserRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("create user error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	serviceReq := &service.CreateUserRequest{
		Name:  req.Name,
		Email: req.Email,
	}
	if req.GroupID != "" {
		groupID, err := uuid.Parse(req.GroupID)
		if err != nil {
			logger.Error("create user error: invalid group id")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid group id", nil)
			return
		}
		serviceReq.GroupID = &groupID
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	user, err := s.userService.CreateUser(ctx, actor.CompanyID, serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrValidation):
			logger.Error("create user error: validation failed")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, err.Error(), nil)
		case errors.Is(err, errorvalues.ErrUserExists):
			logger.Error("create user error: duplicate email")
			httputil.WriteErrorResponse(w, http.StatusConflict, "user with such email already exists", nil)
		default:
			logger.Error("create user error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while creating user", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, toUserResponse(user))
	logger.Info("user created", slog.String("user_id", user.ID.String()))
}

func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	s.setUserDeleted(w, r, true, "delete user")
}

func (s *Server) RestoreUser(w http.ResponseWriter, r *http.Request) {
	s.setUserDeleted(w, r, false, "restore user")
}

func (s *Server) setUserDeleted(w http.ResponseWriter, r *http.Request, deleted bool, op string) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error(op + " error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid user id in path value", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if deleted {
		err = s.userService.DeleteUser(ctx, id)
	} else {
		err = s.userService.RestoreUser(ctx, id)
	}
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			logger.Error(op + " error: unexist user")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "user doesn't exist", nil)
			return
		}
		logger.Error(op+" error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while updating user", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	logger.Info(op+" done", slog.String("user_id", id.String()))
}

// SetUserGroup moves a user into a group; an empty group_id clears the
// membership.
func (s *Server) SetUserGroup(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("set user group error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid user id in path value", nil)
		return
	}
	var req SetUserGroupRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("set user group error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	var groupID *uuid.UUID
	if req.GroupID != "" {
		parsed, err := uuid.Parse(req.GroupID)
		if err != nil {
			logger.Error("set user group error: invalid group id")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid group id", nil)
			return
		}
		groupID = &parsed
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	err = s.userService.SetUserGroup(ctx, id, groupID)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrUserNotFound):
			logger.Error("set user group error: unexist user")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "user doesn't exist", nil)
		case errors.Is(err, errorvalues.ErrGroupNotFound):
			logger.Error("set user group error: unexist group")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "group doesn't exist", nil)
		default:
			logger.Error("set user group error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while updating user", nil)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
	logger.Info("user group updated", slog.String("user_id", id.String()))
}

func (s *Server) ListGroups(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	actor, err := GetActorFromContext(r)
	if err != nil {
		logger.Error("list groups error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	groups, err := s.userService.ListGroups(ctx, actor.CompanyID)
	if err != nil {
		logger.Error("list groups error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "error while getting groups list", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"groups": groups})
}

func (s *Server) CreateGroup(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	actor, err := GetActorFromContext(r)
	if err != nil {
		logger.Error("create group error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req CreateGroupRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("create group error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	group, err := s.userService.CreateGroup(ctx, actor.CompanyID, &service.CreateGroupRequest{Name: req.Name})
	if err != nil {
		if errors.Is(err, errorvalues.ErrValidation) {
			logger.Error("create group error: validation failed")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		logger.Error("create group error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while creating group", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, group)
	logger.Info("group created", slog.String("group_id", group.ID.String()))
}

func (s *Server) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("delete group error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid group id in path value", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	blocking, err := s.userService.DeleteGroup(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrGroupHasMembers):
			logger.Error("delete group error: group still has members", slog.Int("members", blocking))
			httputil.WriteErrorResponse(w, http.StatusConflict,
				fmt.Sprintf("group still has %d active members", blocking), nil)
		case errors.Is(err, errorvalues.ErrGroupNotFound):
			logger.Error("delete group error: unexist group")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "group doesn't exist", nil)
		default:
			logger.Error("delete group error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while deleting group", nil)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
	logger.Info("group deleted", slog.String("group_id", id.String()))
}
