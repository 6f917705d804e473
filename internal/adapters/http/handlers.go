package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/crewhub/membership-service/internal/application"
	"github.com/crewhub/membership-service/internal/domain"
	"github.com/crewhub/membership-service/internal/ports"
)

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
			return
		}
		claims, err := h.service.VerifyToken(r.Context(), raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithClaims(r.Context(), claims)))
	})
}

func contextWithClaims(ctx context.Context, claims ports.AuthClaims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, claims)
}

func mustClaims(w http.ResponseWriter, r *http.Request) (ports.AuthClaims, bool) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
	}
	return claims, ok
}

func (h *Handler) createExtensionRequest(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}
	var req application.CreateExtensionRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	resp, err := h.service.CreateExtensionRequest(r.Context(), claims, req, r.Header.Get("Idempotency-Key"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) listExtensionRequests(w http.ResponseWriter, r *http.Request) {
	if _, ok := mustClaims(w, r); !ok {
		return
	}
	query := application.ListExtensionRequestsQuery{
		Assignee: r.URL.Query().Get("assignee"),
		TaskID:   r.URL.Query().Get("taskId"),
		Cursor:   r.URL.Query().Get("cursor"),
		Order:    r.URL.Query().Get("order"),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		query.Statuses = strings.Split(raw, ",")
	}
	if raw := r.URL.Query().Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "size must be an integer")
			return
		}
		query.Size = size
	}
	resp, err := h.service.ListExtensionRequests(r.Context(), query)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) getSelfExtensionRequests(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}
	resp, err := h.service.GetSelfExtensionRequests(r.Context(), claims, r.URL.Query().Get("taskId"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"allExtensionRequests": resp})
}

func (h *Handler) getExtensionRequest(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.GetExtensionRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) updateExtensionRequestStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}
	var req application.UpdateExtensionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	resp, err := h.service.UpdateExtensionRequestStatus(r.Context(), claims, chi.URLParam(r, "id"), req)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) updateExtensionRequestDetails(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}
	var req application.UpdateExtensionDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	resp, err := h.service.UpdateExtensionRequestDetails(r.Context(), claims, chi.URLParam(r, "id"), req)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) setUserStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}
	var req application.SetUserStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	result, err := h.service.SetUserStatus(r.Context(), claims, chi.URLParam(r, "userId"), req, r.Header.Get("Idempotency-Key"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeMessageData(w, status, result.Message, result.Status)
}

// getUserStatus answers 404 with a null data field when the user has no
// CURRENT status or when the path segment is the "self" literal.
func (h *Handler) getUserStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := mustClaims(w, r); !ok {
		return
	}
	resp, err := h.service.GetUserStatus(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeMessageData(w, http.StatusNotFound, "User Status not found", nil)
			return
		}
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) sweepUserStatuses(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}
	if claims.Role != domain.RoleSuperUser {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "super-user role required")
		return
	}
	resp, err := h.service.SweepUserStatuses(r.Context())
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	if _, ok := mustClaims(w, r); !ok {
		return
	}
	meta := map[string]string{}
	for _, key := range []string{"taskId", "extensionRequestId", "userId", "action"} {
		if value := r.URL.Query().Get(key); value != "" {
			meta[key] = value
		}
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be an integer")
			return
		}
		limit = parsed
	}
	resp, err := h.service.ListAuditLogs(r.Context(), chi.URLParam(r, "type"), meta, limit)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"logs": resp})
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}
	var req application.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	resp, err := h.service.CreateTask(r.Context(), claims, req)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusCreated, resp)
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}
