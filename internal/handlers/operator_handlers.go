package handlers

import (
	"net/http"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
	"github.com/IlTetta/Climate-Monitoring-App/internal/services"
	"github.com/IlTetta/Climate-Monitoring-App/internal/session"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/logging"
)

// OperatorResponse is the public view of an operator; the credential never leaves the server
type OperatorResponse struct {
	ID          int64  `json:"id"`
	NameSurname string `json:"name_surname"`
	TaxCode     string `json:"tax_code"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	CenterID    int64  `json:"center_id"`
}

func newOperatorResponse(op *models.Operator) OperatorResponse {
	return OperatorResponse{
		ID:          op.ID,
		NameSurname: op.NameSurname,
		TaxCode:     op.TaxCode,
		Email:       op.Email,
		Username:    op.Username,
		CenterID:    op.CenterID,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Session  *session.Session `json:"session"`
	Operator OperatorResponse `json:"operator"`
}

type associateRequest struct {
	CenterID int64 `json:"center_id"`
}

// Register handles POST /api/operators
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var reg services.Registration
	if err := decodeJSON(r, &reg); err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	op, err := h.operators.PerformRegistration(r.Context(), reg)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	h.sendJSON(w, newOperatorResponse(op), http.StatusCreated)
}

// Login handles POST /api/sessions
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	op, err := h.operators.PerformLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	if op == nil {
		h.metrics.RecordAPIError("unauthorized", routeTemplate(r))
		h.sendError(w, r, "invalid username or password", http.StatusUnauthorized)
		return
	}

	s := h.sessions.Create(op)
	h.sendJSON(w, loginResponse{Session: s, Operator: newOperatorResponse(op)}, http.StatusCreated)
}

// Logout handles DELETE /api/sessions
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	s, r, err := h.currentSession(r)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	h.sessions.Delete(s.Token)
	h.logger.Info(r.Context(), "[LOGOUT] Session closed", logging.Fields{
		"username": s.Username,
	})
	w.WriteHeader(http.StatusNoContent)
}

// AssociateCenter handles POST /api/operators/me/center
func (h *Handler) AssociateCenter(w http.ResponseWriter, r *http.Request) {
	s, r, err := h.currentSession(r)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	var req associateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	op, err := h.operators.AssociateCenter(r.Context(), s.OperatorID, req.CenterID)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	h.refreshSessionCenter(r, s.Token, op.CenterID)
	h.sendJSON(w, newOperatorResponse(op), http.StatusOK)
}

// refreshSessionCenter keeps the session in step with a new center binding
func (h *Handler) refreshSessionCenter(r *http.Request, token string, centerID int64) {
	if err := h.sessions.SetCenter(token, centerID); err != nil {
		h.logger.Warn(r.Context(), "[SESSION_REFRESH] Session expired before center refresh", logging.Fields{
			"center_id": centerID,
		})
	}
}
