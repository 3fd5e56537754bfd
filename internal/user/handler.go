package user

import (
	"net/http"

	"github.com/filegate/service/internal/response"
	"github.com/filegate/service/internal/session"
)

// Handler holds HTTP handlers for user-related endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new user Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GetMe godoc
//
//	@Summary		Get current user
//	@Description	Returns the account of the currently logged-in user.
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=User}
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/users/me [get]
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	p, err := session.FromContext(r.Context())
	if err != nil {
		response.Unauthorized(w, "login required")
		return
	}

	u, err := h.svc.GetByID(r.Context(), p.UserID)
	if err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "user not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, u)
}
