package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/filegate/service/internal/response"
	"github.com/filegate/service/internal/session"
	"github.com/filegate/service/internal/user"
)

// Handler holds HTTP handlers for auth endpoints.
type Handler struct {
	svc          *Service
	sessionTTL   time.Duration
	secureCookie bool
}

// NewHandler creates a new auth Handler. secureCookie should be true when
// the service is only reachable over HTTPS.
func NewHandler(svc *Service, sessionTTL time.Duration, secureCookie bool) *Handler {
	return &Handler{svc: svc, sessionTTL: sessionTTL, secureCookie: secureCookie}
}

type credentialsRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"correct horse battery"`
}

type loginData struct {
	Token string     `json:"token" example:"eyJhbGci..."`
	User  *user.User `json:"user"`
}

type logoutData struct {
	LoggedOut bool `json:"loggedOut"`
}

// Register godoc
//
//	@Summary		Register
//	@Description	Create an account. The password is stored as a salted argon2id hash.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		credentialsRequest	true	"Username and password"
//	@Success		201		{object}	response.Envelope{data=user.User}
//	@Failure		400		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	u, err := h.svc.Register(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, ErrInvalidUsername), errors.Is(err, ErrWeakPassword):
		response.BadRequest(w, err.Error())
		return
	case errors.Is(err, ErrUsernameTaken):
		response.Conflict(w, err.Error())
		return
	case err != nil:
		response.InternalError(w)
		return
	}

	response.Created(w, u)
}

// Login godoc
//
//	@Summary		Log in
//	@Description	Verify credentials, set the session cookie and return the same token for Bearer use.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		credentialsRequest	true	"Username and password"
//	@Success		200		{object}	response.Envelope{data=loginData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	token, u, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		response.Unauthorized(w, err.Error())
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	response.OK(w, loginData{Token: token, User: u})
}

// Logout godoc
//
//	@Summary		Log out
//	@Description	Clear the session cookie. Bearer tokens stay valid until they expire.
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	response.Envelope{data=logoutData}
//	@Router			/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	response.OK(w, logoutData{LoggedOut: true})
}
