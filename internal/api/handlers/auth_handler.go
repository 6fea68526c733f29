package handlers

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/meetup-planner/app/internal/api/flash"
	"github.com/meetup-planner/app/internal/api/middleware"
	"github.com/meetup-planner/app/internal/api/types"
	"github.com/meetup-planner/app/internal/api/validators"
	"github.com/meetup-planner/app/internal/api/views"
	"github.com/meetup-planner/app/internal/services"
	"github.com/meetup-planner/app/internal/session"
	appErr "github.com/meetup-planner/app/pkg/errors"
)

type AuthHandler struct {
	pages
	auth     services.AuthService
	sessions *session.Manager
	validate *validator.Validate
}

func NewAuthHandler(v *views.Renderer, auth services.AuthService, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{pages: pages{views: v}, auth: auth, sessions: sessions, validate: validators.New()}
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if middleware.CurrentUser(r.Context()) != nil {
		redirect(w, r, "/")
		return
	}
	h.render(w, r, http.StatusOK, "login", "Log in", types.LoginRequest{Next: safeNext(r.URL.Query().Get("next"))})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req := types.LoginRequest{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Next:     safeNext(r.PostFormValue("next")),
	}
	form := types.LoginRequest{Email: req.Email, Next: req.Next}

	if err := h.validate.Struct(req); err != nil {
		h.renderFlash(w, r, http.StatusBadRequest, "login", "Log in", form, &flash.Message{Kind: flash.KindError, Text: validators.Message(err)})
		return
	}

	u, err := h.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if appErr.IsCode(err, appErr.CodeUnauthorized) {
			h.renderFlash(w, r, http.StatusUnauthorized, "login", "Log in", form, &flash.Message{Kind: flash.KindError, Text: appErr.MessageOf(err)})
			return
		}
		h.renderError(w, r, err)
		return
	}

	if err := h.sessions.Start(r.Context(), w, u.ID); err != nil {
		h.renderError(w, r, err)
		return
	}
	target := req.Next
	if target == "" {
		target = "/"
	}
	redirect(w, r, target)
}

func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if middleware.CurrentUser(r.Context()) != nil {
		redirect(w, r, "/")
		return
	}
	h.render(w, r, http.StatusOK, "register", "Register", nil)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req := types.RegisterRequest{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Name:     strings.TrimSpace(r.PostFormValue("name")),
	}
	form := types.RegisterRequest{Email: req.Email, Name: req.Name}

	if err := h.validate.Struct(req); err != nil {
		h.renderFlash(w, r, http.StatusBadRequest, "register", "Register", form, &flash.Message{Kind: flash.KindError, Text: validators.Message(err)})
		return
	}

	if _, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Name); err != nil {
		if appErr.IsCode(err, appErr.CodeAlreadyExists) || appErr.IsCode(err, appErr.CodeInvalid) {
			h.renderFlash(w, r, types.HTTPStatus(err), "register", "Register", form, &flash.Message{Kind: flash.KindError, Text: appErr.MessageOf(err)})
			return
		}
		h.renderError(w, r, err)
		return
	}

	flash.Success(w, "Registration successful! Please login.")
	redirect(w, r, "/login")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.End(r.Context(), w, r)
	redirect(w, r, "/")
}
