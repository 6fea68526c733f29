package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/meetup-planner/app/internal/api/flash"
	"github.com/meetup-planner/app/internal/api/middleware"
	"github.com/meetup-planner/app/internal/api/types"
	"github.com/meetup-planner/app/internal/api/views"
	appErr "github.com/meetup-planner/app/pkg/errors"
	"github.com/meetup-planner/app/pkg/logger"
	"go.uber.org/zap"
)

// pages is embedded by every HTML handler.
type pages struct {
	views *views.Renderer
}

func (p pages) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	p.renderFlash(w, r, status, name, title, data, flash.Pop(w, r))
}

// renderFlash renders with msg in place of any pending flash cookie.
func (p pages) renderFlash(w http.ResponseWriter, r *http.Request, status int, name, title string, data any, msg *flash.Message) {
	page := types.Page{
		Title:     title,
		User:      middleware.CurrentUser(r.Context()),
		Flash:     msg,
		RequestID: middleware.GetRequestID(r.Context()),
		Data:      data,
	}
	if err := p.views.Render(w, status, name, page); err != nil {
		logger.L().Error("render failed",
			zap.String("id", page.RequestID),
			zap.String("page", name),
			zap.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (p pages) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := types.HTTPStatus(err)
	msg := appErr.MessageOf(err)
	if status >= http.StatusInternalServerError {
		logger.L().Error("request failed",
			zap.String("id", middleware.GetRequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg = "Something went wrong. Please try again."
	}
	text := http.StatusText(status)
	p.render(w, r, status, "error", text, types.ErrorData{StatusCode: status, StatusText: text, Message: msg})
}

// fail answers a rejected mutation. Rule violations go back to target with a
// flash; missing records and internal failures get an error page.
func (p pages) fail(w http.ResponseWriter, r *http.Request, target string, err error) {
	switch appErr.CodeOf(err) {
	case appErr.CodeInvalid, appErr.CodeInvalidState, appErr.CodeForbidden:
		flash.Error(w, appErr.MessageOf(err))
		redirect(w, r, target)
	default:
		p.renderError(w, r, err)
	}
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func idParam(r *http.Request, name, entity string) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		return 0, appErr.NotFound(entity)
	}
	return uint(id), nil
}

// safeNext returns next when it is a path on this site, otherwise "".
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return next
}

func proposalPath(id uint) string { return "/proposal/" + strconv.FormatUint(uint64(id), 10) }

type ErrorHandler struct {
	pages
}

func NewErrorHandler(v *views.Renderer) *ErrorHandler { return &ErrorHandler{pages: pages{views: v}} }

func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, appErr.New(appErr.CodeNotFound, "The page you requested does not exist."))
}
