package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/wapanel/internal/apperror"
	"github.com/sakif/wapanel/internal/auth"
	"github.com/sakif/wapanel/internal/model"
	"github.com/sakif/wapanel/internal/render"
	"github.com/sakif/wapanel/internal/service"
)

// TemplateService is what TemplateHandler needs from the service layer.
type TemplateService interface {
	Create(ctx context.Context, caller service.Caller, in service.TemplateInput) (*model.Template, error)
	GetByID(ctx context.Context, caller service.Caller, id string) (*model.Template, error)
	ListForUser(ctx context.Context, caller service.Caller, q service.ListQuery) ([]model.Template, error)
	Update(ctx context.Context, caller service.Caller, id string, in service.TemplateInput) (*model.Template, error)
	SetActive(ctx context.Context, caller service.Caller, id string, active bool) (*model.Template, error)
	SetApproved(ctx context.Context, caller service.Caller, id string, approved bool) (*model.Template, error)
	SeedSystemTemplates(ctx context.Context, ownerTag string) (int, error)
	RenderByID(ctx context.Context, caller service.Caller, id string, vars map[string]string, opts service.RenderOptions) (*render.Message, error)
	Lint(in service.TemplateInput) render.Report
}

// TemplateHandler serves the /api/templates routes.
type TemplateHandler struct {
	svc      TemplateService
	ownerTag string
	logger   *slog.Logger
}

// NewTemplateHandler creates a handler. ownerTag is stamped on templates
// inserted through the seed endpoint.
func NewTemplateHandler(svc TemplateService, ownerTag string, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{svc: svc, ownerTag: ownerTag, logger: logger}
}

// Mount registers the template routes on r. Identity middleware must run
// before these handlers.
func (h *TemplateHandler) Mount(r chi.Router) {
	r.Route("/templates", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Post("/lint", h.HandleLint)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Post("/{id}/activate", h.handleSetActive(true))
		r.Post("/{id}/deactivate", h.handleSetActive(false))
		r.Post("/{id}/approve", h.handleSetApproved(true))
		r.Post("/{id}/unapprove", h.handleSetApproved(false))
		r.Post("/{id}/render", h.HandleRender)
	})
}

// callerFrom builds the service identity from what the auth middleware
// stored in the request context.
func callerFrom(r *http.Request) service.Caller {
	userID, _ := auth.UserIDFromContext(r.Context())
	return service.Caller{
		UserID: userID,
		Admin:  auth.IsAdminFromContext(r.Context()),
	}
}

// HandleList handles GET /api/templates?type=&limit=&offset=&all=
func (h *TemplateHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	templates, err := h.svc.ListForUser(r.Context(), callerFrom(r), q)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, templates)
}

func parseListQuery(r *http.Request) (service.ListQuery, error) {
	values := r.URL.Query()
	q := service.ListQuery{Type: model.TemplateType(values.Get("type"))}

	if v := values.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return q, apperror.ValidationFailed("limit", "limit must be a non-negative integer")
		}
		q.Limit = n
	}
	if v := values.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return q, apperror.ValidationFailed("offset", "offset must be a non-negative integer")
		}
		q.Offset = n
	}
	if v := values.Get("all"); v != "" {
		all, err := strconv.ParseBool(v)
		if err != nil {
			return q, apperror.ValidationFailed("all", "all must be true or false")
		}
		q.All = all
	}

	return q, nil
}

// HandleCreate handles POST /api/templates
func (h *TemplateHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTemplateRequest(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	tmpl, err := h.svc.Create(r.Context(), callerFrom(r), req.input())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, tmpl)
}

// HandleGet handles GET /api/templates/{id}
func (h *TemplateHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	tmpl, err := h.svc.GetByID(r.Context(), callerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, tmpl)
}

// HandleUpdate handles PUT /api/templates/{id}
func (h *TemplateHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTemplateRequest(w, r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	tmpl, err := h.svc.Update(r.Context(), callerFrom(r), chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, tmpl)
}

func (h *TemplateHandler) handleSetActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tmpl, err := h.svc.SetActive(r.Context(), callerFrom(r), chi.URLParam(r, "id"), active)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, tmpl)
	}
}

func (h *TemplateHandler) handleSetApproved(approved bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tmpl, err := h.svc.SetApproved(r.Context(), callerFrom(r), chi.URLParam(r, "id"), approved)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, tmpl)
	}
}

// HandleRender handles POST /api/templates/{id}/render
func (h *TemplateHandler) HandleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	msg, err := h.svc.RenderByID(r.Context(), callerFrom(r), chi.URLParam(r, "id"), req.Variables, req.options())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

// HandleLint handles POST /api/templates/lint. Lint findings are data, so
// an invalid template still answers 200.
func (h *TemplateHandler) HandleLint(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, h.svc.Lint(req.input()))
}

type seedResponse struct {
	Inserted int `json:"inserted"`
}

// HandleSeed handles POST /api/admin/templates/seed
func (h *TemplateHandler) HandleSeed(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdminFromContext(r.Context()) {
		writeError(w, h.logger, apperror.Forbidden("seeding requires admin"))
		return
	}

	n, err := h.svc.SeedSystemTemplates(r.Context(), h.ownerTag)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, seedResponse{Inserted: n})
}
