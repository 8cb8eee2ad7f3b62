// Package service contains the business logic layer of the application.
//
// Handlers parse HTTP and call into a service; the service enforces
// ownership and lifecycle rules, runs validation and talks to the
// repository interface. Nothing here knows about HTTP or SQL.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/wapanel/internal/apperror"
	"github.com/sakif/wapanel/internal/catalog"
	"github.com/sakif/wapanel/internal/metrics"
	"github.com/sakif/wapanel/internal/model"
	"github.com/sakif/wapanel/internal/placeholder"
	"github.com/sakif/wapanel/internal/render"
	"github.com/sakif/wapanel/internal/repository"
	"github.com/sakif/wapanel/internal/spin"
)

// Caller is the identity a request runs as. Admin is asserted by the
// auth layer and trusted as given.
type Caller struct {
	UserID string
	Admin  bool
}

// SystemTemplateCache stores the full system template list.
type SystemTemplateCache interface {
	Get(ctx context.Context) ([]model.Template, bool, error)
	Set(ctx context.Context, templates []model.Template) error
	Invalidate(ctx context.Context) error
}

// TemplateInput carries the author-editable fields of a template.
type TemplateInput struct {
	Name              string
	Description       string
	Type              model.TemplateType
	Category          string
	Content           string
	MediaURL          string
	Variables         []string
	RequiredVariables []string
	Buttons           []model.Button
	ListSections      []model.ListSection
}

// apply copies the input onto t, trimming display metadata.
func (in TemplateInput) apply(t *model.Template) {
	t.Name = strings.TrimSpace(in.Name)
	t.Description = strings.TrimSpace(in.Description)
	t.Type = in.Type
	t.Category = strings.TrimSpace(in.Category)
	t.Content = in.Content
	t.MediaURL = strings.TrimSpace(in.MediaURL)
	t.Variables = in.Variables
	t.RequiredVariables = in.RequiredVariables
	t.Buttons = in.Buttons
	t.ListSections = in.ListSections
}

// Template builds an unsaved template from the input.
func (in TemplateInput) Template() *model.Template {
	t := &model.Template{}
	in.apply(t)
	return t
}

// ListQuery selects what ListForUser returns.
type ListQuery struct {
	Type model.TemplateType
	// All lists every owner's templates; admin only.
	All bool
	repository.ListOptions
}

// RenderOptions tunes RenderByID. Zero values fall back to service defaults.
type RenderOptions struct {
	OnMissingOptional placeholder.Policy
	// Seed, when set, makes spin choices reproducible.
	Seed *uint64
}

// Options configures a TemplateService.
type Options struct {
	// Cache is optional; nil reads system templates straight from the store.
	Cache           SystemTemplateCache
	MissingOptional placeholder.Policy
	// NewSource returns the random source for one render. Defaults to spin.Default.
	NewSource func() spin.Source
}

// TemplateService handles template authoring, listing, seeding and rendering.
type TemplateService struct {
	repo      repository.TemplateRepository
	cache     SystemTemplateCache
	logger    *slog.Logger
	policy    placeholder.Policy
	newSource func() spin.Source
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(repo repository.TemplateRepository, logger *slog.Logger, opts Options) *TemplateService {
	policy := opts.MissingOptional
	if policy == "" {
		policy = placeholder.KeepMissing
	}
	newSource := opts.NewSource
	if newSource == nil {
		newSource = spin.Default
	}
	return &TemplateService{
		repo:      repo,
		cache:     opts.Cache,
		logger:    logger,
		policy:    policy,
		newSource: newSource,
	}
}

// =========================================================================
// AUTHORING
// =========================================================================

// Create validates and stores a user-owned template. New templates start
// active and approved; only seeding produces system templates.
func (s *TemplateService) Create(ctx context.Context, caller Caller, in TemplateInput) (*model.Template, error) {
	if caller.UserID == "" {
		return nil, apperror.Unauthorized("a user id is required to create templates")
	}

	tmpl := in.Template()
	tmpl.UserID = caller.UserID
	tmpl.IsActive = true
	tmpl.IsApproved = true

	if err := tmpl.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("creating template: %w", err)
	}

	s.logger.Info("template created",
		slog.String("id", tmpl.ID),
		slog.String("user_id", caller.UserID),
		slog.String("type", string(tmpl.Type)),
	)

	return tmpl, nil
}

// GetByID returns a template the caller may see: its own, any system
// template, or anything for an admin. Inactive or unapproved templates are
// hidden from everyone but the owner and admins. Hidden templates look
// exactly like missing ones.
func (s *TemplateService) GetByID(ctx context.Context, caller Caller, id string) (*model.Template, error) {
	tmpl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if caller.Admin {
		return tmpl, nil
	}

	owner := !tmpl.IsSystemTemplate && caller.UserID != "" && tmpl.UserID == caller.UserID
	switch {
	case owner:
		return tmpl, nil
	case tmpl.IsSystemTemplate && tmpl.Renderable():
		return tmpl, nil
	default:
		return nil, apperror.NotFound("template", id)
	}
}

// editable loads a template the caller may modify. System templates need
// an admin; user templates need the owner or an admin.
func (s *TemplateService) editable(ctx context.Context, caller Caller, id string) (*model.Template, error) {
	tmpl, err := s.GetByID(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if caller.Admin {
		return tmpl, nil
	}
	if tmpl.IsSystemTemplate {
		return nil, apperror.Forbidden("system templates can only be changed by an admin")
	}
	return tmpl, nil
}

// Update replaces the editable fields of a template after re-validating.
// Lifecycle flags, owner and the system flag are left untouched.
func (s *TemplateService) Update(ctx context.Context, caller Caller, id string, in TemplateInput) (*model.Template, error) {
	tmpl, err := s.editable(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	in.apply(tmpl)
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("updating template %s: %w", id, err)
	}
	s.afterWrite(ctx, tmpl)

	s.logger.Info("template updated", slog.String("id", id), slog.String("user_id", caller.UserID))
	return tmpl, nil
}

// SetActive toggles the soft lifecycle flag. Templates are never deleted.
func (s *TemplateService) SetActive(ctx context.Context, caller Caller, id string, active bool) (*model.Template, error) {
	tmpl, err := s.editable(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if tmpl.IsActive == active {
		return tmpl, nil
	}

	tmpl.IsActive = active
	if err := s.repo.Update(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("setting active on template %s: %w", id, err)
	}
	s.afterWrite(ctx, tmpl)

	s.logger.Info("template lifecycle changed", slog.String("id", id), slog.Bool("active", active))
	return tmpl, nil
}

// SetApproved toggles the approval flag. Admin only.
func (s *TemplateService) SetApproved(ctx context.Context, caller Caller, id string, approved bool) (*model.Template, error) {
	if !caller.Admin {
		return nil, apperror.Forbidden("only an admin can change template approval")
	}

	tmpl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tmpl.IsApproved == approved {
		return tmpl, nil
	}

	tmpl.IsApproved = approved
	if err := s.repo.Update(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("setting approval on template %s: %w", id, err)
	}
	s.afterWrite(ctx, tmpl)

	s.logger.Info("template approval changed", slog.String("id", id), slog.Bool("approved", approved))
	return tmpl, nil
}

// afterWrite drops the cached system list when a system template changed.
func (s *TemplateService) afterWrite(ctx context.Context, tmpl *model.Template) {
	if tmpl.IsSystemTemplate {
		s.invalidateSystem(ctx)
	}
}

// =========================================================================
// LISTING
// =========================================================================

// ListForUser returns the caller's own templates (paginated, newest first)
// followed by every system template (by name). Inactive and unapproved
// templates are included only for admins.
func (s *TemplateService) ListForUser(ctx context.Context, caller Caller, q ListQuery) ([]model.Template, error) {
	if q.Type != "" && !q.Type.Valid() {
		return nil, apperror.ValidationFailed("type", fmt.Sprintf("unknown template type %q", q.Type))
	}

	if q.All {
		if !caller.Admin {
			return nil, apperror.Forbidden("listing every template requires admin")
		}
		all, err := s.repo.ListAll(ctx, repository.TemplateFilter{
			Type:            q.Type,
			IncludeInactive: true,
			ListOptions:     q.ListOptions,
		})
		if err != nil {
			return nil, fmt.Errorf("listing all templates: %w", err)
		}
		return all, nil
	}

	var owned []model.Template
	if caller.UserID != "" {
		var err error
		owned, err = s.repo.ListOwned(ctx, caller.UserID, repository.TemplateFilter{
			Type:            q.Type,
			IncludeInactive: caller.Admin,
			ListOptions:     q.ListOptions,
		})
		if err != nil {
			return nil, fmt.Errorf("listing owned templates: %w", err)
		}
	}

	system, err := s.systemTemplates(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]model.Template, 0, len(owned)+len(system))
	result = append(result, owned...)
	for _, tmpl := range system {
		if q.Type != "" && tmpl.Type != q.Type {
			continue
		}
		if !caller.Admin && !tmpl.Renderable() {
			continue
		}
		result = append(result, tmpl)
	}

	return result, nil
}

// systemTemplates returns every system template, read through the cache
// when one is configured. Cache failures fall back to the store.
func (s *TemplateService) systemTemplates(ctx context.Context) ([]model.Template, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			metrics.TemplateCache.WithLabelValues(metrics.CacheError).Inc()
			s.logger.Warn("system template cache read failed", slog.String("error", err.Error()))
		case ok:
			metrics.TemplateCache.WithLabelValues(metrics.CacheHit).Inc()
			return cached, nil
		default:
			metrics.TemplateCache.WithLabelValues(metrics.CacheMiss).Inc()
		}
	}

	system, err := s.repo.ListSystem(ctx, repository.TemplateFilter{IncludeInactive: true})
	if err != nil {
		return nil, fmt.Errorf("listing system templates: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, system); err != nil {
			s.logger.Warn("system template cache write failed", slog.String("error", err.Error()))
		}
	}

	return system, nil
}

func (s *TemplateService) invalidateSystem(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("system template cache invalidation failed", slog.String("error", err.Error()))
	}
}

// =========================================================================
// SEEDING
// =========================================================================

// SeedSystemTemplates inserts the built-in catalog, skipping names that are
// already seeded. It returns how many rows were inserted; running it again
// returns 0. A uniqueness clash from a concurrent seeder counts as already
// seeded.
func (s *TemplateService) SeedSystemTemplates(ctx context.Context, ownerTag string) (int, error) {
	ownerTag = strings.TrimSpace(ownerTag)
	if ownerTag == "" {
		return 0, apperror.ValidationFailed("ownerTag", "owner tag is required")
	}

	templates, err := catalog.Load()
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, tmpl := range templates {
		if err := tmpl.Validate(); err != nil {
			return inserted, fmt.Errorf("catalog template %q is invalid: %w", tmpl.Name, err)
		}
		tmpl.UserID = ownerTag

		ok, err := s.repo.InsertSystemIfAbsent(ctx, tmpl)
		if err != nil {
			if errors.Is(err, apperror.ErrConflict) {
				s.logger.Debug("system template already seeded", slog.String("name", tmpl.Name))
				continue
			}
			return inserted, fmt.Errorf("seeding template %q: %w", tmpl.Name, err)
		}
		if !ok {
			continue
		}
		inserted++
		metrics.TemplatesSeeded.Inc()
	}

	if inserted > 0 {
		s.invalidateSystem(ctx)
	}

	s.logger.Info("system templates seeded",
		slog.String("owner", ownerTag),
		slog.Int("inserted", inserted),
		slog.Int("catalog", len(templates)),
	)

	return inserted, nil
}

// =========================================================================
// RENDERING
// =========================================================================

// RenderByID renders a template visible to the caller. Only active and
// approved templates render.
func (s *TemplateService) RenderByID(ctx context.Context, caller Caller, id string, vars map[string]string, opts RenderOptions) (*render.Message, error) {
	tmpl, err := s.GetByID(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if !tmpl.Renderable() {
		metrics.TemplatesRendered.WithLabelValues(string(tmpl.Type), metrics.ResultNotRenderable).Inc()
		return nil, &apperror.AppError{
			Err:     apperror.ErrConflict,
			Message: fmt.Sprintf("template %s is not active and approved", id),
		}
	}

	policy := opts.OnMissingOptional
	if policy == "" {
		policy = s.policy
	}

	var rng spin.Source
	if opts.Seed != nil {
		rng = spin.NewSeeded(*opts.Seed)
	} else {
		rng = s.newSource()
	}

	msg, err := render.Render(tmpl, vars, rng, render.Options{OnMissingOptional: policy})
	if err != nil {
		result := metrics.ResultInvalid
		if errors.Is(err, apperror.ErrMissingVariable) {
			result = metrics.ResultMissingVariable
		}
		metrics.TemplatesRendered.WithLabelValues(string(tmpl.Type), result).Inc()
		return nil, err
	}

	metrics.TemplatesRendered.WithLabelValues(string(tmpl.Type), metrics.ResultOK).Inc()
	return msg, nil
}

// Lint reports validation problems and spin warnings for an unsaved template.
func (s *TemplateService) Lint(in TemplateInput) render.Report {
	return render.Lint(in.Template())
}
