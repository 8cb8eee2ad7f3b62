// Package repository declares the storage contracts the service layer
// depends on. Implementations live in subpackages (sqlite).
package repository

import (
	"context"

	"github.com/sakif/wapanel/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// TemplateFilter narrows a listing. An empty Type matches every type.
type TemplateFilter struct {
	Type            model.TemplateType
	IncludeInactive bool
	ListOptions
}

// TemplateRepository persists templates. Implementations assign ID and
// timestamps on Create and return apperror.NotFound for unknown IDs.
type TemplateRepository interface {
	Create(ctx context.Context, tmpl *model.Template) error
	GetByID(ctx context.Context, id string) (*model.Template, error)

	// ListOwned returns the non-system templates of userID, newest first.
	ListOwned(ctx context.Context, userID string, filter TemplateFilter) ([]model.Template, error)

	// ListSystem returns every system template ordered by name. Pagination
	// fields of filter are ignored.
	ListSystem(ctx context.Context, filter TemplateFilter) ([]model.Template, error)

	// ListAll returns every template regardless of owner or flags.
	ListAll(ctx context.Context, filter TemplateFilter) ([]model.Template, error)

	Update(ctx context.Context, tmpl *model.Template) error

	// InsertSystemIfAbsent stores tmpl as a system template unless one with
	// the same name already exists. It reports whether a row was written.
	InsertSystemIfAbsent(ctx context.Context, tmpl *model.Template) (bool, error)
}
