package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/wapanel/internal/apperror"
	"github.com/sakif/wapanel/internal/model"
	"github.com/sakif/wapanel/internal/repository"
)

var _ repository.TemplateRepository = (*DB)(nil)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

const templateColumns = `id, user_id, name, description, type, category, content, media_url,
	variables, required_variables, buttons, list_sections,
	is_system_template, is_active, is_approved, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// jsonColumns holds the JSON-encoded form of the list/struct fields.
type jsonColumns struct {
	variables, required, buttons, sections string
}

func encodeColumns(t *model.Template) (jsonColumns, error) {
	var cols jsonColumns
	var err error
	if cols.variables, err = encodeJSON(t.Variables); err != nil {
		return cols, fmt.Errorf("encoding variables: %w", err)
	}
	if cols.required, err = encodeJSON(t.RequiredVariables); err != nil {
		return cols, fmt.Errorf("encoding required variables: %w", err)
	}
	if cols.buttons, err = encodeJSON(t.Buttons); err != nil {
		return cols, fmt.Errorf("encoding buttons: %w", err)
	}
	if cols.sections, err = encodeJSON(t.ListSections); err != nil {
		return cols, fmt.Errorf("encoding list sections: %w", err)
	}
	return cols, nil
}

// encodeJSON stores nil slices as "[]" so the column never holds null.
func encodeJSON[T any](v []T) (string, error) {
	if v == nil {
		return "[]", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func scanTemplate(row rowScanner) (*model.Template, error) {
	var (
		t        model.Template
		typ      string
		jsonCols jsonColumns
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.Name, &t.Description, &typ, &t.Category, &t.Content, &t.MediaURL,
		&jsonCols.variables, &jsonCols.required, &jsonCols.buttons, &jsonCols.sections,
		&t.IsSystemTemplate, &t.IsActive, &t.IsApproved, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Type = model.TemplateType(typ)

	if err := json.Unmarshal([]byte(jsonCols.variables), &t.Variables); err != nil {
		return nil, fmt.Errorf("decoding variables of %s: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(jsonCols.required), &t.RequiredVariables); err != nil {
		return nil, fmt.Errorf("decoding required variables of %s: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(jsonCols.buttons), &t.Buttons); err != nil {
		return nil, fmt.Errorf("decoding buttons of %s: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(jsonCols.sections), &t.ListSections); err != nil {
		return nil, fmt.Errorf("decoding list sections of %s: %w", t.ID, err)
	}
	if len(t.Buttons) == 0 {
		t.Buttons = nil
	}
	if len(t.ListSections) == 0 {
		t.ListSections = nil
	}
	return &t, nil
}

// Create inserts tmpl, assigning its ID and timestamps.
func (db *DB) Create(ctx context.Context, tmpl *model.Template) error {
	if err := db.insert(ctx, tmpl); err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("template", tmpl.Name)
		}
		return fmt.Errorf("sqlite: creating template: %w", err)
	}
	return nil
}

// InsertSystemIfAbsent relies on the partial unique index over system
// template names: a second insert with the same name is skipped.
func (db *DB) InsertSystemIfAbsent(ctx context.Context, tmpl *model.Template) (bool, error) {
	tmpl.IsSystemTemplate = true

	cols, err := encodeColumns(tmpl)
	if err != nil {
		return false, fmt.Errorf("sqlite: seeding template %q: %w", tmpl.Name, err)
	}

	id := xid.New().String()
	now := time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO templates (`+templateColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		id, tmpl.UserID, tmpl.Name, tmpl.Description, string(tmpl.Type), tmpl.Category,
		tmpl.Content, tmpl.MediaURL,
		cols.variables, cols.required, cols.buttons, cols.sections,
		true, tmpl.IsActive, tmpl.IsApproved, now, now,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: seeding template %q: %w", tmpl.Name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	tmpl.ID = id
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now
	return true, nil
}

func (db *DB) insert(ctx context.Context, tmpl *model.Template) error {
	cols, err := encodeColumns(tmpl)
	if err != nil {
		return err
	}

	tmpl.ID = xid.New().String()
	now := time.Now().UTC()
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO templates (`+templateColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tmpl.ID, tmpl.UserID, tmpl.Name, tmpl.Description, string(tmpl.Type), tmpl.Category,
		tmpl.Content, tmpl.MediaURL,
		cols.variables, cols.required, cols.buttons, cols.sections,
		tmpl.IsSystemTemplate, tmpl.IsActive, tmpl.IsApproved, tmpl.CreatedAt, tmpl.UpdatedAt,
	)
	return err
}

// GetByID retrieves a single template by its ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Template, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM templates WHERE id = ?`, id)

	tmpl, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("template", id)
		}
		return nil, fmt.Errorf("sqlite: getting template %s: %w", id, err)
	}
	return tmpl, nil
}

// ListOwned returns userID's own templates, newest first.
func (db *DB) ListOwned(ctx context.Context, userID string, filter repository.TemplateFilter) ([]model.Template, error) {
	where := []string{"user_id = ?", "is_system_template = 0"}
	args := []any{userID}
	where, args = applyFilter(where, args, filter)

	limit, offset := pageBounds(filter.ListOptions)
	args = append(args, limit, offset)

	return db.query(ctx, "listing owned templates",
		`SELECT `+templateColumns+` FROM templates
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`, args...)
}

// ListSystem returns every system template ordered by name.
func (db *DB) ListSystem(ctx context.Context, filter repository.TemplateFilter) ([]model.Template, error) {
	where, args := applyFilter([]string{"is_system_template = 1"}, nil, filter)

	return db.query(ctx, "listing system templates",
		`SELECT `+templateColumns+` FROM templates
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY name`, args...)
}

// ListAll returns templates of every owner, newest first.
func (db *DB) ListAll(ctx context.Context, filter repository.TemplateFilter) ([]model.Template, error) {
	where, args := applyFilter([]string{"1 = 1"}, nil, filter)

	limit, offset := pageBounds(filter.ListOptions)
	args = append(args, limit, offset)

	return db.query(ctx, "listing all templates",
		`SELECT `+templateColumns+` FROM templates
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`, args...)
}

// applyFilter appends the type and active/approved predicates.
func applyFilter(where []string, args []any, filter repository.TemplateFilter) ([]string, []any) {
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}
	if !filter.IncludeInactive {
		where = append(where, "is_active = 1", "is_approved = 1")
	}
	return where, args
}

func pageBounds(opts repository.ListOptions) (limit, offset int) {
	limit = opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset = opts.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (db *DB) query(ctx context.Context, op, query string, args ...any) ([]model.Template, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", op, err)
	}
	defer rows.Close()

	templates := make([]model.Template, 0)
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning template row: %w", err)
		}
		templates = append(templates, *tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating templates: %w", err)
	}

	return templates, nil
}

// Update rewrites every mutable column of tmpl. ID, owner, system flag and
// created_at never change.
func (db *DB) Update(ctx context.Context, tmpl *model.Template) error {
	cols, err := encodeColumns(tmpl)
	if err != nil {
		return fmt.Errorf("sqlite: updating template %s: %w", tmpl.ID, err)
	}

	tmpl.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE templates
		 SET name = ?, description = ?, type = ?, category = ?, content = ?, media_url = ?,
		     variables = ?, required_variables = ?, buttons = ?, list_sections = ?,
		     is_active = ?, is_approved = ?, updated_at = ?
		 WHERE id = ?`,
		tmpl.Name, tmpl.Description, string(tmpl.Type), tmpl.Category, tmpl.Content, tmpl.MediaURL,
		cols.variables, cols.required, cols.buttons, cols.sections,
		tmpl.IsActive, tmpl.IsApproved, tmpl.UpdatedAt,
		tmpl.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("system template", tmpl.Name)
		}
		return fmt.Errorf("sqlite: updating template %s: %w", tmpl.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("template", tmpl.ID)
	}

	return nil
}
