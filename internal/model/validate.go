package model

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sakif/wapanel/internal/apperror"
	"github.com/sakif/wapanel/internal/placeholder"
)

const (
	MaxNameLength    = 100
	MaxContentLength = 4096
)

// Validate checks the template's structural invariants and returns every
// violation as apperror.FieldErrors, or nil. It never modifies t.
func (t *Template) Validate() error {
	var errs apperror.FieldErrors

	name := strings.TrimSpace(t.Name)
	switch {
	case name == "":
		errs.Add("name", "template name is required")
	case utf8.RuneCountInString(name) > MaxNameLength:
		errs.Add("name", "template name must be %d characters or less", MaxNameLength)
	}

	if utf8.RuneCountInString(t.Content) > MaxContentLength {
		errs.Add("content", "content must be %d characters or less", MaxContentLength)
	}

	declared := t.validateVariables(&errs)

	for _, f := range t.TextFields() {
		for _, name := range placeholder.Names(f.Text) {
			if _, ok := declared[name]; !ok {
				errs.Add(f.Field, "placeholder {{%s}} is not declared in variables", name)
			}
		}
	}

	if !t.Type.Valid() {
		errs.Add("type", "unknown template type %q", t.Type)
	} else {
		t.validateStructure(&errs)
	}

	return errs.Err()
}

func (t *Template) validateVariables(errs *apperror.FieldErrors) map[string]struct{} {
	declared := make(map[string]struct{}, len(t.Variables))
	for _, v := range t.Variables {
		if strings.TrimSpace(v) == "" {
			errs.Add("variables", "variable names must not be empty")
			continue
		}
		if _, dup := declared[v]; dup {
			errs.Add("variables", "variable %q is declared more than once", v)
			continue
		}
		declared[v] = struct{}{}
	}

	required := make(map[string]struct{}, len(t.RequiredVariables))
	for _, v := range t.RequiredVariables {
		if _, ok := declared[v]; !ok {
			errs.Add("requiredVariables", "required variable %q is not declared in variables", v)
		}
		if _, dup := required[v]; dup {
			errs.Add("requiredVariables", "required variable %q is listed more than once", v)
		}
		required[v] = struct{}{}
	}

	return declared
}

func (t *Template) validateStructure(errs *apperror.FieldErrors) {
	hasButtons := len(t.Buttons) > 0
	hasSections := len(t.ListSections) > 0
	hasMedia := strings.TrimSpace(t.MediaURL) != ""

	if !t.Type.IsMedia() && strings.TrimSpace(t.Content) == "" {
		errs.Add("content", "content is required for %s templates", t.Type)
	}

	switch t.Type {
	case TypeButton:
		if !hasButtons {
			errs.Add("buttons", "button templates need at least one button")
		}
	case TypeList:
		if !hasSections {
			errs.Add("listSections", "list templates need at least one section")
		}
	default:
		if t.Type.IsMedia() && !hasMedia {
			errs.Add("mediaUrl", "mediaUrl is required for %s templates", t.Type)
		}
	}

	if hasButtons && t.Type != TypeButton {
		errs.Add("buttons", "buttons must be empty for %s templates", t.Type)
	}
	if hasSections && t.Type != TypeList {
		errs.Add("listSections", "listSections must be empty for %s templates", t.Type)
	}
	if hasMedia && !t.Type.IsMedia() {
		errs.Add("mediaUrl", "mediaUrl must be empty for %s templates", t.Type)
	}

	t.validateButtons(errs)
	t.validateSections(errs)
}

func (t *Template) validateButtons(errs *apperror.FieldErrors) {
	ids := make(map[string]struct{}, len(t.Buttons))
	for i, b := range t.Buttons {
		if strings.TrimSpace(b.DisplayText) == "" {
			errs.Add(indexed("buttons", i, "displayText"), "button text is required")
		}
		id := strings.TrimSpace(b.ID)
		if id == "" {
			errs.Add(indexed("buttons", i, "id"), "button id is required")
			continue
		}
		if _, dup := ids[id]; dup {
			errs.Add(indexed("buttons", i, "id"), "button id %q is duplicated", id)
		}
		ids[id] = struct{}{}
	}
}

func (t *Template) validateSections(errs *apperror.FieldErrors) {
	rowIDs := make(map[string]struct{})
	for i, s := range t.ListSections {
		if strings.TrimSpace(s.Title) == "" {
			errs.Add(indexed("listSections", i, "title"), "section title is required")
		}
		if len(s.Rows) == 0 {
			errs.Add(indexed("listSections", i, "rows"), "sections need at least one row")
		}
		for j, r := range s.Rows {
			field := indexed("listSections", i, "rows")
			if strings.TrimSpace(r.Title) == "" {
				errs.Add(indexed(field, j, "title"), "row title is required")
			}
			id := strings.TrimSpace(r.RowID)
			if id == "" {
				errs.Add(indexed(field, j, "rowId"), "row id is required")
				continue
			}
			if _, dup := rowIDs[id]; dup {
				errs.Add(indexed(field, j, "rowId"), "row id %q is duplicated", id)
			}
			rowIDs[id] = struct{}{}
		}
	}
}

func indexed(base string, i int, field string) string {
	return base + "[" + strconv.Itoa(i) + "]." + field
}
