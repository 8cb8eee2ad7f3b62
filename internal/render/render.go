// Package render turns a stored template plus caller variables into a
// concrete message: validate, substitute placeholders, resolve spin groups,
// then assemble the payload that matches the template type.
//
// Render holds no state and treats the template as read-only, so the same
// template can be rendered from many goroutines at once.
package render

import (
	"fmt"

	"github.com/sakif/wapanel/internal/model"
	"github.com/sakif/wapanel/internal/placeholder"
	"github.com/sakif/wapanel/internal/spin"
)

// Options tunes a single render.
type Options struct {
	OnMissingOptional placeholder.Policy
}

type ResolvedButton struct {
	Type        string `json:"type"`
	DisplayText string `json:"displayText"`
	ID          string `json:"id"`
}

type ResolvedRow struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	RowID       string `json:"rowId"`
}

type ResolvedSection struct {
	Title string        `json:"title"`
	Rows  []ResolvedRow `json:"rows"`
}

// Message is the rendered payload handed to the dispatch side.
type Message struct {
	TemplateID   string             `json:"templateId,omitempty"`
	Type         model.TemplateType `json:"type"`
	Body         string             `json:"body"`
	MediaURL     string             `json:"mediaUrl,omitempty"`
	Buttons      []ResolvedButton   `json:"buttons,omitempty"`
	ListSections []ResolvedSection  `json:"listSections,omitempty"`
}

// Render runs the full pipeline. It fails with apperror.FieldErrors when the
// template is structurally invalid and with *placeholder.MissingVariableError
// when a required variable is absent; there is no partial result.
func Render(t *model.Template, vars map[string]string, rng spin.Source, opts Options) (*Message, error) {
	if t == nil {
		return nil, fmt.Errorf("render: template is required")
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := placeholder.CheckRequired(vars, t.RequiredVariables); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = spin.Default()
	}

	policy := opts.OnMissingOptional
	if policy == "" {
		policy = placeholder.KeepMissing
	}
	// Values are substituted before spinning, so braces inside a value are
	// spun like template text.
	text := func(s string) string {
		return spin.Resolve(placeholder.Replace(s, vars, policy), rng)
	}

	msg := &Message{
		TemplateID: t.ID,
		Type:       t.Type,
		Body:       text(t.Content),
	}

	switch {
	case t.Type.IsMedia():
		msg.MediaURL = placeholder.Replace(t.MediaURL, vars, policy)
	case t.Type == model.TypeButton:
		msg.Buttons = make([]ResolvedButton, 0, len(t.Buttons))
		for _, b := range t.Buttons {
			msg.Buttons = append(msg.Buttons, ResolvedButton{
				Type:        b.Type,
				DisplayText: text(b.DisplayText),
				ID:          b.ID,
			})
		}
	case t.Type == model.TypeList:
		msg.ListSections = make([]ResolvedSection, 0, len(t.ListSections))
		for _, s := range t.ListSections {
			section := ResolvedSection{
				Title: text(s.Title),
				Rows:  make([]ResolvedRow, 0, len(s.Rows)),
			}
			for _, r := range s.Rows {
				section.Rows = append(section.Rows, ResolvedRow{
					Title:       text(r.Title),
					Description: text(r.Description),
					RowID:       r.RowID,
				})
			}
			msg.ListSections = append(msg.ListSections, section)
		}
	}

	return msg, nil
}
