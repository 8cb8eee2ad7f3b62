// Package model defines the data structures used throughout the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// TemplateType selects which structural payload a template carries.
type TemplateType string

const (
	TypeText    TemplateType = "text"
	TypeButton  TemplateType = "button"
	TypeList    TemplateType = "list"
	TypeImage   TemplateType = "image"
	TypeVideo   TemplateType = "video"
	TypeAudio   TemplateType = "audio"
	TypeSticker TemplateType = "sticker"
)

// TemplateTypes lists every supported type, in display order.
var TemplateTypes = []TemplateType{
	TypeText, TypeButton, TypeList, TypeImage, TypeVideo, TypeAudio, TypeSticker,
}

// Valid reports whether t is one of TemplateTypes.
func (t TemplateType) Valid() bool {
	for _, known := range TemplateTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsMedia reports whether the template sends an attachment (content is the caption).
func (t TemplateType) IsMedia() bool {
	switch t {
	case TypeImage, TypeVideo, TypeAudio, TypeSticker:
		return true
	}
	return false
}

// ParseTemplateType normalises s and checks it is a known type.
func ParseTemplateType(s string) (TemplateType, error) {
	t := TemplateType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown template type %q", s)
	}
	return t, nil
}

// Button is one quick-reply/action button of a button template.
type Button struct {
	Type        string `json:"type"        yaml:"type"`
	DisplayText string `json:"displayText" yaml:"displayText"`
	ID          string `json:"id"          yaml:"id"`
}

// ListRow is a selectable row inside a ListSection.
type ListRow struct {
	Title       string `json:"title"                 yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	RowID       string `json:"rowId"                 yaml:"rowId"`
}

// ListSection groups rows of a list template under a title.
type ListSection struct {
	Title string    `json:"title" yaml:"title"`
	Rows  []ListRow `json:"rows"  yaml:"rows"`
}

// Template is a parameterised WhatsApp message.
//
// Content (and every structural text field) may contain spin groups
// ("{Olá|Oi}") and placeholders ("{{nome}}"). Exactly one structural payload
// is populated, chosen by Type: Buttons for button, ListSections for list,
// MediaURL for the media types.
//
// System templates are seeded by operators; UserID then holds the owner tag
// the seed ran with rather than a real account.
type Template struct {
	ID                string        `json:"id"                     yaml:"-"`
	UserID            string        `json:"userId"                 yaml:"-"`
	Name              string        `json:"name"                   yaml:"name"`
	Description       string        `json:"description"            yaml:"description"`
	Type              TemplateType  `json:"type"                   yaml:"type"`
	Category          string        `json:"category"               yaml:"category"`
	Content           string        `json:"content"                yaml:"content"`
	MediaURL          string        `json:"mediaUrl,omitempty"     yaml:"mediaUrl,omitempty"`
	Variables         []string      `json:"variables"              yaml:"variables"`
	RequiredVariables []string      `json:"requiredVariables"      yaml:"requiredVariables"`
	Buttons           []Button      `json:"buttons,omitempty"      yaml:"buttons,omitempty"`
	ListSections      []ListSection `json:"listSections,omitempty" yaml:"listSections,omitempty"`
	IsSystemTemplate  bool          `json:"isSystemTemplate"       yaml:"-"`
	IsActive          bool          `json:"isActive"               yaml:"-"`
	IsApproved        bool          `json:"isApproved"             yaml:"-"`
	CreatedAt         time.Time     `json:"createdAt"              yaml:"-"`
	UpdatedAt         time.Time     `json:"updatedAt"              yaml:"-"`
}

// Renderable reports whether the template may be rendered or listed to
// regular callers.
func (t *Template) Renderable() bool {
	return t.IsActive && t.IsApproved
}

// TextField is one placeholder-bearing text of a template, addressed by a
// JSON-path-like field name ("buttons[0].displayText").
type TextField struct {
	Field string
	Text  string
}

// TextFields returns the content and every structural text in a fixed
// order: content, mediaUrl, buttons, then list sections and their rows.
func (t *Template) TextFields() []TextField {
	fields := []TextField{{Field: "content", Text: t.Content}}
	if t.MediaURL != "" {
		fields = append(fields, TextField{Field: "mediaUrl", Text: t.MediaURL})
	}
	for i, b := range t.Buttons {
		fields = append(fields, TextField{
			Field: fmt.Sprintf("buttons[%d].displayText", i),
			Text:  b.DisplayText,
		})
	}
	for i, s := range t.ListSections {
		fields = append(fields, TextField{Field: fmt.Sprintf("listSections[%d].title", i), Text: s.Title})
		for j, r := range s.Rows {
			prefix := fmt.Sprintf("listSections[%d].rows[%d]", i, j)
			fields = append(fields,
				TextField{Field: prefix + ".title", Text: r.Title},
				TextField{Field: prefix + ".description", Text: r.Description},
			)
		}
	}
	return fields
}
