package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/wapanel/internal/apperror"
)

func textTemplate() *Template {
	return &Template{
		Name:              "boas-vindas",
		Type:              TypeText,
		Content:           "{Olá|Oi} {{nome}}!",
		Variables:         []string{"nome"},
		RequiredVariables: []string{"nome"},
	}
}

// fieldsOf extracts the Field of every collected problem.
func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var fe apperror.FieldErrors
	require.True(t, errors.As(err, &fe), "expected FieldErrors, got %v", err)
	fields := make([]string, 0, len(fe))
	for _, e := range fe {
		fields = append(fields, e.Field)
	}
	return fields
}

func TestValidate_ValidTemplates(t *testing.T) {
	tests := []struct {
		name string
		tmpl *Template
	}{
		{"text", textTemplate()},
		{"button", &Template{
			Name:      "oferta",
			Type:      TypeButton,
			Content:   "Oi {{nome}}",
			Variables: []string{"nome", "produto"},
			Buttons: []Button{
				{Type: "reply", DisplayText: "Quero {{produto}}", ID: "sim"},
				{Type: "reply", DisplayText: "Agora não", ID: "nao"},
			},
		}},
		{"list", &Template{
			Name:      "menu",
			Type:      TypeList,
			Content:   "Escolha uma opção",
			Variables: []string{"empresa"},
			ListSections: []ListSection{{
				Title: "Atendimento {{empresa}}",
				Rows: []ListRow{
					{Title: "Suporte", Description: "Falar com {{empresa}}", RowID: "suporte"},
					{Title: "Financeiro", RowID: "financeiro"},
				},
			}},
		}},
		{"sticker without caption", &Template{
			Name:     "figurinha",
			Type:     TypeSticker,
			MediaURL: "https://cdn.example.com/s.webp",
		}},
		{"image with placeholder url", &Template{
			Name:      "catalogo",
			Type:      TypeImage,
			Content:   "Confira",
			MediaURL:  "https://cdn.example.com/{{arquivo}}",
			Variables: []string{"arquivo"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, tt.tmpl.Validate())
		})
	}
}

func TestValidate_TextWithButtonsIsStructuralError(t *testing.T) {
	tmpl := textTemplate()
	tmpl.Buttons = []Button{{Type: "reply", DisplayText: "Ok", ID: "ok"}}

	err := tmpl.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Equal(t, []string{"buttons"}, fieldsOf(t, err))
}

func TestValidate_RequiredMustBeDeclared(t *testing.T) {
	tmpl := textTemplate()
	tmpl.RequiredVariables = []string{"nome", "produto"}

	err := tmpl.Validate()
	assert.Equal(t, []string{"requiredVariables"}, fieldsOf(t, err))
}

func TestValidate_UndeclaredPlaceholders(t *testing.T) {
	tmpl := &Template{
		Name:      "oferta",
		Type:      TypeButton,
		Content:   "Oi {{nome}}, veja {{produto}}",
		Variables: []string{"nome"},
		Buttons:   []Button{{Type: "reply", DisplayText: "Falar com {{vendedor}}", ID: "b1"}},
	}

	err := tmpl.Validate()
	assert.Equal(t, []string{"content", "buttons[0].displayText"}, fieldsOf(t, err))
	assert.Contains(t, err.Error(), "{{produto}}")
	assert.Contains(t, err.Error(), "{{vendedor}}")
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	tmpl := &Template{
		Name:              "",
		Type:              TypeList,
		Content:           "",
		Variables:         []string{"a", "a", ""},
		RequiredVariables: []string{"b"},
		Buttons:           []Button{{ID: "x"}},
		ListSections: []ListSection{
			{Title: "", Rows: nil},
			{Title: "ok", Rows: []ListRow{{Title: "r", RowID: "dup"}, {Title: "", RowID: "dup"}}},
		},
	}

	fields := fieldsOf(t, tmpl.Validate())
	for _, want := range []string{
		"name",
		"variables",
		"requiredVariables",
		"content",
		"buttons",
		"buttons[0].displayText",
		"listSections[0].title",
		"listSections[0].rows",
		"listSections[1].rows[1].title",
		"listSections[1].rows[1].rowId",
	} {
		assert.Contains(t, fields, want)
	}
}

func TestValidate_TypeRules(t *testing.T) {
	tests := []struct {
		name       string
		tmpl       Template
		wantFields []string
	}{
		{
			name:       "unknown type",
			tmpl:       Template{Name: "x", Type: "carousel", Content: "oi"},
			wantFields: []string{"type"},
		},
		{
			name:       "button without buttons",
			tmpl:       Template{Name: "x", Type: TypeButton, Content: "oi"},
			wantFields: []string{"buttons"},
		},
		{
			name:       "list without sections",
			tmpl:       Template{Name: "x", Type: TypeList, Content: "oi"},
			wantFields: []string{"listSections"},
		},
		{
			name: "button with sections",
			tmpl: Template{Name: "x", Type: TypeButton, Content: "oi",
				Buttons:      []Button{{DisplayText: "a", ID: "a"}},
				ListSections: []ListSection{{Title: "s", Rows: []ListRow{{Title: "r", RowID: "r"}}}}},
			wantFields: []string{"listSections"},
		},
		{
			name:       "image without media",
			tmpl:       Template{Name: "x", Type: TypeImage, Content: "legenda"},
			wantFields: []string{"mediaUrl"},
		},
		{
			name:       "text with media",
			tmpl:       Template{Name: "x", Type: TypeText, Content: "oi", MediaURL: "https://x/y.png"},
			wantFields: []string{"mediaUrl"},
		},
		{
			name:       "duplicate button ids",
			tmpl:       Template{Name: "x", Type: TypeButton, Content: "oi", Buttons: []Button{{DisplayText: "a", ID: "b"}, {DisplayText: "c", ID: "b"}}},
			wantFields: []string{"buttons[1].id"},
		},
		{
			name:       "name too long",
			tmpl:       Template{Name: strings.Repeat("a", MaxNameLength+1), Type: TypeText, Content: "oi"},
			wantFields: []string{"name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantFields, fieldsOf(t, tt.tmpl.Validate()))
		})
	}
}

func TestParseTemplateType(t *testing.T) {
	got, err := ParseTemplateType(" Button ")
	require.NoError(t, err)
	assert.Equal(t, TypeButton, got)

	_, err = ParseTemplateType("carousel")
	assert.Error(t, err)
}

func TestTextFields_Order(t *testing.T) {
	tmpl := &Template{
		Content: "c",
		ListSections: []ListSection{{
			Title: "s",
			Rows:  []ListRow{{Title: "t", Description: "d", RowID: "r"}},
		}},
	}
	var got []string
	for _, f := range tmpl.TextFields() {
		got = append(got, f.Field)
	}
	assert.Equal(t, []string{
		"content",
		"listSections[0].title",
		"listSections[0].rows[0].title",
		"listSections[0].rows[0].description",
	}, got)
}
