package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/wapanel/internal/model"
)

func TestLoad(t *testing.T) {
	templates, err := Load()
	require.NoError(t, err)
	require.Len(t, templates, 5)

	seen := make(map[string]bool)
	for i, tmpl := range templates {
		assert.NoError(t, tmpl.Validate(), tmpl.Name)
		assert.True(t, tmpl.IsSystemTemplate, tmpl.Name)
		assert.True(t, tmpl.Renderable(), tmpl.Name)
		assert.Empty(t, tmpl.ID)
		assert.False(t, seen[tmpl.Name], "duplicate catalog name %q", tmpl.Name)
		seen[tmpl.Name] = true
		if i > 0 {
			assert.Less(t, templates[i-1].Name, tmpl.Name)
		}
	}
}

func TestLoad_CoversStructuredTypes(t *testing.T) {
	templates, err := Load()
	require.NoError(t, err)

	types := make(map[model.TemplateType]int)
	for _, tmpl := range templates {
		types[tmpl.Type]++
	}
	assert.Positive(t, types[model.TypeText])
	assert.Positive(t, types[model.TypeButton])
	assert.Positive(t, types[model.TypeList])
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promo.yaml")
	def := `name: promo
type: button
content: "{Oi|Olá} {{nome}}"
variables: [nome]
requiredVariables: [nome]
buttons:
  - type: reply
    displayText: Quero
    id: quero
`
	require.NoError(t, os.WriteFile(path, []byte(def), 0o644))

	tmpl, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "promo", tmpl.Name)
	assert.Equal(t, model.TypeButton, tmpl.Type)
	assert.Equal(t, []model.Button{{Type: "reply", DisplayText: "Quero", ID: "quero"}}, tmpl.Buttons)
	assert.False(t, tmpl.IsSystemTemplate)
	assert.NoError(t, tmpl.Validate())
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
