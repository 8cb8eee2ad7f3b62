// Package catalog holds the fixed set of system templates shipped with the
// binary and the YAML format shared with templatectl's lint/render commands.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/sakif/wapanel/internal/model"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Load returns the built-in system templates sorted by name. Each one is
// marked system-wide, active and approved; IDs and owners are assigned at
// seed time.
func Load() ([]*model.Template, error) {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, fmt.Errorf("catalog: read builtin templates: %w", err)
	}

	templates := make([]*model.Template, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := builtinFS.ReadFile("builtin/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", entry.Name(), err)
		}
		tmpl, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("catalog: parse %s: %w", entry.Name(), err)
		}
		tmpl.IsSystemTemplate = true
		tmpl.IsActive = true
		tmpl.IsApproved = true
		templates = append(templates, tmpl)
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Name < templates[j].Name
	})

	return templates, nil
}

// Parse decodes one YAML template definition. It does not validate.
func Parse(data []byte) (*model.Template, error) {
	var tmpl model.Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadFile reads a template definition from disk.
func LoadFile(path string) (*model.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	tmpl, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return tmpl, nil
}
