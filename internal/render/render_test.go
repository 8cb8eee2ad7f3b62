package render

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/wapanel/internal/apperror"
	"github.com/sakif/wapanel/internal/model"
	"github.com/sakif/wapanel/internal/placeholder"
	"github.com/sakif/wapanel/internal/spin"
)

func TestRender_Greeting(t *testing.T) {
	tmpl := &model.Template{
		Name:              "saudacao",
		Type:              model.TypeText,
		Content:           "{Olá|Oi} {{nome}}!",
		Variables:         []string{"nome"},
		RequiredVariables: []string{"nome"},
	}

	msg, err := Render(tmpl, map[string]string{"nome": "Carlos"}, spin.Fixed(0), Options{})
	require.NoError(t, err)
	assert.Equal(t, "Olá Carlos!", msg.Body)
	assert.Equal(t, model.TypeText, msg.Type)
	assert.Empty(t, msg.Buttons)
	assert.Empty(t, msg.ListSections)
}

func TestRender_MissingRequired(t *testing.T) {
	tmpl := &model.Template{
		Name:              "oferta",
		Type:              model.TypeText,
		Content:           "{{nome}}, veja {{produto}}",
		Variables:         []string{"nome", "produto"},
		RequiredVariables: []string{"nome", "produto"},
	}

	msg, err := Render(tmpl, map[string]string{"nome": "Ana"}, spin.Fixed(0), Options{})
	assert.Nil(t, msg)

	var missing *placeholder.MissingVariableError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"produto"}, missing.Names)
	assert.True(t, errors.Is(err, apperror.ErrMissingVariable))
	assert.False(t, errors.Is(err, apperror.ErrValidation))
}

func TestRender_InvalidTemplateFailsFirst(t *testing.T) {
	tmpl := &model.Template{
		Name:              "quebrado",
		Type:              model.TypeText,
		Content:           "Oi {{nome}}",
		Variables:         []string{"nome"},
		RequiredVariables: []string{"nome"},
		Buttons:           []model.Button{{DisplayText: "Ok", ID: "ok"}},
	}

	_, err := Render(tmpl, map[string]string{}, spin.Fixed(0), Options{})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.False(t, errors.Is(err, apperror.ErrMissingVariable))
}

func TestRender_Buttons(t *testing.T) {
	tmpl := &model.Template{
		Name:      "oferta",
		Type:      model.TypeButton,
		Content:   "{Oi|Olá} {{nome}}",
		Variables: []string{"nome", "produto"},
		Buttons: []model.Button{
			{Type: "reply", DisplayText: "{Quero|Gostei de} {{produto}}", ID: "sim"},
			{Type: "reply", DisplayText: "Agora não", ID: "nao"},
		},
	}

	msg, err := Render(tmpl, map[string]string{"nome": "Bia", "produto": "o plano"}, spin.Fixed(1), Options{})
	require.NoError(t, err)
	assert.Equal(t, "Olá Bia", msg.Body)
	assert.Equal(t, []ResolvedButton{
		{Type: "reply", DisplayText: "Gostei de o plano", ID: "sim"},
		{Type: "reply", DisplayText: "Agora não", ID: "nao"},
	}, msg.Buttons)
}

func TestRender_List(t *testing.T) {
	tmpl := &model.Template{
		Name:      "menu",
		Type:      model.TypeList,
		Content:   "Como podemos ajudar?",
		Variables: []string{"empresa"},
		ListSections: []model.ListSection{{
			Title: "{Atendimento|Suporte} {{empresa}}",
			Rows: []model.ListRow{
				{Title: "Financeiro", Description: "Boletos da {{empresa}}", RowID: "fin"},
			},
		}},
	}

	msg, err := Render(tmpl, map[string]string{"empresa": "Acme"}, spin.Fixed(0), Options{})
	require.NoError(t, err)
	require.Len(t, msg.ListSections, 1)
	assert.Equal(t, "Atendimento Acme", msg.ListSections[0].Title)
	assert.Equal(t, []ResolvedRow{{Title: "Financeiro", Description: "Boletos da Acme", RowID: "fin"}},
		msg.ListSections[0].Rows)
}

func TestRender_MediaAndOptionalPolicy(t *testing.T) {
	tmpl := &model.Template{
		Name:      "catalogo",
		Type:      model.TypeImage,
		Content:   "Catálogo {{mes}}",
		MediaURL:  "https://cdn.example.com/{{arquivo}}",
		Variables: []string{"mes", "arquivo"},
	}
	vars := map[string]string{"arquivo": "c.png"}

	kept, err := Render(tmpl, vars, spin.Fixed(0), Options{})
	require.NoError(t, err)
	assert.Equal(t, "Catálogo {{mes}}", kept.Body)
	assert.Equal(t, "https://cdn.example.com/c.png", kept.MediaURL)

	blank, err := Render(tmpl, vars, spin.Fixed(0), Options{OnMissingOptional: placeholder.BlankMissing})
	require.NoError(t, err)
	assert.Equal(t, "Catálogo ", blank.Body)
}

func TestRender_NoSuppliedPlaceholderRemains(t *testing.T) {
	tmpl := &model.Template{
		Name:      "combo",
		Type:      model.TypeText,
		Content:   "{Oi|Olá|E aí} {{nome}}, {seu|o seu} {{produto}} {chegou|está pronto}",
		Variables: []string{"nome", "produto"},
	}
	vars := map[string]string{"nome": "Rui", "produto": "pedido"}

	for seed := uint64(0); seed < 25; seed++ {
		msg, err := Render(tmpl, vars, spin.NewSeeded(seed), Options{})
		require.NoError(t, err)
		assert.NotContains(t, msg.Body, "{{nome}}")
		assert.NotContains(t, msg.Body, "{{produto}}")
		assert.NotContains(t, msg.Body, "|")
	}
}

func TestRender_ValueBracesAreSpun(t *testing.T) {
	tmpl := &model.Template{
		Name:      "saudacao",
		Type:      model.TypeText,
		Content:   "Oi {{nome}}",
		Variables: []string{"nome"},
	}

	msg, err := Render(tmpl, map[string]string{"nome": "{Ana|Bia} Souza"}, spin.Fixed(1), Options{})
	require.NoError(t, err)
	assert.Equal(t, "Oi Bia Souza", msg.Body)

	msg, err = Render(tmpl, map[string]string{"nome": "{Ana} Souza"}, spin.Fixed(1), Options{})
	require.NoError(t, err)
	assert.Equal(t, "Oi {Ana} Souza", msg.Body)
}

func TestRender_ConcurrentSameTemplate(t *testing.T) {
	tmpl := &model.Template{
		Name:      "saudacao",
		Type:      model.TypeText,
		Content:   "{Olá|Oi} {{nome}}",
		Variables: []string{"nome"},
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg, err := Render(tmpl, map[string]string{"nome": "Leo"}, spin.Default(), Options{})
			assert.NoError(t, err)
			assert.Contains(t, []string{"Olá Leo", "Oi Leo"}, msg.Body)
		}()
	}
	wg.Wait()
}

func TestRender_NilTemplate(t *testing.T) {
	_, err := Render(nil, nil, spin.Fixed(0), Options{})
	assert.Error(t, err)
}
