package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/wapanel/internal/apperror"
	"github.com/sakif/wapanel/internal/model"
	"github.com/sakif/wapanel/internal/placeholder"
	"github.com/sakif/wapanel/internal/service"
)

// maxBodyBytes bounds request bodies; templates are small.
const maxBodyBytes = 1 << 20

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// templateRequest is the body of create, update and lint. The shape checks
// here are shallow; model.Template.Validate enforces the template rules.
type templateRequest struct {
	Name              string              `json:"name"              validate:"required,max=100"`
	Description       string              `json:"description"       validate:"max=500"`
	Type              string              `json:"type"              validate:"required,oneof=text button list image video audio sticker"`
	Category          string              `json:"category"          validate:"max=50"`
	Content           string              `json:"content"`
	MediaURL          string              `json:"mediaUrl"`
	Variables         []string            `json:"variables"         validate:"dive,required"`
	RequiredVariables []string            `json:"requiredVariables" validate:"dive,required"`
	Buttons           []model.Button      `json:"buttons"`
	ListSections      []model.ListSection `json:"listSections"`
}

func (req templateRequest) input() service.TemplateInput {
	return service.TemplateInput{
		Name:              req.Name,
		Description:       req.Description,
		Type:              model.TemplateType(req.Type),
		Category:          req.Category,
		Content:           req.Content,
		MediaURL:          req.MediaURL,
		Variables:         req.Variables,
		RequiredVariables: req.RequiredVariables,
		Buttons:           req.Buttons,
		ListSections:      req.ListSections,
	}
}

// decodeTemplateRequest decodes and shape-checks a template body. When the
// shape check fails the template rules still run, so the response lists
// every problem at once. Template problems on a field the shape check
// already reported are dropped.
func decodeTemplateRequest(w http.ResponseWriter, r *http.Request) (templateRequest, error) {
	var req templateRequest
	err := decodeAndValidate(w, r, &req)

	var shape apperror.FieldErrors
	if !errors.As(err, &shape) {
		return req, err
	}

	reported := make(map[string]struct{}, len(shape))
	for _, e := range shape {
		reported[rootField(e.Field)] = struct{}{}
	}

	var rules apperror.FieldErrors
	if errors.As(req.input().Template().Validate(), &rules) {
		for _, e := range rules {
			if _, dup := reported[rootField(e.Field)]; dup {
				continue
			}
			shape = append(shape, e)
		}
	}
	return req, shape
}

// rootField reduces "variables[0]" or "buttons[1].id" to the top-level name.
func rootField(field string) string {
	if i := strings.IndexAny(field, ".["); i >= 0 {
		return field[:i]
	}
	return field
}

type renderRequest struct {
	Variables         map[string]string `json:"variables"`
	OnMissingOptional string            `json:"onMissingOptional" validate:"omitempty,oneof=keep blank"`
	Seed              *uint64           `json:"seed"`
}

func (req renderRequest) options() service.RenderOptions {
	return service.RenderOptions{
		OnMissingOptional: placeholder.Policy(req.OnMissingOptional),
		Seed:              req.Seed,
	}
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// Failures come back as apperror values ready for writeError.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	// An empty body decodes as the zero value.
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperror.ValidationFailed("body", fmt.Sprintf("invalid JSON body: %v", err))
	}

	if err := validate.Struct(dst); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return apperror.ValidationFailed("body", err.Error())
		}
		var fe apperror.FieldErrors
		for _, e := range verrs {
			fe.Add(fieldPath(e), "%s", describe(e))
		}
		return fe
	}
	return nil
}

// fieldPath drops the root struct name from the namespace
// ("templateRequest.variables[0]" → "variables[0]").
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	default:
		return fmt.Sprintf("failed the %q check", e.Tag())
	}
}
