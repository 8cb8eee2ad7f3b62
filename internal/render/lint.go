package render

import (
	"errors"

	"github.com/sakif/wapanel/internal/apperror"
	"github.com/sakif/wapanel/internal/model"
	"github.com/sakif/wapanel/internal/spin"
)

// Problem is one validation failure, addressed by field path.
type Problem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SpinWarning is a malformed spin group found in one text field.
type SpinWarning struct {
	Field  string `json:"field"`
	Offset int    `json:"offset"`
	Reason string `json:"reason"`
}

// Report is the outcome of Lint. Warnings never make a template invalid.
type Report struct {
	Valid    bool          `json:"valid"`
	Problems []Problem     `json:"problems"`
	Warnings []SpinWarning `json:"warnings"`
}

// Lint validates t and scans every text field for malformed spin groups.
// It never fails; every finding goes into the report.
func Lint(t *model.Template) Report {
	report := Report{
		Problems: []Problem{},
		Warnings: []SpinWarning{},
	}

	if err := t.Validate(); err != nil {
		var fe apperror.FieldErrors
		if errors.As(err, &fe) {
			for _, e := range fe {
				report.Problems = append(report.Problems, Problem{Field: e.Field, Message: e.Message})
			}
		} else {
			report.Problems = append(report.Problems, Problem{Message: err.Error()})
		}
	}

	for _, f := range t.TextFields() {
		// Media URLs are never spun.
		if f.Field == "mediaUrl" {
			continue
		}
		for _, m := range spin.Lint(f.Text) {
			report.Warnings = append(report.Warnings, SpinWarning{
				Field:  f.Field,
				Offset: m.Offset,
				Reason: m.Reason,
			})
		}
	}

	report.Valid = len(report.Problems) == 0
	return report
}
