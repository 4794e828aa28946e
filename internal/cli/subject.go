package cli

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
)

// SubjectData is available to the notification subject template.
type SubjectData struct {
	From   string
	To     string
	UserID string
	Now    time.Time
}

// RenderSubject executes the notification subject template with sprig functions,
// e.g. `Audit for {{ .To | lower }} {{ now | date "2006-01-02" }}`.
// A subject without actions is returned unchanged.
func RenderSubject(subject string, data SubjectData) (string, error) {
	tmpl, err := template.New("subject").Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(subject)
	if err != nil {
		return "", fmt.Errorf("invalid notification subject template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render notification subject: %w", err)
	}
	return buf.String(), nil
}
