package internal

import (
	"bytes"
	"text/template"

	"github.com/getzep/sprig/v3"
)

// RenderTemplate executes a text template with the sprig function map available.
func RenderTemplate(name, tmpl string, data any) (string, error) {
	t, err := template.New(name).Funcs(sprig.TxtFuncMap()).Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = t.Execute(&buf, data)
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}
