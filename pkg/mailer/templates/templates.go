package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"io"
	"strings"
	"sync"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var files embed.FS

// Template names. Each has <name>.subject.tmpl, <name>.text.tmpl and <name>.html.tmpl.
const (
	Welcome      = "welcome"
	Cancellation = "cancellation"
)

var names = []string{Welcome, Cancellation}

// EmailData is the data every account email is rendered with.
type EmailData struct {
	Name  string `json:"Name"`
	Email string `json:"Email"`
	Type  string `json:"Type"`

	AppName     string `json:"AppName"`
	CompanyName string `json:"CompanyName"`
	LogoURL     string `json:"LogoURL"`
	SupportURL  string `json:"SupportURL"`
}

// ToMap flattens d into the map carried by a queued job.
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// orDefault backs the "default" pipe: {{ .CompanyName | default "Team" }}.
// Values arrive from JSON, so only nil and blank strings count as missing.
func orDefault(fallback, value any) any {
	switch v := value.(type) {
	case nil:
		return fallback
	case string:
		if strings.TrimSpace(v) == "" {
			return fallback
		}
	}
	return value
}

var funcs = map[string]any{
	"year":    func() int { return time.Now().UTC().Year() },
	"upper":   strings.ToUpper,
	"default": orDefault,
}

type set struct {
	subject *texttpl.Template
	text    *texttpl.Template
	html    *htmpl.Template
}

var (
	loadOnce sync.Once
	sets     map[string]*set
	loadErr  error
)

// load parses every embedded template once.
func load() (map[string]*set, error) {
	loadOnce.Do(func() {
		parsed := make(map[string]*set, len(names))
		for _, name := range names {
			s := &set{}
			var err error
			if s.subject, err = parseText(name + ".subject.tmpl"); err != nil {
				loadErr = err
				return
			}
			if s.text, err = parseText(name + ".text.tmpl"); err != nil {
				loadErr = err
				return
			}
			if s.html, err = htmpl.New(name + ".html.tmpl").Funcs(funcs).ParseFS(files, name+".html.tmpl"); err != nil {
				loadErr = fmt.Errorf("parse %s.html.tmpl: %w", name, err)
				return
			}
			parsed[name] = s
		}
		sets = parsed
	})
	return sets, loadErr
}

func parseText(file string) (*texttpl.Template, error) {
	t, err := texttpl.New(file).Funcs(funcs).ParseFS(files, file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	return t, nil
}

// Known reports whether name has an embedded template set.
func Known(name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

type executor interface {
	Execute(w io.Writer, data any) error
}

func execute(t executor, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render produces the subject, plain text and HTML bodies of template name.
func Render(name string, data any) (subject, text, html string, err error) {
	all, err := load()
	if err != nil {
		return "", "", "", err
	}
	s, ok := all[name]
	if !ok {
		return "", "", "", fmt.Errorf("unknown template %q", name)
	}
	if subject, err = execute(s.subject, data); err != nil {
		return "", "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	if text, err = execute(s.text, data); err != nil {
		return "", "", "", fmt.Errorf("render %s text: %w", name, err)
	}
	if html, err = execute(s.html, data); err != nil {
		return "", "", "", fmt.Errorf("render %s html: %w", name, err)
	}
	return strings.TrimSpace(subject), text, html, nil
}
