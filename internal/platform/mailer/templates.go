package mailer

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// Template names a registered email template.
type Template string

// Registered templates.
const (
	TemplateTaskReminder  Template = "taskReminder"
	TemplateDailyDigest   Template = "dailyDigest"
	TemplateTaskCompleted Template = "taskCompleted"
)

// ErrUnknownTemplate is returned when a message names a template that is not registered.
var ErrUnknownTemplate = errors.New("unknown email template")

// ReminderData fills the taskReminder template.
type ReminderData struct {
	Title          string
	Description    string
	Priority       string
	OwnerName      string
	HoursRemaining int
	DueDate        time.Time
}

// CompletionData fills the taskCompleted template.
type CompletionData struct {
	Title       string
	Description string
	OwnerName   string
}

// DigestItem is one task line in the daily digest.
type DigestItem struct {
	Title    string
	Priority string
	DueDate  time.Time
	Overdue  bool
}

// DigestData fills the dailyDigest template.
type DigestData struct {
	OwnerName string
	Tasks     []DigestItem
}

// Rendered is the output of a template: a subject plus both bodies.
type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

type templateSet struct {
	file    string
	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

var subjects = map[Template]string{
	TemplateTaskReminder:  `Reminder: "{{.Data.Title}}" due soon!`,
	TemplateDailyDigest:   `Your daily digest: {{len .Data.Tasks}} open {{if eq (len .Data.Tasks) 1}}task{{else}}tasks{{end}}`,
	TemplateTaskCompleted: `Task completed: "{{.Data.Title}}". Great job!`,
}

var files = map[Template]string{
	TemplateTaskReminder:  "task_reminder",
	TemplateDailyDigest:   "daily_digest",
	TemplateTaskCompleted: "task_completed",
}

var funcs = map[string]any{
	"hours": func(n int) string {
		if n == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", n)
	},
	"priorityColor": func(p string) string {
		switch strings.ToLower(p) {
		case "high":
			return "#f56565"
		case "low":
			return "#48bb78"
		default:
			return "#ed8936"
		}
	},
}

// templateContext is what every template executes against.
type templateContext struct {
	Data     any
	AppURL   string
	FromName string
}

// Renderer renders the embedded templates.
type Renderer struct {
	appURL   string
	fromName string
	sets     map[Template]*templateSet
}

// NewRenderer parses every embedded template. appURL is used for links back
// to the frontend and fromName for the signature.
func NewRenderer(appURL, fromName string) (*Renderer, error) {
	r := &Renderer{
		appURL:   strings.TrimRight(appURL, "/"),
		fromName: fromName,
		sets:     make(map[Template]*templateSet, len(files)),
	}

	for name, file := range files {
		set := &templateSet{file: file}
		var err error

		set.subject, err = texttemplate.New(string(name) + ".subject").Funcs(funcs).Parse(subjects[name])
		if err != nil {
			return nil, fmt.Errorf("failed to parse subject for %s: %w", name, err)
		}
		set.text, err = texttemplate.New(file + ".txt").Funcs(funcs).ParseFS(templateFS, "templates/"+file+".txt")
		if err != nil {
			return nil, fmt.Errorf("failed to parse text body for %s: %w", name, err)
		}
		set.html, err = htmltemplate.New(file + ".html").Funcs(funcs).ParseFS(templateFS, "templates/"+file+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse html body for %s: %w", name, err)
		}
		r.sets[name] = set
	}
	return r, nil
}

// Render executes the named template with data.
func (r *Renderer) Render(name Template, data any) (Rendered, error) {
	set, ok := r.sets[name]
	if !ok {
		return Rendered{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}

	ctx := templateContext{Data: data, AppURL: r.appURL, FromName: r.fromName}
	var subject, text, html bytes.Buffer

	if err := set.subject.Execute(&subject, ctx); err != nil {
		return Rendered{}, fmt.Errorf("failed to render subject for %s: %w", name, err)
	}
	if err := set.text.Execute(&text, ctx); err != nil {
		return Rendered{}, fmt.Errorf("failed to render text body for %s: %w", name, err)
	}
	if err := set.html.Execute(&html, ctx); err != nil {
		return Rendered{}, fmt.Errorf("failed to render html body for %s: %w", name, err)
	}

	return Rendered{
		Subject: strings.TrimSpace(subject.String()),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
