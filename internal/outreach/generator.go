// Package outreach renders the first-touch email for a qualified prospect.
package outreach

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	campaignmodels "leadflow/internal/campaign/models"
	"leadflow/internal/prospect/models"
	dErrors "leadflow/pkg/domain-errors"
	"leadflow/pkg/email"
)

// Content is a rendered message ready for dispatch.
type Content struct {
	Subject string
	Body    string
}

const (
	defaultSubject = `{{if .Company}}{{.Company}} x {{.CampaignName}}{{else}}Quick question, {{.Greeting}}{{end}}`
	defaultBody    = `Hi {{.Greeting}},

{{if .ValueProp}}{{.ValueProp}}{{else}}I'm reaching out about {{.CampaignName}}.{{end}}
{{- if .Product}}

{{.Product}}{{end}}
{{- if .Role}}

Given your role as {{.Role}}{{if .Company}} at {{.Company}}{{end}}, I thought this might be relevant.{{end}}
{{- if .SchedulingURL}}

If it's worth a conversation, you can grab a time here: {{.SchedulingURL}}{{end}}

Best regards
`
)

type view struct {
	Greeting      string
	Company       string
	Role          string
	CampaignName  string
	ValueProp     string
	Product       string
	SchedulingURL string
}

type Generator struct {
	subject *template.Template
	body    *template.Template
}

type Option func(*Generator)

// WithTemplates replaces the built-in subject and body templates. It panics
// on parse errors, like template.Must.
func WithTemplates(subject, body string) Option {
	return func(g *Generator) {
		g.subject = template.Must(template.New("subject").Parse(subject))
		g.body = template.Must(template.New("body").Parse(body))
	}
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		subject: template.Must(template.New("subject").Parse(defaultSubject)),
		body:    template.Must(template.New("body").Parse(defaultBody)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders the campaign's template for p. The greeting uses the
// first name, then a name guessed from the address, then "there".
func (g *Generator) Generate(ctx context.Context, c *campaignmodels.Campaign, p *models.Prospect) (Content, error) {
	if err := ctx.Err(); err != nil {
		return Content{}, err
	}
	if p.Email == "" {
		return Content{}, dErrors.New(dErrors.CodeValidation, "prospect has no email address")
	}
	v := view{
		Greeting:      greeting(p),
		Company:       strings.TrimSpace(p.CompanyName),
		Role:          strings.TrimSpace(p.JobTitle),
		CampaignName:  c.Name,
		ValueProp:     strings.TrimSpace(c.EmailTemplate.ValueProp),
		Product:       strings.TrimSpace(c.EmailTemplate.ProductDescription),
		SchedulingURL: strings.TrimSpace(c.EmailTemplate.SchedulingURL),
	}

	var subject, body bytes.Buffer
	if err := g.subject.Execute(&subject, v); err != nil {
		return Content{}, fmt.Errorf("render subject: %w", err)
	}
	if err := g.body.Execute(&body, v); err != nil {
		return Content{}, fmt.Errorf("render body: %w", err)
	}
	return Content{
		Subject: strings.TrimSpace(subject.String()),
		Body:    body.String(),
	}, nil
}

func greeting(p *models.Prospect) string {
	if name := strings.TrimSpace(p.FirstName); name != "" {
		return name
	}
	if name := email.GreetingName(p.Email); name != "" {
		return name
	}
	return "there"
}
