// internal/email/service.go
package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/sendgrid/sendgrid-go"

	osfield "github.com/osfield/osfield"
	"github.com/osfield/osfield/internal/config"
)

var templateFS = osfield.EmailFS

// Provider identifies supported email providers.
type Provider string

const (
	ProviderSMTP     Provider = "smtp"
	ProviderSendgrid Provider = "sendgrid"

	templatePath = "templates/emails"
)

// EmailData contains everything needed to send one email.
type EmailData struct {
	To           string
	From         string
	FromName     string
	Subject      string
	TemplateName string
	TemplateData interface{}
}

// Service renders embedded templates and sends through the configured
// provider.
type Service struct {
	config         *config.Config
	provider       Provider
	sendgridClient *sendgrid.Client
	templates      map[string]*Template
}

type Template struct {
	HTML      *template.Template
	Plaintext *template.Template
}

func NewService(config *config.Config, provider Provider) (*Service, error) {
	s := &Service{
		config:    config,
		provider:  provider,
		templates: make(map[string]*Template),
	}

	if provider == ProviderSendgrid {
		s.sendgridClient = sendgrid.NewSendClient(config.Sendgrid.APIKey)
	}

	if err := s.loadTemplates(); err != nil {
		return nil, fmt.Errorf("loading email templates: %w", err)
	}

	return s, nil
}

// loadTemplates reads every template group from the embedded filesystem.
// Each group directory must hold exactly an html.tmpl and a plaintext.tmpl.
func (s *Service) loadTemplates() error {
	groups, err := templateFS.ReadDir(templatePath)
	if err != nil {
		return fmt.Errorf("reading email templates directory: %w", err)
	}
	if len(groups) == 0 {
		return fmt.Errorf("no email templates found")
	}

	for _, group := range groups {
		if !group.IsDir() {
			continue
		}

		groupPath := templatePath + "/" + group.Name()
		entries, err := templateFS.ReadDir(groupPath)
		if err != nil {
			return fmt.Errorf("reading email template group %s: %w", group.Name(), err)
		}
		if len(entries) != 2 {
			return fmt.Errorf("invalid email template group %s: must contain exactly two files (HTML and plaintext)", group.Name())
		}

		s.templates[group.Name()] = &Template{
			HTML:      template.Must(template.ParseFS(templateFS, groupPath+"/html.tmpl")),
			Plaintext: template.Must(template.ParseFS(templateFS, groupPath+"/plaintext.tmpl")),
		}
	}

	return nil
}

// Send renders both versions of the template and dispatches the email.
func (s *Service) Send(data EmailData) error {
	htmlContent, textContent, err := s.renderTemplate(data.TemplateName, data.TemplateData)
	if err != nil {
		return fmt.Errorf("rendering template: %w", err)
	}

	switch s.provider {
	case ProviderSendgrid:
		if data.From == "" {
			data.From = s.config.Sendgrid.From
		}
		return s.sendWithSendgrid(data, htmlContent, textContent)
	case ProviderSMTP:
		if data.From == "" {
			data.From = s.config.SMTP.From
		}
		if data.From == "" {
			return fmt.Errorf("missing sender email address (From)")
		}
		return s.sendWithSMTP(data, htmlContent, textContent)
	default:
		return fmt.Errorf("unsupported email provider: %s", s.provider)
	}
}

func (s *Service) renderTemplate(name string, data interface{}) (string, string, error) {
	tmpl, exists := s.templates[name]
	if !exists {
		return "", "", fmt.Errorf("template %s not found", name)
	}

	var htmlBuf bytes.Buffer
	if err := tmpl.HTML.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("executing HTML template: %w", err)
	}

	var textBuf bytes.Buffer
	if err := tmpl.Plaintext.Execute(&textBuf, data); err != nil {
		return "", "", fmt.Errorf("executing plaintext template: %w", err)
	}

	return htmlBuf.String(), textBuf.String(), nil
}
