package models

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

type TemplateName string

const (
	TemplateNameUndefined       TemplateName = ""
	TemplateNameInvitation      TemplateName = "family_invitation"
	TemplateNameRelayInvitation TemplateName = "relay_invitation"
	TemplateNameDeliveryTest    TemplateName = "delivery_test"
)

type Template interface {
	Name() TemplateName
	Execute(content interface{}) (string, string, error)
}

type Templates map[TemplateName]Template

type PrecompiledTemplate struct {
	name    TemplateName
	subject *texttemplate.Template
	body    *template.Template
}

func NewPrecompiledTemplate(name TemplateName, subjectTemplate string, bodyTemplate string) (*PrecompiledTemplate, error) {
	if name == TemplateNameUndefined {
		return nil, fmt.Errorf("models: name is missing")
	}
	if subjectTemplate == "" {
		return nil, fmt.Errorf("models: subject template is missing")
	}
	if bodyTemplate == "" {
		return nil, fmt.Errorf("models: body template is missing")
	}

	precompiledSubject, err := texttemplate.New(string(name)).Parse(subjectTemplate)
	if err != nil {
		return nil, fmt.Errorf("models: failure to precompile subject template: %s", err)
	}

	precompiledBody, err := template.New(string(name)).Parse(bodyTemplate)
	if err != nil {
		return nil, fmt.Errorf("models: failure to precompile body template: %s", err)
	}

	return &PrecompiledTemplate{
		name:    name,
		subject: precompiledSubject,
		body:    precompiledBody,
	}, nil
}

func (p *PrecompiledTemplate) Name() TemplateName {
	return p.name
}

// Execute renders subject and body with the same content
func (p *PrecompiledTemplate) Execute(content interface{}) (string, string, error) {
	var subjectBuffer bytes.Buffer
	var bodyBuffer bytes.Buffer

	if err := p.subject.Execute(&subjectBuffer, content); err != nil {
		return "", "", fmt.Errorf("models: failure to execute subject template %s with content", p.name)
	}

	if err := p.body.Execute(&bodyBuffer, content); err != nil {
		return "", "", fmt.Errorf("models: failure to execute body template %s with content", p.name)
	}

	return subjectBuffer.String(), bodyBuffer.String(), nil
}
