package templates

import (
	"fmt"

	"github.com/kindo-app/doorbell/models"
)

func New() (models.Templates, error) {
	templates := models.Templates{}

	if template, err := NewInvitationTemplate(); err != nil {
		return nil, fmt.Errorf("templates: failure to create invitation template: %s", err)
	} else {
		templates[template.Name()] = template
	}

	if template, err := NewRelayInvitationTemplate(); err != nil {
		return nil, fmt.Errorf("templates: failure to create relay invitation template: %s", err)
	} else {
		templates[template.Name()] = template
	}

	if template, err := NewDeliveryTestTemplate(); err != nil {
		return nil, fmt.Errorf("templates: failure to create delivery test template: %s", err)
	} else {
		templates[template.Name()] = template
	}

	return templates, nil
}
