package templates

import "github.com/kindo-app/doorbell/models"

const _InvitationSubjectTemplate string = `You've been invited to KinDo`
const _InvitationBodyTemplate string = `
<h2>Welcome to KinDo!</h2>
<p>Hi {{ .Name }},</p>
<p>You've been invited to join a family on KinDo - the family task management app that brings everyone together!</p>

<p>Click the button below to accept the invitation and set your password:</p>

<div style="margin: 24px 0;">
  <a href="{{ .ResetLink }}"
     style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">
    Accept Invitation &amp; Set Password
  </a>
</div>

<p><b>If the button doesn't work, copy and paste this link into your browser:</b><br>
{{ .ResetLink }}</p>

<p>This invitation will expire in {{ .ExpiresInDays }} days.</p>
<p style="color: #666; font-size: 14px;">If you didn't expect this invitation, you can safely ignore this email.</p>
`

func NewInvitationTemplate() (models.Template, error) {
	return models.NewPrecompiledTemplate(models.TemplateNameInvitation, _InvitationSubjectTemplate, _InvitationBodyTemplate)
}
