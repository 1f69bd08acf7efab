package templates

import "github.com/kindo-app/doorbell/models"

const _RelayInvitationSubjectTemplate string = `{{ if .FamilyName }}Join {{ .FamilyName }} on KinDo{{ else }}You've been invited to KinDo{{ end }}`
const _RelayInvitationBodyTemplate string = `
<html>
  <body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
      <h2>Welcome to KinDo!</h2>
      <p>Hi {{ .Name }},</p>
      <p>{{ if .FamilyName }}You've been invited to join {{ .FamilyName }} on KinDo.{{ else }}You've been invited to join a family on KinDo.{{ end }}</p>
      {{ if .ResetLink }}
      <div style="margin: 24px 0;">
        <a href="{{ .ResetLink }}"
           style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">
          Accept Invitation &amp; Set Password
        </a>
      </div>
      <p>If the button doesn't work, copy and paste this link into your browser:<br>{{ .ResetLink }}</p>
      {{ end }}
      {{ if .TemporaryPassword }}
      <p>Your temporary password is <b>{{ .TemporaryPassword }}</b>. You will be asked to change it when you sign in.</p>
      {{ end }}
      <p>This invitation will expire in {{ .ExpiresInDays }} days.</p>
      <p style="color: #666; font-size: 14px;">If you didn't expect this invitation, you can safely ignore this email.</p>
    </div>
  </body>
</html>
`

func NewRelayInvitationTemplate() (models.Template, error) {
	return models.NewPrecompiledTemplate(models.TemplateNameRelayInvitation, _RelayInvitationSubjectTemplate, _RelayInvitationBodyTemplate)
}
