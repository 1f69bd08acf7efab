package templates

import "github.com/kindo-app/doorbell/models"

const _DeliveryTestSubjectTemplate string = `KinDo Test Email - Method 1`
const _DeliveryTestBodyTemplate string = `
<h2>Test Email from KinDo</h2>
<p>This is a test email to verify that the email delivery system is working.</p>
<p>If you're receiving this, it means your email configuration is working!</p>
<p>Time sent: {{ .SentAt }}</p>
<p>Debug info:</p>
<ul>
  <li>URL: {{ .BackendURL }}</li>
  <li>Email Provider: {{ .EmailProvider }}</li>
</ul>
`

func NewDeliveryTestTemplate() (models.Template, error) {
	return models.NewPrecompiledTemplate(models.TemplateNameDeliveryTest, _DeliveryTestSubjectTemplate, _DeliveryTestBodyTemplate)
}
