package mail

import (
	"bytes"
	"html/template"
)

var notificationTemplate = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif;">
  <p>Hi {{.Username}},</p>
  <p>{{.Message}}</p>
  <p style="color: #888; font-size: 12px;">You are receiving this because of activity in your projects.</p>
</body>
</html>`))

// NotificationBody holds the values rendered into a notification email.
type NotificationBody struct {
	Username string
	Message  string
}

// RenderNotification renders the HTML body for a notification email.
func RenderNotification(body NotificationBody) (string, error) {
	var buf bytes.Buffer
	if err := notificationTemplate.Execute(&buf, body); err != nil {
		return "", err
	}
	return buf.String(), nil
}
