package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"nursehub-api/internal/model"
)

type statusCopy struct {
	Icon    string
	Color   string
	BgColor string
	Title   string
	Message string
	Next    string
}

var emailCopy = map[model.Status]statusCopy{
	model.StatusPending: {
		Icon: "⏰", Color: "#d4a574", BgColor: "#fef6ec",
		Title:   "Request Received",
		Message: "Thank you for choosing NurseHub! We've received your appointment request and our team will review it shortly. You'll hear from us soon to confirm the details of your home visit.",
		Next:    "Our team is reviewing your request and will contact you within 24 hours.",
	},
	model.StatusApproved: {
		Icon: "✅", Color: "#6b9b7a", BgColor: "#f0f7f3",
		Title:   "Appointment Approved!",
		Message: "Great news! Your appointment has been approved. Our nursing team will be in touch shortly to schedule the exact date and time for your visit.",
		Next:    "Check your phone for a call from our scheduling team to arrange your visit.",
	},
	model.StatusCompleted: {
		Icon: "🎉", Color: "#8b5e3c", BgColor: "#f5ede4",
		Title:   "Visit Completed",
		Message: "Thank you for choosing NurseHub for your home healthcare needs. If you need any follow-up care, we're here for you!",
		Next:    "We hope you're feeling better! If you need any follow-up care, just reach out.",
	},
	model.StatusCancelled: {
		Icon: "❌", Color: "#c97766", BgColor: "#fef2f0",
		Title:   "Appointment Cancelled",
		Message: "Your appointment has been cancelled. If this was unexpected or you have any questions, please don't hesitate to contact us.",
		Next:    "You can submit a new appointment request anytime through our website.",
	},
}

var emailTmpl = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>NurseHub - {{.Copy.Title}}</title></head>
<body style="font-family:Arial,sans-serif;background:#fdfaf6;color:#1a1814;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:16px;overflow:hidden">
  <div style="background:#d97757;padding:32px;text-align:center;color:#fff">
    <h1 style="margin:0">NurseHub</h1>
    <p style="margin:0">Professional Home Care Services</p>
  </div>
  <div style="background:{{.Copy.BgColor}};border-left:4px solid {{.Copy.Color}};padding:20px 30px">
    <strong style="color:{{.Copy.Color}}">{{.Copy.Icon}} {{.Copy.Title}}</strong><br>
    <small>Status: {{.Status}}</small>
  </div>
  <div style="padding:30px">
    <h2>Hello {{.Name}}!</h2>
    <p>{{.Copy.Message}}</p>
    {{- if .Reason}}
    <p><strong>Reason:</strong> {{.Reason}}</p>
    {{- end}}
    <p><strong>What's Next?</strong><br>{{.Copy.Next}}</p>
    <p>With care and compassion,<br><strong>The NurseHub Team</strong></p>
  </div>
  <div style="background:#f5ede4;padding:20px;text-align:center;font-size:12px;color:#9b9389">
    &copy; {{.Year}} NurseHub. You're receiving this email because you booked an appointment with us.
  </div>
</div>
</body>
</html>
`))

// Subject is the email subject line for a status.
func Subject(status model.Status) string {
	if status == model.StatusPending {
		return "Appointment Request Received - NurseHub"
	}
	return fmt.Sprintf("Appointment %s - NurseHub", status)
}

// RenderEmail builds the HTML body. The reason is shown only for CANCELLED.
func RenderEmail(status model.Status, name, reason string) (string, error) {
	c, ok := emailCopy[status]
	if !ok {
		return "", fmt.Errorf("no email copy for status %q", status)
	}
	if status != model.StatusCancelled {
		reason = ""
	}
	var buf bytes.Buffer
	err := emailTmpl.Execute(&buf, struct {
		Copy   statusCopy
		Status model.Status
		Name   string
		Reason string
		Year   int
	}{c, status, name, reason, time.Now().Year()})
	return buf.String(), err
}

// CustomerText is the SMS sent to a customer after a status change.
func CustomerText(status model.Status, name, reason string) string {
	switch status {
	case model.StatusPending:
		return fmt.Sprintf("Hello %s! Your NurseHub appointment is received. We'll contact you within 24h.", name)
	case model.StatusApproved:
		return fmt.Sprintf("Good news %s! Your NurseHub appointment is APPROVED. We'll call you soon!", name)
	case model.StatusCompleted:
		return fmt.Sprintf("Thank you %s! Hope you had a great experience with NurseHub.", name)
	case model.StatusCancelled:
		if reason != "" {
			return fmt.Sprintf("Hi %s, your NurseHub appointment is cancelled. Reason: %s", name, reason)
		}
		return fmt.Sprintf("Hi %s, your NurseHub appointment is cancelled. Contact us to reschedule.", name)
	}
	return fmt.Sprintf("Hello %s, your appointment is now: %s", name, status)
}

// OperatorText summarises a new booking for the operator's phone.
func OperatorText(a *model.Appointment) string {
	return fmt.Sprintf("New appointment: %s, %s. Reason: %s", a.Name, a.Phone, a.Reason)
}
