// Package notify formats and delivers the recommendation email.
package notify

import (
	"bytes"
	"context"
	"strings"
	"text/template"
)

// Recommendation is everything the email needs.
type Recommendation struct {
	Email   string
	Cuisine string
	Name    string
	Address string
}

// Notifier delivers a recommendation. Transport failures are returned so
// the caller can leave the triggering message for a retry.
type Notifier interface {
	Notify(ctx context.Context, rec Recommendation) error
}

// Email is a composed plain-text message.
type Email struct {
	To      string
	Subject string
	Body    string
}

var bodyTmpl = template.Must(template.New("body").Parse(`Hi,

Based on your request, we recommend:

Restaurant: {{.Name}}
Cuisine: {{.Cuisine}}
Address: {{.Address}}

Enjoy your meal!
`))

// Compose renders the fixed subject and body for rec.
func Compose(rec Recommendation) Email {
	var b bytes.Buffer
	// Execute cannot fail on a struct with only string fields.
	_ = bodyTmpl.Execute(&b, rec)
	return Email{
		To:      strings.TrimSpace(rec.Email),
		Subject: "Your " + rec.Cuisine + " restaurant recommendation",
		Body:    b.String(),
	}
}
