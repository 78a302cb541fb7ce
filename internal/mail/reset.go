package mail

import (
	"bytes"
	"context"
	"html/template"
	texttemplate "text/template"
	"time"

	"github.com/iliyamo/streaming-catalog/internal/model"
)

var resetHTML = template.Must(template.New("reset").Parse(`<p>Hi{{if .Name}} {{.Name}}{{end}},</p>
<p>We received a request to reset your password.</p>
<p><a href="{{.ResetURL}}">Click here to reset</a> (valid for {{.Minutes}} minutes).</p>
<p>If you didn't request this, ignore this email.</p>
`))

var resetText = texttemplate.Must(texttemplate.New("reset").Parse(`Hi{{if .Name}} {{.Name}}{{end}},

We received a request to reset your password.
Open this link to reset it (valid for {{.Minutes}} minutes):

{{.ResetURL}}

If you didn't request this, ignore this email.
`))

// PasswordResetMessage renders the reset email for n.  now is used to state
// how long the link stays valid.
func PasswordResetMessage(n model.ResetNotice, now time.Time) (Message, error) {
	data := struct {
		Name     string
		ResetURL string
		Minutes  int
	}{n.Name, n.ResetURL, int(n.ExpiresAt.Sub(now).Round(time.Minute) / time.Minute)}
	if data.Minutes < 1 {
		data.Minutes = 1
	}

	var html, text bytes.Buffer
	if err := resetHTML.Execute(&html, data); err != nil {
		return Message{}, err
	}
	if err := resetText.Execute(&text, data); err != nil {
		return Message{}, err
	}
	return Message{To: n.Email, Subject: "Reset your password", HTML: html.String(), Text: text.String()}, nil
}

// ResetNotifier delivers reset notices by email directly, without a queue.
type ResetNotifier struct {
	mailer Mailer
	now    func() time.Time
}

func NewResetNotifier(m Mailer) *ResetNotifier {
	return &ResetNotifier{mailer: m, now: func() time.Time { return time.Now().UTC() }}
}

func (r *ResetNotifier) NotifyPasswordReset(ctx context.Context, n model.ResetNotice) error {
	msg, err := PasswordResetMessage(n, r.now())
	if err != nil {
		return err
	}
	return r.mailer.Send(ctx, msg)
}
