package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"log"

	"gopkg.in/gomail.v2"
)

// WaitlistOpening carries the details for a "your room freed up" mail.
type WaitlistOpening struct {
	AccommodationName string
	RoomName          string
	Checkin           string
	Checkout          string
	ExpiresHours      int
}

// Mailer dispatches out-of-band notifications. Delivery is best-effort:
// implementations log failures and never return them to the transaction
// that triggered the notification.
type Mailer interface {
	SendWaitlistOpening(to string, data WaitlistOpening)
}

var openingTemplate = template.Must(template.New("waitlist_opening").Parse(`
<h2>A room you were waiting for is available again</h2>
<p>{{.AccommodationName}}, {{.RoomName}}</p>
<p>{{.Checkin}} ~ {{.Checkout}}</p>
<p>This booking opportunity is held for you for {{.ExpiresHours}} hours. First come, first served.</p>
`))

// SMTPMailer sends mail through an SMTP relay using gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) SendWaitlistOpening(to string, data WaitlistOpening) {
	var body bytes.Buffer
	if err := openingTemplate.Execute(&body, data); err != nil {
		log.Printf("render waitlist mail failed: to=%s err=%v", to, err)
		return
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("[%s] A spot opened up for %s", data.AccommodationName, data.Checkin))
	msg.SetBody("text/html", body.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		log.Printf("send waitlist mail failed: to=%s err=%v", to, err)
	}
}

// LogMailer is used when SMTP is not configured (dev, tests). It only logs.
type LogMailer struct{}

func (LogMailer) SendWaitlistOpening(to string, data WaitlistOpening) {
	log.Printf("waitlist opening (mail disabled): to=%s room=%s %s~%s",
		to, data.RoomName, data.Checkin, data.Checkout)
}
