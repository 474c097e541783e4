// Package email delivers ticket confirmations for booking events.
package email

import (
	"bytes"
	"context"
	"html/template"
	"strings"

	"github.com/Domenick1991/flightshop/config"
	"github.com/Domenick1991/flightshop/internal/kafka"
	"github.com/cockroachdb/errors"
	"github.com/mrz1836/postmark"
	"github.com/sirupsen/logrus"
)

var ErrFailedToSendEmail = errors.New("failed to send email")

const ticketTag = "ticket-confirmation"

// Transport is the subset of *postmark.Client the sender needs.
type Transport interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

type Sender struct {
	transport Transport
	from      string
	replyTo   string
	log       logrus.FieldLogger
}

// NewSender returns a Postmark-backed sender, or a log-only sender when no
// server token is configured.
func NewSender(cfg config.EmailConfig, log logrus.FieldLogger) *Sender {
	s := &Sender{from: cfg.SenderEmail, replyTo: cfg.SupportEmail, log: log}
	if cfg.PostmarkServerToken != "" {
		s.transport = postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken)
	}
	return s
}

func NewSenderWithTransport(t Transport, from, replyTo string, log logrus.FieldLogger) *Sender {
	return &Sender{transport: t, from: from, replyTo: replyTo, log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.Email == "" {
		return errors.Mark(errors.New("recipient is empty"), ErrFailedToSendEmail)
	}

	body, err := renderTicket(event)
	if err != nil {
		return errors.Wrap(err, "render ticket")
	}
	subject := "Your flight booking " + event.BookingReference

	if s.transport == nil {
		s.log.WithFields(logrus.Fields{
			"to":                event.Email,
			"subject":           subject,
			"booking_reference": event.BookingReference,
		}).Info("email delivery disabled, ticket not sent")
		return nil
	}

	resp, err := s.transport.SendEmail(ctx, postmark.Email{
		From:       s.from,
		ReplyTo:    s.replyTo,
		To:         event.Email,
		Subject:    subject,
		Tag:        ticketTag,
		HTMLBody:   body,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return errors.Mark(errors.Wrap(err, "postmark"), ErrFailedToSendEmail)
	}
	if resp.ErrorCode > 0 {
		return errors.Mark(errors.Newf("postmark error %d: %s", resp.ErrorCode, resp.Message), ErrFailedToSendEmail)
	}
	return nil
}

var ticketTemplate = template.Must(template.New("ticket").Parse(`<!DOCTYPE html>
<html><body>
<h1>Booking confirmed</h1>
<p>Reference: <strong>{{.BookingReference}}</strong></p>
<p>{{.Origin}} &rarr; {{.Destination}} on {{.DepartureDate}}{{if .ReturnDate}}, returning {{.ReturnDate}}{{end}}</p>
<p>Passengers: {{.Passengers}}</p>
<p>Total paid: {{.TotalAmount}} {{.TotalCurrency}}</p>
</body></html>`))

func renderTicket(event kafka.BookingEvent) (string, error) {
	var buf bytes.Buffer
	err := ticketTemplate.Execute(&buf, struct {
		kafka.BookingEvent
		Passengers string
	}{event, strings.Join(event.PassengerNames, ", ")})
	return buf.String(), err
}
