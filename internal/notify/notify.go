// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package notify sends mail alerts about failed regression runs.
package notify // import "github.com/go-lpc/acqreg/internal/notify"

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-lpc/acqreg/regress"
	mail "gopkg.in/gomail.v2"
)

// Mailer sends alert mails.
type Mailer struct {
	From string
	To   []string

	send func(msgs ...*mail.Message) error
}

// NewMailer returns a mailer sending through the provided SMTP server.
func NewMailer(host string, port int, usr, pwd string, to []string) *Mailer {
	dial := mail.NewDialer(host, port, usr, pwd)
	return &Mailer{
		From: usr,
		To:   to,
		send: dial.DialAndSend,
	}
}

// NewMailerWith returns a mailer sending through s.
func NewMailerWith(s mail.Sender, from string, to []string) *Mailer {
	return &Mailer{
		From: from,
		To:   to,
		send: func(msgs ...*mail.Message) error {
			return mail.Send(s, msgs...)
		},
	}
}

// FromEnv returns a mailer configured from the MAIL_USERNAME, MAIL_PASSWORD,
// MAIL_SERVER, MAIL_PORT and MAIL_TGTS environment variables.
func FromEnv() (*Mailer, error) {
	var (
		usr  = os.Getenv("MAIL_USERNAME")
		pwd  = os.Getenv("MAIL_PASSWORD")
		srv  = os.Getenv("MAIL_SERVER")
		port = os.Getenv("MAIL_PORT")
		tgts = os.Getenv("MAIL_TGTS")
	)
	if usr == "" || pwd == "" || srv == "" || port == "" || tgts == "" {
		return nil, fmt.Errorf("notify: missing mail credentials")
	}
	p, err := strconv.Atoi(port)
	if err != nil || p <= 0 {
		return nil, fmt.Errorf("notify: invalid mail port %q", port)
	}
	return NewMailer(srv, p, usr, pwd, strings.Split(tgts, ",")), nil
}

// Send sends a plain text mail.
func (m *Mailer) Send(subject, body string) error {
	if len(m.To) == 0 {
		return fmt.Errorf("notify: no mail recipient")
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("Bcc", m.To...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	err := m.send(msg)
	if err != nil {
		return fmt.Errorf("notify: could not send mail %q: %w", subject, err)
	}
	return nil
}

// Alert sends a mail listing the failures of a regression iteration.
// No mail is sent for a successful iteration.
func (m *Mailer) Alert(iter int, rep *regress.Report) error {
	err := rep.Err()
	if err == nil {
		return nil
	}

	units := make([]string, len(rep.Units))
	for i, u := range rep.Units {
		units[i] = u.Name
	}

	var body strings.Builder
	fmt.Fprintf(&body, "test:      %s\n", rep.Plan.Name)
	fmt.Fprintf(&body, "mode:      %v\n", rep.Plan.Mode)
	fmt.Fprintf(&body, "trigger:   %v\n", rep.Plan.Trigger)
	fmt.Fprintf(&body, "event:     %v\n", rep.Plan.Event)
	fmt.Fprintf(&body, "iteration: %d\n", iter)
	fmt.Fprintf(&body, "units:     %s\n\n", strings.Join(units, ", "))
	fmt.Fprintf(&body, "failures:\n%v\n", err)

	return m.Send(
		fmt.Sprintf("[acqreg] %s: iteration %d FAILED", rep.Plan.Name, iter),
		body.String(),
	)
}
