// Package mocks provides test doubles for external dependencies
package mocks

import (
	"net/smtp"
	"sync"
)

// SentMail is one message handed to the MailRecorder
type SentMail struct {
	Addr string
	From string
	To   []string
	Msg  []byte
}

// MailRecorder records messages instead of delivering them. Its Send method
// satisfies services.SendMailFunc.
type MailRecorder struct {
	mu   sync.Mutex
	sent []SentMail
	err  error
}

// NewMailRecorder creates an empty recorder
func NewMailRecorder() *MailRecorder {
	return &MailRecorder{}
}

// Send records the message
func (m *MailRecorder) Send(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, SentMail{
		Addr: addr,
		From: from,
		To:   append([]string(nil), to...),
		Msg:  append([]byte(nil), msg...),
	})
	return nil
}

// FailWith makes every following Send return err without recording. A nil
// err restores delivery.
func (m *MailRecorder) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Sent returns a copy of the recorded messages
func (m *MailRecorder) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMail(nil), m.sent...)
}
