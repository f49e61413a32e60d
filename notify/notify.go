// Package notify pushes human-readable status messages after each terminal
// pipeline outcome. Delivery is fire and forget: a notifier failure is
// logged and never aborts the upload pipeline.
package notify

import "log"

type Notifier interface {
	Send(subject, message string) error
}

// Multi fans one message out to every configured notifier. It always
// returns nil; individual failures are only logged.
type Multi []Notifier

func (m Multi) Send(subject, message string) error {
	for _, n := range m {
		if err := n.Send(subject, message); err != nil {
			log.Printf("notification failed: %v", err)
		}
	}
	return nil
}

// Discard drops every message. Used when no notifier is configured.
type Discard struct{}

func (Discard) Send(subject, message string) error { return nil }
