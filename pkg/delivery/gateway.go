// Package delivery abstracts the outbound notification channel. Exactly one
// gateway is active per process, chosen by which credentials are present.
package delivery

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured marks a gateway missing its credentials. The hourly
// trigger treats it as a soft skip; the manual test path reports it as a
// failure.
var ErrNotConfigured = errors.New("delivery channel not configured")

// DeliveryError wraps a transport-level send failure.
type DeliveryError struct {
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery via %s failed: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

type Gateway interface {
	Name() string
	IsConfigured() bool
	Send(ctx context.Context, text string) error
}

// FormatMessage appends the attribution line when an author is set.
func FormatMessage(text, author string) string {
	if author == "" {
		return text
	}
	return text + "\n\n— " + author
}
