// Package email delivers transactional mail for the authentication flows
// (confirmation links, password reset tokens). Delivery failures never block
// an auth operation; callers log them and move on.
package email

import "context"

// Message is a single transactional email.
type Message struct {
	To       string
	Subject  string
	TextBody string
}

// Sender delivers a transactional email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
