package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// ErrSendFailed wraps any delivery failure reported by the provider.
var ErrSendFailed = errors.New("email send failed")

// PostmarkSender delivers mail through Postmark's transactional API.
type PostmarkSender struct {
	client *postmark.Client
	from   string
}

// NewPostmarkSender constructs a sender for the given server token and
// from-address.
func NewPostmarkSender(serverToken, from string) (*PostmarkSender, error) {
	if serverToken == "" {
		return nil, errors.New("postmark server token is required")
	}
	if from == "" {
		return nil, errors.New("sender address is required")
	}
	return &PostmarkSender{
		client: postmark.NewClient(serverToken, ""),
		from:   from,
	}, nil
}

// Send delivers the message.
func (s *PostmarkSender) Send(ctx context.Context, msg Message) error {
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.from,
		To:       msg.To,
		Subject:  msg.Subject,
		TextBody: msg.TextBody,
	})
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrSendFailed,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

var _ Sender = (*PostmarkSender)(nil)
