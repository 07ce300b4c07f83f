// Package email delivers notification mail for the clearance service,
// primarily inspection alerts when a submission lands in the red channel.
package email

import "context"

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
