package notify

import "context"

// FollowUpMessage is texted to every caller after their call completes.
const FollowUpMessage = `Thank you for calling Faith Agency. Here is the link of our website:
www.vivabiblia.com`

// Sender delivers an SMS to one recipient.
type Sender interface {
	Send(ctx context.Context, to, body string) (string, error)
}
