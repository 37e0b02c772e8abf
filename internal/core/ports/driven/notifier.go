package driven

import "context"

// PRDCreatedNotification carries everything the dispatcher needs to
// tell a recipient that a PRD was created.
type PRDCreatedNotification struct {
	RecipientEmail string
	RecipientName  string
	PRDID          string
	PRDTitle       string
	ProjectName    string
}

// PRDDecidedNotification announces an approval or rejection.
type PRDDecidedNotification struct {
	RecipientEmail string
	RecipientName  string
	PRDID          string
	PRDTitle       string
	ProjectName    string
	Status         string
	DecidedBy      string
}

// Notifier delivers domain-event notifications to a single recipient.
// Delivery is best-effort: callers log errors and move on, they never
// propagate them to the request that triggered the event.
type Notifier interface {
	NotifyPRDCreated(ctx context.Context, n PRDCreatedNotification) error
	NotifyPRDDecided(ctx context.Context, n PRDDecidedNotification) error
}
