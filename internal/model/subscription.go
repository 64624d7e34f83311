package model

// Subscription is Strava's push subscription for this application.
// Strava allows at most one per application.
type Subscription struct {
	ID            int64  `json:"id"`
	ApplicationID int64  `json:"application_id,omitempty"`
	CallbackURL   string `json:"callback_url"`
	VerifyToken   string `json:"-"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

type SubscriptionOutcome string

const (
	SubscriptionCreated       SubscriptionOutcome = "created"
	SubscriptionAlreadyExists SubscriptionOutcome = "already_exists"
)

// SubscriptionResult is returned by create; AlreadyExists is a success.
type SubscriptionResult struct {
	Outcome      SubscriptionOutcome `json:"outcome"`
	Subscription *Subscription       `json:"subscription,omitempty"`
	Detail       string              `json:"detail,omitempty"`
}
