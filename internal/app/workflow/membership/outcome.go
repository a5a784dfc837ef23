package membership

import "github.com/dalemusser/gatherhub/internal/domain/models"

// Outcome classifies how an operation resolved. Handlers map outcomes to
// HTTP responses; the workflow itself never speaks HTTP.
type Outcome string

const (
	// Success: the requested transition happened.
	Success Outcome = "success"

	// AuthorizationDenied: the acting user lacks admin rights in the group.
	AuthorizationDenied Outcome = "authorization_denied"

	// AlreadyExists: the user already has a membership row in the group.
	AlreadyExists Outcome = "already_exists"

	// NotFound: the group, membership, or token could not be matched.
	// Invalid and expired tokens both land here so the response does not
	// reveal which case occurred.
	NotFound Outcome = "not_found"

	// InvalidTransition: the transition is never allowed, such as changing
	// the group owner's role.
	InvalidTransition Outcome = "invalid_transition"
)

// Result is what every workflow operation returns. Message is safe to show
// to the end user as-is. Membership is populated on Success where the
// operation produced or located a row.
type Result struct {
	Outcome    Outcome
	Message    string
	Membership *models.GroupMembership
}

func success(msg string, m *models.GroupMembership) Result {
	return Result{Outcome: Success, Message: msg, Membership: m}
}

func denied() Result {
	return Result{Outcome: AuthorizationDenied, Message: "You are not allowed to manage this group."}
}
