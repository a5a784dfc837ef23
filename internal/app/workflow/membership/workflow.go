// Package membership is the state machine for user-to-group relationships.
//
// Every transition a membership can undergo goes through here: direct join,
// approval-gated join request, admin-mediated invitation via expiring token,
// request approval/rejection, role change, and removal. Authorization is
// evaluated inside each operation against current database state, so no call
// site can skip the admin check.
//
// Operations fall into two trust categories:
//   - session-authenticated: take an explicit acting-user ID and re-check
//     group admin rights on every call
//   - token-authenticated: ApproveInvitation and RejectInvitation, where
//     possession of the single-use token is the sole authorization factor
//     (the invitee may not be signed in when they follow the link)
package membership

import (
	"context"
	"time"

	grouppolicy "github.com/dalemusser/gatherhub/internal/app/policy/grouppolicy"
	groupstore "github.com/dalemusser/gatherhub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/gatherhub/internal/app/store/memberships"
	"github.com/dalemusser/gatherhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Workflow executes membership transitions against the database.
type Workflow struct {
	db          *mongo.Database
	log         *zap.Logger
	groups      *groupstore.Store
	memberships *membershipstore.Store
	inviteTTL   time.Duration
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithInviteTTL overrides how long invitation tokens stay claimable.
// The default is membershipstore.DefaultInviteTTL (240 hours).
func WithInviteTTL(d time.Duration) Option {
	return func(w *Workflow) {
		if d > 0 {
			w.inviteTTL = d
		}
	}
}

// New builds a Workflow over db.
func New(db *mongo.Database, log *zap.Logger, opts ...Option) *Workflow {
	w := &Workflow{
		db:          db,
		log:         log,
		groups:      groupstore.New(db),
		memberships: membershipstore.New(db),
		inviteTTL:   membershipstore.DefaultInviteTTL,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// InviteTTL returns the configured invitation lifetime.
func (w *Workflow) InviteTTL() time.Duration { return w.inviteTTL }

// isAdmin gates every admin-mutating operation. It reads current membership
// state on each call; admin rights are never cached across requests.
func (w *Workflow) isAdmin(ctx context.Context, group models.Group, userID primitive.ObjectID) (bool, error) {
	return grouppolicy.IsGroupAdmin(ctx, w.db, group, userID)
}
