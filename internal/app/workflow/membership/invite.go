package membership

import (
	"context"
	"errors"
	"time"

	membershipstore "github.com/dalemusser/gatherhub/internal/app/store/memberships"
	"github.com/dalemusser/gatherhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// invalidTokenMessage covers unknown, used, and expired tokens alike, so the
// response never reveals which case occurred.
const invalidTokenMessage = "This invitation is invalid or has expired."

// InviteUser invites targetUserID into group on behalf of inviterID, who
// must currently administer the group.
//
// An invitation supersedes whatever relationship the target already has:
// a rejected, pending, or even approved row is replaced by a fresh pending
// row carrying a single-use token. The swap is one upsert against the unique
// (user_id, group_id) key, atomic on any server topology, so a failure mid
// invite can never leave the target with no row where one existed before. A
// concurrent insert racing the upsert surfaces as AlreadyExists.
//
// The returned Membership carries the plaintext token; the caller builds
// the invitation link from it.
func (w *Workflow) InviteUser(ctx context.Context, group models.Group, targetUserID, inviterID primitive.ObjectID) (Result, error) {
	ok, err := w.isAdmin(ctx, group, inviterID)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return denied(), nil
	}

	token := membershipstore.NewInviteToken()
	expires := time.Now().UTC().Add(w.inviteTTL)

	created, err := w.memberships.SupersedeInvite(ctx, models.GroupMembership{
		GroupID:         group.ID,
		UserID:          targetUserID,
		Role:            models.RoleUser,
		Status:          models.StatusPending,
		Token:           token,
		TokenExpireDate: &expires,
		CreatedBy:       inviterID,
	})
	if err != nil {
		if errors.Is(err, membershipstore.ErrDuplicateMembership) {
			return Result{
				Outcome: AlreadyExists,
				Message: "This user's membership changed while the invitation was being created. Try again.",
			}, nil
		}
		return Result{}, err
	}

	w.log.Info("group invitation created",
		zap.String("group", group.Slug),
		zap.String("target", targetUserID.Hex()),
		zap.String("inviter", inviterID.Hex()),
		zap.Time("expires", expires))
	return success("Invitation sent.", &created), nil
}

// ApproveInvitation accepts an invitation by token. This is a
// token-authenticated operation: no session identity is checked, possession
// of the token is the authorization.
//
// The claim is a single atomic compare-and-set on
// {token, token_used: null, token_expire_date > now}; of two concurrent
// accepts exactly one wins and the other gets NotFound with no state change.
func (w *Workflow) ApproveInvitation(ctx context.Context, token string) (Result, error) {
	m, err := w.memberships.ClaimToken(ctx, token)
	if err != nil {
		if errors.Is(err, membershipstore.ErrTokenInvalid) {
			return Result{Outcome: NotFound, Message: invalidTokenMessage}, nil
		}
		return Result{}, err
	}

	w.log.Info("group invitation accepted",
		zap.String("group", m.GroupID.Hex()),
		zap.String("user", m.UserID.Hex()))
	return success("Invitation accepted. Welcome to the group!", m), nil
}

// RejectInvitation declines an invitation by token, deleting the membership
// row so the user can be re-invited or join on their own later. Same token
// validity window and atomicity as ApproveInvitation.
func (w *Workflow) RejectInvitation(ctx context.Context, token string) (Result, error) {
	m, err := w.memberships.RejectToken(ctx, token)
	if err != nil {
		if errors.Is(err, membershipstore.ErrTokenInvalid) {
			return Result{Outcome: NotFound, Message: invalidTokenMessage}, nil
		}
		return Result{}, err
	}

	w.log.Info("group invitation declined",
		zap.String("group", m.GroupID.Hex()),
		zap.String("user", m.UserID.Hex()))
	return success("Invitation declined.", m), nil
}

// LookupInvitation loads the membership behind a still-claimable token
// without consuming it, so the invitation page can show the group before
// the user decides.
func (w *Workflow) LookupInvitation(ctx context.Context, token string) (Result, error) {
	m, err := w.memberships.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, membershipstore.ErrTokenInvalid) {
			return Result{Outcome: NotFound, Message: invalidTokenMessage}, nil
		}
		return Result{}, err
	}
	return success("", m), nil
}
