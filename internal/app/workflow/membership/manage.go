package membership

import (
	"context"

	"github.com/dalemusser/gatherhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ActionApprove is the approveRequest action that admits the requester.
// Any other action value rejects the request.
const ActionApprove = "approve"

// ApproveRequest resolves a pending join request for targetUserID.
// action == ActionApprove admits the user; anything else rejects them.
// actingUserID must currently administer the group.
//
// Only pending rows are touched. If the target has no pending request (it
// was already resolved, or never existed) the operation is a quiet no-op
// success, which makes concurrent resolutions by two admins idempotent.
func (w *Workflow) ApproveRequest(ctx context.Context, group models.Group, targetUserID primitive.ObjectID, action string, actingUserID primitive.ObjectID) (Result, error) {
	ok, err := w.isAdmin(ctx, group, actingUserID)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return denied(), nil
	}

	toStatus := models.StatusRejected
	msg := "The join request has been rejected."
	if action == ActionApprove {
		toStatus = models.StatusApproved
		msg = "The join request has been approved."
	}

	n, err := w.memberships.ResolvePending(ctx, group.ID, targetUserID, toStatus)
	if err != nil {
		return Result{}, err
	}
	if n == 0 {
		// No pending request; nothing to do.
		return success("The join request has already been handled.", nil), nil
	}

	w.log.Info("join request resolved",
		zap.String("group", group.Slug),
		zap.String("target", targetUserID.Hex()),
		zap.String("by", actingUserID.Hex()),
		zap.String("status", toStatus))
	return success(msg, nil), nil
}

// ChangeRole sets the membership role of targetUserID in group.
// actingUserID must currently administer the group, and the group owner's
// own membership can never be re-roled, by anyone.
func (w *Workflow) ChangeRole(ctx context.Context, group models.Group, targetUserID primitive.ObjectID, newRole string, actingUserID primitive.ObjectID) (Result, error) {
	ok, err := w.isAdmin(ctx, group, actingUserID)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return denied(), nil
	}

	if targetUserID == group.OwnerID {
		return Result{
			Outcome: InvalidTransition,
			Message: "The group owner's role cannot be changed.",
		}, nil
	}
	if !models.ValidRole(newRole) {
		return Result{
			Outcome: InvalidTransition,
			Message: "That role does not exist.",
		}, nil
	}

	n, err := w.memberships.SetRole(ctx, group.ID, targetUserID, newRole)
	if err != nil {
		return Result{}, err
	}
	if n == 0 {
		return Result{Outcome: NotFound, Message: "This user is not a member of the group."}, nil
	}

	w.log.Info("membership role changed",
		zap.String("group", group.Slug),
		zap.String("target", targetUserID.Hex()),
		zap.String("role", newRole),
		zap.String("by", actingUserID.Hex()))
	return success("Role updated.", nil), nil
}

// RemoveUser deletes targetUserID's membership row from group.
// actingUserID must currently administer the group. The owner's membership
// cannot be removed; it exists for as long as the group does.
func (w *Workflow) RemoveUser(ctx context.Context, group models.Group, targetUserID, actingUserID primitive.ObjectID) (Result, error) {
	ok, err := w.isAdmin(ctx, group, actingUserID)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return denied(), nil
	}

	if targetUserID == group.OwnerID {
		return Result{
			Outcome: InvalidTransition,
			Message: "The group owner cannot be removed.",
		}, nil
	}

	n, err := w.memberships.Delete(ctx, group.ID, targetUserID)
	if err != nil {
		return Result{}, err
	}
	if n == 0 {
		return Result{Outcome: NotFound, Message: "This user is not a member of the group."}, nil
	}

	w.log.Info("membership removed",
		zap.String("group", group.Slug),
		zap.String("target", targetUserID.Hex()),
		zap.String("by", actingUserID.Hex()))
	return success("Member removed.", nil), nil
}
