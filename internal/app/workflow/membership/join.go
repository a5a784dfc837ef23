package membership

import (
	"context"
	"errors"

	membershipstore "github.com/dalemusser/gatherhub/internal/app/store/memberships"
	"github.com/dalemusser/gatherhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Join creates a membership for userID in group. Groups with auto-approval
// admit the user immediately; otherwise the row is created pending and an
// admin must approve it.
//
// The unique (user_id, group_id) index resolves races: if the user already
// has a row in any status, the insert loses and the outcome is AlreadyExists
// with the original row unchanged.
func (w *Workflow) Join(ctx context.Context, group models.Group, userID primitive.ObjectID) (Result, error) {
	status := models.StatusPending
	msg := "Your request to join has been sent."
	if group.AutoApproval {
		status = models.StatusApproved
		msg = "Welcome to the group!"
	}

	m, err := w.memberships.Create(ctx, models.GroupMembership{
		GroupID:   group.ID,
		UserID:    userID,
		Role:      models.RoleUser,
		Status:    status,
		CreatedBy: userID,
	})
	if err != nil {
		if errors.Is(err, membershipstore.ErrDuplicateMembership) {
			return Result{
				Outcome: AlreadyExists,
				Message: "You have already joined or requested to join this group.",
			}, nil
		}
		return Result{}, err
	}

	w.log.Info("group join",
		zap.String("group", group.Slug),
		zap.String("user", userID.Hex()),
		zap.String("status", status))
	return success(msg, &m), nil
}

// RequestJoin looks up a group by slug and files a pending join request for
// userID. A second request before the first is resolved fails with
// AlreadyExists and leaves the original row unchanged, as does any other
// existing membership.
func (w *Workflow) RequestJoin(ctx context.Context, groupSlug string, userID primitive.ObjectID) (Result, error) {
	group, err := w.groups.GetBySlug(ctx, groupSlug)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Result{Outcome: NotFound, Message: "Group not found."}, nil
		}
		return Result{}, err
	}

	m, err := w.memberships.Create(ctx, models.GroupMembership{
		GroupID:   group.ID,
		UserID:    userID,
		Role:      models.RoleUser,
		Status:    models.StatusPending,
		CreatedBy: userID,
	})
	if err != nil {
		if errors.Is(err, membershipstore.ErrDuplicateMembership) {
			return Result{
				Outcome: AlreadyExists,
				Message: "You have already joined or requested to join this group.",
			}, nil
		}
		return Result{}, err
	}

	w.log.Info("group join requested",
		zap.String("group", group.Slug),
		zap.String("user", userID.Hex()))
	return success("Your request to join has been sent.", &m), nil
}
