// internal/app/features/groups/reactions.go
package groups

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/gatherhub/internal/app/features/errors"
	"github.com/dalemusser/gatherhub/internal/app/system/timeouts"
	"github.com/dalemusser/gatherhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleTogglePostReaction likes or unlikes a post, depending on whether the
// member already reacted.
func (h *Handler) HandleTogglePostReaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	group, uid, ok := h.loadGroupForMember(w, r, ctx)
	if !ok {
		return
	}
	post, ok := h.loadGroupPost(w, r, ctx, group)
	if !ok {
		return
	}

	reacted, err := h.Reactions.Toggle(ctx, models.Reaction{
		SubjectType: models.ReactionSubjectPost,
		SubjectID:   post.ID,
		GroupID:     group.ID,
		UserID:      uid,
		Kind:        models.ReactionLike,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error toggling post reaction", err, "Failed to save reaction.", "/groups/"+group.Slug)
		return
	}

	h.Log.Info("post reaction toggled",
		zap.String("post_id", post.ID.Hex()),
		zap.String("group_id", group.ID.Hex()),
		zap.String("user_id", uid.Hex()),
		zap.Bool("reacted", reacted))

	http.Redirect(w, r, "/groups/"+group.Slug, http.StatusSeeOther)
}

// HandleToggleCommentReaction likes or unlikes a comment.
func (h *Handler) HandleToggleCommentReaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	group, uid, ok := h.loadGroupForMember(w, r, ctx)
	if !ok {
		return
	}

	commentID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "commentID"))
	if err != nil {
		uierrors.RenderForbidden(w, r, "Bad comment id.", "/groups/"+group.Slug)
		return
	}
	comment, err := h.Comments.Get(ctx, commentID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderForbidden(w, r, "Comment not found.", "/groups/"+group.Slug)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading comment", err, "A database error occurred.", "/groups/"+group.Slug)
		return
	}
	if comment.GroupID != group.ID {
		uierrors.RenderForbidden(w, r, "Comment not found.", "/groups/"+group.Slug)
		return
	}

	reacted, err := h.Reactions.Toggle(ctx, models.Reaction{
		SubjectType: models.ReactionSubjectComment,
		SubjectID:   comment.ID,
		GroupID:     group.ID,
		UserID:      uid,
		Kind:        models.ReactionLike,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error toggling comment reaction", err, "Failed to save reaction.", "/groups/"+group.Slug)
		return
	}

	h.Log.Info("comment reaction toggled",
		zap.String("comment_id", comment.ID.Hex()),
		zap.String("group_id", group.ID.Hex()),
		zap.String("user_id", uid.Hex()),
		zap.Bool("reacted", reacted))

	http.Redirect(w, r, "/groups/"+group.Slug, http.StatusSeeOther)
}
