// internal/app/features/groups/comments.go
package groups

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/gatherhub/internal/app/features/errors"
	"github.com/dalemusser/gatherhub/internal/app/system/timeouts"
	"github.com/dalemusser/gatherhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const maxCommentBodyLen = 2500

// loadGroupPost parses the {postID} route parameter and confirms the post
// belongs to the group. On failure it has already written the response.
func (h *Handler) loadGroupPost(w http.ResponseWriter, r *http.Request, ctx context.Context, group models.Group) (*models.Post, bool) {
	postID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "postID"))
	if err != nil {
		uierrors.RenderForbidden(w, r, "Bad post id.", "/groups/"+group.Slug)
		return nil, false
	}
	post, err := h.Posts.Get(ctx, postID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderForbidden(w, r, "Post not found.", "/groups/"+group.Slug)
		return nil, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading post", err, "A database error occurred.", "/groups/"+group.Slug)
		return nil, false
	}
	if post.GroupID != group.ID {
		uierrors.RenderForbidden(w, r, "Post not found.", "/groups/"+group.Slug)
		return nil, false
	}
	return post, true
}

// HandleCreateComment adds a comment under a post. Commenting needs the same
// approved membership as posting.
func (h *Handler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
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

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/groups/"+group.Slug)
		return
	}

	body := strings.TrimSpace(r.FormValue("body"))
	if body == "" || len([]rune(body)) > maxCommentBodyLen {
		http.Redirect(w, r, "/groups/"+group.Slug, http.StatusSeeOther)
		return
	}

	comment, err := h.Comments.Create(ctx, models.Comment{
		PostID:  post.ID,
		GroupID: group.ID,
		UserID:  uid,
		Body:    body,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error creating comment", err, "Failed to add comment.", "/groups/"+group.Slug)
		return
	}

	h.Log.Info("comment created",
		zap.String("comment_id", comment.ID.Hex()),
		zap.String("post_id", post.ID.Hex()),
		zap.String("group_id", group.ID.Hex()),
		zap.String("user_id", uid.Hex()))

	http.Redirect(w, r, "/groups/"+group.Slug, http.StatusSeeOther)
}

// HandleDeleteComment removes a comment and its reactions. Strictly the
// author's move: not even group admins delete other people's comments.
func (h *Handler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
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

	n, err := h.Comments.Delete(ctx, commentID, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error deleting comment", err, "Failed to delete comment.", "/groups/"+group.Slug)
		return
	}
	if n == 0 {
		uierrors.RenderForbidden(w, r, "Comment not found.", "/groups/"+group.Slug)
		return
	}

	// Orphaned reactions are cleaned up after the delete; a leftover row on
	// a gone comment is invisible anyway.
	if _, err := h.Reactions.DeleteForSubjects(ctx, models.ReactionSubjectComment, []primitive.ObjectID{commentID}); err != nil {
		h.Log.Warn("failed to delete comment reactions",
			zap.Error(err),
			zap.String("comment_id", commentID.Hex()))
	}

	h.Log.Info("comment deleted",
		zap.String("comment_id", commentID.Hex()),
		zap.String("group_id", group.ID.Hex()),
		zap.String("user_id", uid.Hex()))

	http.Redirect(w, r, "/groups/"+group.Slug, http.StatusSeeOther)
}
