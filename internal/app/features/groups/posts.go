// internal/app/features/groups/posts.go
package groups

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/gatherhub/internal/app/features/errors"
	"github.com/dalemusser/gatherhub/internal/app/policy/grouppolicy"
	"github.com/dalemusser/gatherhub/internal/app/system/authz"
	"github.com/dalemusser/gatherhub/internal/app/system/timeouts"
	"github.com/dalemusser/gatherhub/internal/app/system/txn"
	"github.com/dalemusser/gatherhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const maxPostBodyLen = 10000

// loadGroupForMember resolves the {slug} route parameter and verifies the
// signed-in user is an approved member. Pending and rejected users are
// turned away the same as non-members. On failure it has already written
// the response and returns ok=false.
func (h *Handler) loadGroupForMember(w http.ResponseWriter, r *http.Request, ctx context.Context) (models.Group, primitive.ObjectID, bool) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return models.Group{}, primitive.NilObjectID, false
	}

	group, err := h.Groups.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderForbidden(w, r, "Group not found.", httpnav.ResolveBackURL(r, "/groups"))
		return models.Group{}, primitive.NilObjectID, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading group", err, "A database error occurred.", "/groups")
		return models.Group{}, primitive.NilObjectID, false
	}

	isMember, err := grouppolicy.IsApprovedMember(ctx, h.DB, group, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error checking membership", err, "A database error occurred.", "/groups/"+group.Slug)
		return models.Group{}, primitive.NilObjectID, false
	}
	if !isMember {
		uierrors.RenderForbidden(w, r, "Only members can participate in this group.", "/groups/"+group.Slug)
		return models.Group{}, primitive.NilObjectID, false
	}
	return group, uid, true
}

// HandleCreatePost publishes a post into a group's feed.
func (h *Handler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	group, uid, ok := h.loadGroupForMember(w, r, ctx)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/groups/"+group.Slug)
		return
	}

	body := strings.TrimSpace(r.FormValue("body"))
	if body == "" || len([]rune(body)) > maxPostBodyLen {
		// An empty or oversized post just lands back on the feed.
		http.Redirect(w, r, "/groups/"+group.Slug, http.StatusSeeOther)
		return
	}

	post, err := h.Posts.Create(ctx, models.Post{
		GroupID: group.ID,
		UserID:  uid,
		Body:    body,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error creating post", err, "Failed to publish post.", "/groups/"+group.Slug)
		return
	}

	h.Log.Info("post created",
		zap.String("post_id", post.ID.Hex()),
		zap.String("group_id", group.ID.Hex()),
		zap.String("user_id", uid.Hex()))

	http.Redirect(w, r, "/groups/"+group.Slug, http.StatusSeeOther)
}

// HandleUpdatePost rewrites a post's body. Only the author can edit; group
// admins can delete any post but never rewrite someone's words.
func (h *Handler) HandleUpdatePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	group, uid, ok := h.loadGroupForMember(w, r, ctx)
	if !ok {
		return
	}

	postID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "postID"))
	if err != nil {
		uierrors.RenderForbidden(w, r, "Bad post id.", "/groups/"+group.Slug)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/groups/"+group.Slug)
		return
	}

	body := strings.TrimSpace(r.FormValue("body"))
	if body == "" || len([]rune(body)) > maxPostBodyLen {
		http.Redirect(w, r, "/groups/"+group.Slug, http.StatusSeeOther)
		return
	}

	n, err := h.Posts.UpdateBody(ctx, postID, uid, body)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error updating post", err, "Failed to save changes.", "/groups/"+group.Slug)
		return
	}
	if n == 0 {
		uierrors.RenderForbidden(w, r, "Post not found.", "/groups/"+group.Slug)
		return
	}

	h.Log.Info("post updated",
		zap.String("post_id", postID.Hex()),
		zap.String("group_id", group.ID.Hex()),
		zap.String("user_id", uid.Hex()))

	http.Redirect(w, r, "/groups/"+group.Slug, http.StatusSeeOther)
}

// HandleDeletePost removes a post along with its comments and reactions.
// Authors delete their own posts; group admins can delete any post in their
// group.
func (h *Handler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	group, err := h.Groups.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderForbidden(w, r, "Group not found.", httpnav.ResolveBackURL(r, "/groups"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading group", err, "A database error occurred.", "/groups")
		return
	}

	postID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "postID"))
	if err != nil {
		uierrors.RenderForbidden(w, r, "Bad post id.", "/groups/"+group.Slug)
		return
	}

	isAdmin, err := grouppolicy.IsGroupAdmin(ctx, h.DB, group, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error checking admin", err, "A database error occurred.", "/groups/"+group.Slug)
		return
	}

	var n int64
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		var err error
		if isAdmin {
			n, err = h.Posts.DeleteByID(ctx, postID)
		} else {
			n, err = h.Posts.Delete(ctx, postID, uid)
		}
		if err != nil || n == 0 {
			return err
		}

		commentIDs, err := h.Comments.IDsByPost(ctx, postID)
		if err != nil {
			return err
		}
		if _, err := h.Comments.DeleteAllForPost(ctx, postID); err != nil {
			return err
		}
		if _, err := h.Reactions.DeleteForSubjects(ctx, models.ReactionSubjectPost, []primitive.ObjectID{postID}); err != nil {
			return err
		}
		_, err = h.Reactions.DeleteForSubjects(ctx, models.ReactionSubjectComment, commentIDs)
		return err
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error deleting post", err, "Failed to delete post.", "/groups/"+group.Slug)
		return
	}
	if n == 0 {
		uierrors.RenderForbidden(w, r, "Post not found.", "/groups/"+group.Slug)
		return
	}

	h.Log.Info("post deleted",
		zap.String("post_id", postID.Hex()),
		zap.String("group_id", group.ID.Hex()),
		zap.String("by", uid.Hex()),
		zap.Bool("as_admin", isAdmin))

	http.Redirect(w, r, "/groups/"+group.Slug, http.StatusSeeOther)
}
