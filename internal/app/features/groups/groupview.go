// internal/app/features/groups/groupview.go
package groups

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/gatherhub/internal/app/features/errors"
	"github.com/dalemusser/gatherhub/internal/app/policy/grouppolicy"
	"github.com/dalemusser/gatherhub/internal/app/system/authz"
	"github.com/dalemusser/gatherhub/internal/app/system/timeouts"
	"github.com/dalemusser/gatherhub/internal/app/system/viewdata"
	"github.com/dalemusser/gatherhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const groupPostsLimit = 50

type commentViewItem struct {
	ID            string
	AuthorName    string
	Body          template.HTML // sanitized at write time
	CreatedAt     time.Time
	LikeCount     int64
	ViewerReacted bool
	CanDelete     bool
}

type postViewItem struct {
	ID            string
	AuthorName    string
	Body          template.HTML // sanitized at write time
	CreatedAt     time.Time
	LikeCount     int64
	ViewerReacted bool
	CanEdit       bool
	CanDelete     bool
	Comments      []commentViewItem
}

type groupViewData struct {
	viewdata.BaseVM
	Slug         string
	Name         string
	About        template.HTML // sanitized at write time
	CoverURL     string
	AutoApproval bool
	MemberCount  int64

	// The signed-in user's relationship to the group.
	Membership string // "", pending, approved, rejected
	IsOwner    bool
	IsAdmin    bool

	// Posts are only populated for approved members.
	Posts        []postViewItem
	PendingCount int // admins only
}

// ServeGroupView renders a group's page. Anyone signed in can see the
// group's name and description; posts are reserved for approved members.
func (h *Handler) ServeGroupView(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
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

	memberCount, err := h.Memberships.CountApproved(ctx, group.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error counting members", err, "A database error occurred.", "/groups")
		return
	}

	data := groupViewData{
		BaseVM:       viewdata.NewBaseVM(r, group.Name, "/groups"),
		Slug:         group.Slug,
		Name:         group.Name,
		About:        template.HTML(group.About),
		CoverURL:     h.imageURL(group.CoverPath),
		AutoApproval: group.AutoApproval,
		MemberCount:  memberCount,
		IsOwner:      group.OwnerID == uid,
	}

	m, err := h.Memberships.Get(ctx, group.ID, uid)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		// not a member
	case err != nil:
		h.ErrLog.LogServerError(w, r, "database error loading membership", err, "A database error occurred.", "/groups")
		return
	default:
		data.Membership = m.Status
	}

	isAdmin, err := grouppolicy.IsGroupAdmin(ctx, h.DB, group, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error checking admin", err, "A database error occurred.", "/groups")
		return
	}
	data.IsAdmin = isAdmin

	// Posts are membership-gated: only approved members read the feed.
	if data.Membership == models.StatusApproved {
		posts, err := h.Posts.ListByGroup(ctx, group.ID, groupPostsLimit)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "database error loading posts", err, "A database error occurred.", "/groups")
			return
		}
		items, err := h.buildPostItems(ctx, posts, uid, isAdmin)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "database error loading post authors", err, "A database error occurred.", "/groups")
			return
		}
		data.Posts = items
	}

	if isAdmin {
		pending, err := h.Memberships.ListByGroup(ctx, group.ID, models.StatusPending)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "database error loading pending requests", err, "A database error occurred.", "/groups")
			return
		}
		data.PendingCount = len(pending)
	}

	templates.Render(w, r, "group_view", data)
}

// buildPostItems joins posts with their author names, reaction tallies, and
// comment threads.
func (h *Handler) buildPostItems(ctx context.Context, posts []models.Post, viewerID primitive.ObjectID, viewerIsAdmin bool) ([]postViewItem, error) {
	postIDs := make([]primitive.ObjectID, 0, len(posts))
	authorIDs := make([]primitive.ObjectID, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		authorIDs = append(authorIDs, p.UserID)
	}

	commentsByPost, err := h.Comments.ListByPosts(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	var commentIDs []primitive.ObjectID
	for _, cs := range commentsByPost {
		for _, c := range cs {
			commentIDs = append(commentIDs, c.ID)
			authorIDs = append(authorIDs, c.UserID)
		}
	}

	postLikes, err := h.Reactions.CountBySubjects(ctx, models.ReactionSubjectPost, postIDs)
	if err != nil {
		return nil, err
	}
	postReacted, err := h.Reactions.UserReactedSubjects(ctx, models.ReactionSubjectPost, postIDs, viewerID)
	if err != nil {
		return nil, err
	}
	commentLikes, err := h.Reactions.CountBySubjects(ctx, models.ReactionSubjectComment, commentIDs)
	if err != nil {
		return nil, err
	}
	commentReacted, err := h.Reactions.UserReactedSubjects(ctx, models.ReactionSubjectComment, commentIDs, viewerID)
	if err != nil {
		return nil, err
	}

	authors, err := h.Users.GetManyByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	authorName := func(id primitive.ObjectID) string {
		if a, ok := authors[id]; ok {
			return a.FullName
		}
		return "(removed account)"
	}

	items := make([]postViewItem, 0, len(posts))
	for _, p := range posts {
		comments := make([]commentViewItem, 0, len(commentsByPost[p.ID]))
		for _, c := range commentsByPost[p.ID] {
			comments = append(comments, commentViewItem{
				ID:            c.ID.Hex(),
				AuthorName:    authorName(c.UserID),
				Body:          template.HTML(c.Body),
				CreatedAt:     c.CreatedAt,
				LikeCount:     commentLikes[c.ID],
				ViewerReacted: commentReacted[c.ID],
				CanDelete:     c.UserID == viewerID,
			})
		}
		items = append(items, postViewItem{
			ID:            p.ID.Hex(),
			AuthorName:    authorName(p.UserID),
			Body:          template.HTML(p.Body),
			CreatedAt:     p.CreatedAt,
			LikeCount:     postLikes[p.ID],
			ViewerReacted: postReacted[p.ID],
			CanEdit:       p.UserID == viewerID,
			CanDelete:     p.UserID == viewerID || viewerIsAdmin,
			Comments:      comments,
		})
	}
	return items, nil
}
