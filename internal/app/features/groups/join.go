// internal/app/features/groups/join.go
package groups

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/gatherhub/internal/app/features/errors"
	"github.com/dalemusser/gatherhub/internal/app/system/authz"
	"github.com/dalemusser/gatherhub/internal/app/system/timeouts"
	"github.com/dalemusser/gatherhub/internal/app/workflow/membership"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleJoinGroup joins the signed-in user to a group. Auto-approval groups
// grant membership immediately; otherwise a pending request is created.
func (h *Handler) HandleJoinGroup(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	slug := chi.URLParam(r, "slug")
	group, err := h.Groups.GetBySlug(ctx, slug)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderForbidden(w, r, "Group not found.", httpnav.ResolveBackURL(r, "/groups"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading group", err, "A database error occurred.", "/groups")
		return
	}

	res, err := h.Workflow.Join(ctx, group, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "join group failed", err, "A database error occurred.", "/groups/"+slug)
		return
	}

	h.Log.Info("join handled",
		zap.String("group_id", group.ID.Hex()),
		zap.String("user_id", uid.Hex()),
		zap.String("outcome", string(res.Outcome)))

	// Success and already-joined both land back on the group page, which
	// reflects the membership state.
	http.Redirect(w, r, "/groups/"+slug, http.StatusSeeOther)
}

// HandleRequestJoin files an explicit join request for approval-required
// groups. The request stays pending until an admin resolves it.
func (h *Handler) HandleRequestJoin(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	slug := chi.URLParam(r, "slug")

	res, err := h.Workflow.RequestJoin(ctx, slug, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "request join failed", err, "A database error occurred.", "/groups")
		return
	}
	if res.Outcome == membership.NotFound {
		uierrors.RenderForbidden(w, r, res.Message, httpnav.ResolveBackURL(r, "/groups"))
		return
	}

	h.Log.Info("join request handled",
		zap.String("slug", slug),
		zap.String("user_id", uid.Hex()),
		zap.String("outcome", string(res.Outcome)))

	http.Redirect(w, r, "/groups/"+slug, http.StatusSeeOther)
}
