// internal/app/features/groups/invitation.go
package groups

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/gatherhub/internal/app/system/timeouts"
	"github.com/dalemusser/gatherhub/internal/app/system/viewdata"
	"github.com/dalemusser/gatherhub/internal/app/workflow/membership"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type invitationData struct {
	viewdata.BaseVM
	Token       string
	GroupName   string
	GroupSlug   string
	InviterName string

	// Invalid is set when the token does not resolve to a live invitation.
	Invalid bool
	Message string

	// Decided is set after accept/decline to show the outcome in place of
	// the action buttons.
	Decided bool
}

// ServeInvitation shows an invitation without consuming its token.
// The page is public: possession of the link is the credential.
func (h *Handler) ServeInvitation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	token := chi.URLParam(r, "token")

	res, err := h.Workflow.LookupInvitation(ctx, token)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading invitation", err, "A database error occurred.", "/")
		return
	}
	if res.Outcome != membership.Success {
		h.renderInvitation(w, r, invitationData{
			Invalid: true,
			Message: res.Message,
		})
		return
	}

	data := invitationData{Token: token}

	group, err := h.Groups.GetByID(ctx, res.Membership.GroupID)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		// The group vanished under a live invitation.
		h.renderInvitation(w, r, invitationData{Invalid: true, Message: "This group no longer exists."})
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "database error loading group for invitation", err, "A database error occurred.", "/")
		return
	}
	data.GroupName = group.Name
	data.GroupSlug = group.Slug

	if inviter, err := h.Users.GetByID(ctx, res.Membership.CreatedBy); err == nil {
		data.InviterName = inviter.FullName
	}

	h.renderInvitation(w, r, data)
}

// HandleAcceptInvitation consumes the token and admits the invited user.
func (h *Handler) HandleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	token := chi.URLParam(r, "token")

	res, err := h.Workflow.ApproveInvitation(ctx, token)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error accepting invitation", err, "A database error occurred.", "/")
		return
	}
	if res.Outcome != membership.Success {
		h.renderInvitation(w, r, invitationData{Invalid: true, Message: res.Message})
		return
	}

	h.Log.Info("invitation accepted",
		zap.String("group_id", res.Membership.GroupID.Hex()),
		zap.String("user_id", res.Membership.UserID.Hex()))

	slug := ""
	if group, err := h.Groups.GetByID(ctx, res.Membership.GroupID); err == nil {
		slug = group.Slug
	}
	if slug == "" {
		http.Redirect(w, r, "/groups", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/groups/"+slug, http.StatusSeeOther)
}

// HandleDeclineInvitation consumes the token and removes the invitation row.
// A declined user can be invited again later with a fresh token.
func (h *Handler) HandleDeclineInvitation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	token := chi.URLParam(r, "token")

	res, err := h.Workflow.RejectInvitation(ctx, token)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error declining invitation", err, "A database error occurred.", "/")
		return
	}
	if res.Outcome != membership.Success {
		h.renderInvitation(w, r, invitationData{Invalid: true, Message: res.Message})
		return
	}

	h.Log.Info("invitation declined",
		zap.String("group_id", res.Membership.GroupID.Hex()),
		zap.String("user_id", res.Membership.UserID.Hex()))

	h.renderInvitation(w, r, invitationData{
		Decided: true,
		Message: res.Message,
	})
}

func (h *Handler) renderInvitation(w http.ResponseWriter, r *http.Request, data invitationData) {
	data.BaseVM = viewdata.NewBaseVM(r, "Group Invitation", "/")
	templates.Render(w, r, "invitation", data)
}
