// internal/app/features/groups/invite.go
package groups

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/gatherhub/internal/app/features/errors"
	"github.com/dalemusser/gatherhub/internal/app/system/authz"
	"github.com/dalemusser/gatherhub/internal/app/system/inputval"
	"github.com/dalemusser/gatherhub/internal/app/system/timeouts"
	"github.com/dalemusser/gatherhub/internal/app/workflow/membership"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type inviteInput struct {
	Email string `validate:"required,email" label:"Email"`
}

// HandleInviteUser invites a registered user to the group by email.
// On success the members page shows the single-use invitation link, which
// the admin passes to the invited user. The link expires; its lifetime is
// set by the workflow's invite TTL.
func (h *Handler) HandleInviteUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	group, ok := h.loadGroupForAdmin(w, r, ctx)
	if !ok {
		return
	}
	_, uid, _ := authz.UserCtx(r)

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/groups/"+group.Slug+"/members")
		return
	}

	input := inviteInput{Email: r.FormValue("email")}
	if result := inputval.Validate(input); result.HasErrors() {
		h.renderMembersWith(w, r, ctx, group, result.First(), "", "")
		return
	}

	target, err := h.Users.GetByEmail(ctx, input.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.renderMembersWith(w, r, ctx, group,
			"No account exists for that email. The person has to register first.", "", "")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading user for invite", err, "A database error occurred.", "/groups/"+group.Slug+"/members")
		return
	}

	res, err := h.Workflow.InviteUser(ctx, group, target.ID, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "invite user failed", err, "A database error occurred.", "/groups/"+group.Slug+"/members")
		return
	}

	h.Log.Info("invite handled",
		zap.String("group_id", group.ID.Hex()),
		zap.String("target_user_id", target.ID.Hex()),
		zap.String("by", uid.Hex()),
		zap.String("outcome", string(res.Outcome)))

	switch res.Outcome {
	case membership.Success:
		link := "/invitations/" + res.Membership.Token
		h.renderMembersWith(w, r, ctx, group, "", "Invitation created for "+target.FullName+".", link)
	case membership.AuthorizationDenied:
		uierrors.RenderForbidden(w, r, res.Message, "/groups/"+group.Slug)
	default:
		h.renderMembersWith(w, r, ctx, group, res.Message, "", "")
	}
}
