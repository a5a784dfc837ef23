// internal/app/features/groups/members.go
package groups

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/gatherhub/internal/app/features/errors"
	"github.com/dalemusser/gatherhub/internal/app/system/authz"
	"github.com/dalemusser/gatherhub/internal/app/system/inputval"
	"github.com/dalemusser/gatherhub/internal/app/system/timeouts"
	"github.com/dalemusser/gatherhub/internal/app/system/viewdata"
	"github.com/dalemusser/gatherhub/internal/app/workflow/membership"
	"github.com/dalemusser/gatherhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type memberItem struct {
	UserID   string
	Name     string
	Email    string
	Role     string
	IsOwner  bool
	JoinedAt time.Time
}

type pendingItem struct {
	UserID      string
	Name        string
	Email       string
	RequestedAt time.Time
}

type membersData struct {
	viewdata.BaseVM
	Slug    string
	Name    string
	Error   string
	Info    string
	Members []memberItem
	Pending []pendingItem

	// InviteLink is set right after a successful invitation so the admin
	// can hand the single-use link to the invited user.
	InviteLink string
}

// ServeMembers renders the member management page for group admins: the
// approved roster, pending join requests, and the invite form.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	group, ok := h.loadGroupForAdmin(w, r, ctx)
	if !ok {
		return
	}

	data, err := h.buildMembersData(ctx, r, group)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading members", err, "A database error occurred.", "/groups/"+group.Slug)
		return
	}

	templates.Render(w, r, "group_members", data)
}

// buildMembersData assembles the members page view model.
func (h *Handler) buildMembersData(ctx context.Context, r *http.Request, group models.Group) (membersData, error) {
	data := membersData{
		BaseVM: viewdata.NewBaseVM(r, "Members of "+group.Name, "/groups/"+group.Slug),
		Slug:   group.Slug,
		Name:   group.Name,
	}

	approved, err := h.Memberships.ListByGroup(ctx, group.ID, models.StatusApproved)
	if err != nil {
		return data, err
	}
	pending, err := h.Memberships.ListByGroup(ctx, group.ID, models.StatusPending)
	if err != nil {
		return data, err
	}

	ids := make([]primitive.ObjectID, 0, len(approved)+len(pending))
	for _, m := range approved {
		ids = append(ids, m.UserID)
	}
	for _, m := range pending {
		ids = append(ids, m.UserID)
	}
	users, err := h.Users.GetManyByIDs(ctx, ids)
	if err != nil {
		return data, err
	}

	for _, m := range approved {
		u := users[m.UserID]
		data.Members = append(data.Members, memberItem{
			UserID:   m.UserID.Hex(),
			Name:     u.FullName,
			Email:    u.Email,
			Role:     m.Role,
			IsOwner:  m.UserID == group.OwnerID,
			JoinedAt: m.UpdatedAt,
		})
	}
	for _, m := range pending {
		// Invitations are pending rows too, but they are waiting on the
		// invited user, not on an admin.
		if m.Token != "" {
			continue
		}
		u := users[m.UserID]
		data.Pending = append(data.Pending, pendingItem{
			UserID:      m.UserID.Hex(),
			Name:        u.FullName,
			Email:       u.Email,
			RequestedAt: m.CreatedAt,
		})
	}

	return data, nil
}

// renderMembersWith re-renders the members page with a flash message after
// a management action that stays on the page.
func (h *Handler) renderMembersWith(w http.ResponseWriter, r *http.Request, ctx context.Context, group models.Group, errMsg, info, inviteLink string) {
	data, err := h.buildMembersData(ctx, r, group)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading members", err, "A database error occurred.", "/groups/"+group.Slug)
		return
	}
	data.Error = errMsg
	data.Info = info
	data.InviteLink = inviteLink
	templates.Render(w, r, "group_members", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /groups/{slug}/requests                                                |
*─────────────────────────────────────────────────────────────────────────────*/

type resolveRequestInput struct {
	UserID string `validate:"required,objectid" label:"User"`
}

// HandleResolveRequest approves or rejects a pending join request.
func (h *Handler) HandleResolveRequest(w http.ResponseWriter, r *http.Request) {
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

	input := resolveRequestInput{UserID: r.FormValue("user_id")}
	if result := inputval.Validate(input); result.HasErrors() {
		h.renderMembersWith(w, r, ctx, group, result.First(), "", "")
		return
	}
	targetID, _ := primitive.ObjectIDFromHex(input.UserID)
	action := r.FormValue("action") // "approve" or "reject"

	res, err := h.Workflow.ApproveRequest(ctx, group, targetID, action, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve join request failed", err, "A database error occurred.", "/groups/"+group.Slug+"/members")
		return
	}

	h.Log.Info("join request resolved",
		zap.String("group_id", group.ID.Hex()),
		zap.String("target_user_id", targetID.Hex()),
		zap.String("action", action),
		zap.String("outcome", string(res.Outcome)))

	switch res.Outcome {
	case membership.AuthorizationDenied:
		uierrors.RenderForbidden(w, r, res.Message, "/groups/"+group.Slug)
	default:
		h.renderMembersWith(w, r, ctx, group, "", res.Message, "")
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /groups/{slug}/members/role                                            |
*─────────────────────────────────────────────────────────────────────────────*/

type changeRoleInput struct {
	UserID string `validate:"required,objectid" label:"User"`
	Role   string `validate:"required,role" label:"Role"`
}

// HandleChangeRole promotes or demotes a member between admin and user.
func (h *Handler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
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

	input := changeRoleInput{
		UserID: r.FormValue("user_id"),
		Role:   r.FormValue("role"),
	}
	if result := inputval.Validate(input); result.HasErrors() {
		h.renderMembersWith(w, r, ctx, group, result.First(), "", "")
		return
	}
	targetID, _ := primitive.ObjectIDFromHex(input.UserID)

	res, err := h.Workflow.ChangeRole(ctx, group, targetID, input.Role, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "change role failed", err, "A database error occurred.", "/groups/"+group.Slug+"/members")
		return
	}

	h.Log.Info("role change handled",
		zap.String("group_id", group.ID.Hex()),
		zap.String("target_user_id", targetID.Hex()),
		zap.String("role", input.Role),
		zap.String("outcome", string(res.Outcome)))

	switch res.Outcome {
	case membership.AuthorizationDenied:
		uierrors.RenderForbidden(w, r, res.Message, "/groups/"+group.Slug)
	case membership.Success:
		h.renderMembersWith(w, r, ctx, group, "", res.Message, "")
	default:
		h.renderMembersWith(w, r, ctx, group, res.Message, "", "")
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /groups/{slug}/members/remove                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleRemoveMember removes a user's membership row entirely. The removed
// user can join or be invited again later.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
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

	input := resolveRequestInput{UserID: r.FormValue("user_id")}
	if result := inputval.Validate(input); result.HasErrors() {
		h.renderMembersWith(w, r, ctx, group, result.First(), "", "")
		return
	}
	targetID, _ := primitive.ObjectIDFromHex(input.UserID)

	res, err := h.Workflow.RemoveUser(ctx, group, targetID, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "remove member failed", err, "A database error occurred.", "/groups/"+group.Slug+"/members")
		return
	}

	h.Log.Info("member removal handled",
		zap.String("group_id", group.ID.Hex()),
		zap.String("target_user_id", targetID.Hex()),
		zap.String("outcome", string(res.Outcome)))

	switch res.Outcome {
	case membership.AuthorizationDenied:
		uierrors.RenderForbidden(w, r, res.Message, "/groups/"+group.Slug)
	case membership.Success:
		h.renderMembersWith(w, r, ctx, group, "", res.Message, "")
	default:
		h.renderMembersWith(w, r, ctx, group, res.Message, "", "")
	}
}
