// internal/app/features/groups/list.go
package groups

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/gatherhub/internal/app/features/errors"
	"github.com/dalemusser/gatherhub/internal/app/system/authz"
	"github.com/dalemusser/gatherhub/internal/app/system/timeouts"
	"github.com/dalemusser/gatherhub/internal/app/system/viewdata"
	"github.com/dalemusser/gatherhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const groupsListLimit = 200

type groupListItem struct {
	Slug         string
	Name         string
	About        string
	ThumbnailURL string
	AutoApproval bool

	// Membership is the signed-in user's status in this group:
	// "", "pending", "approved", or "rejected". Owner always "approved".
	// MembershipLabel is the badge text rendered for that status.
	Membership      string
	MembershipLabel string
	IsOwner         bool
}

type groupsListData struct {
	viewdata.BaseVM
	Groups []groupListItem
}

// ServeGroupsList renders the directory of all groups with the signed-in
// user's relationship to each.
func (h *Handler) ServeGroupsList(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	groups, err := h.Groups.List(ctx, groupsListLimit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing groups", err, "A database error occurred.", "/")
		return
	}

	memberships, err := h.Memberships.ListByUser(ctx, uid, "")
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing memberships", err, "A database error occurred.", "/")
		return
	}
	statusByGroup := make(map[primitive.ObjectID]string, len(memberships))
	for _, m := range memberships {
		statusByGroup[m.GroupID] = m.Status
	}

	items := h.buildGroupListItems(groups, statusByGroup, uid)

	templates.Render(w, r, "groups_list", groupsListData{
		BaseVM: viewdata.NewBaseVM(r, "Groups", "/"),
		Groups: items,
	})
}

// buildGroupListItems shapes groups into list entries carrying the viewer's
// relationship to each.
func (h *Handler) buildGroupListItems(groups []models.Group, statusByGroup map[primitive.ObjectID]string, viewerID primitive.ObjectID) []groupListItem {
	items := make([]groupListItem, 0, len(groups))
	for _, g := range groups {
		status := statusByGroup[g.ID]
		items = append(items, groupListItem{
			Slug:            g.Slug,
			Name:            g.Name,
			About:           g.About,
			ThumbnailURL:    h.imageURL(g.ThumbnailPath),
			AutoApproval:    g.AutoApproval,
			Membership:      status,
			MembershipLabel: membershipStatusLabel(status),
			IsOwner:         g.OwnerID == viewerID,
		})
	}
	return items
}

// imageURL resolves a stored image path to a servable URL. Empty paths and
// a nil storage provider yield "".
func (h *Handler) imageURL(path string) string {
	if path == "" || h.Storage == nil {
		return ""
	}
	return h.Storage.URL(path)
}

// membershipStatusLabel turns a membership status into the badge text shown
// on group cards.
func membershipStatusLabel(status string) string {
	switch status {
	case models.StatusApproved:
		return "Member"
	case models.StatusPending:
		return "Pending"
	case models.StatusRejected:
		return "Not a member"
	default:
		return ""
	}
}
