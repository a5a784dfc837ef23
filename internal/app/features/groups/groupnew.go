// internal/app/features/groups/groupnew.go
package groups

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/gatherhub/internal/app/features/errors"
	groupstore "github.com/dalemusser/gatherhub/internal/app/store/groups"
	"github.com/dalemusser/gatherhub/internal/app/system/authz"
	"github.com/dalemusser/gatherhub/internal/app/system/inputval"
	"github.com/dalemusser/gatherhub/internal/app/system/normalize"
	"github.com/dalemusser/gatherhub/internal/app/system/timeouts"
	"github.com/dalemusser/gatherhub/internal/app/system/txn"
	"github.com/dalemusser/gatherhub/internal/app/system/viewdata"
	"github.com/dalemusser/gatherhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// createGroupInput defines validation rules for creating a group.
type createGroupInput struct {
	Name string `validate:"required,max=200" label:"Name"`
}

type newGroupData struct {
	viewdata.BaseVM
	Error        string
	Name         string
	About        string
	AutoApproval bool
}

// ServeNewGroup renders the Create Group page.
func (h *Handler) ServeNewGroup(w http.ResponseWriter, r *http.Request) {
	if !authz.IsSignedIn(r) {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	templates.Render(w, r, "group_new", newGroupData{
		BaseVM: viewdata.NewBaseVM(r, "Create Group", "/groups"),
	})
}

// HandleCreateGroup processes the Create Group form submission. The creator
// becomes the group's owner and receives an approved admin membership in the
// same transaction as the group insert.
func (h *Handler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/groups")
		return
	}

	name := normalize.Name(r.FormValue("name"))
	about := r.FormValue("about")
	autoApproval := r.FormValue("auto_approval") == "on"

	input := createGroupInput{Name: name}
	if result := inputval.Validate(input); result.HasErrors() {
		h.reRenderNewWithError(w, r, name, about, autoApproval, result.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var created models.Group
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		g, err := h.Groups.Create(ctx, models.Group{
			Name:         name,
			About:        about,
			AutoApproval: autoApproval,
			OwnerID:      uid,
		})
		if err != nil {
			return err
		}
		created = g

		// The owner's membership row makes admin checks uniform: every
		// admin, owner included, holds an approved admin membership.
		_, err = h.Memberships.Create(ctx, models.GroupMembership{
			GroupID:   g.ID,
			UserID:    uid,
			Role:      models.RoleAdmin,
			Status:    models.StatusApproved,
			CreatedBy: uid,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, groupstore.ErrDuplicateGroupSlug) {
			h.reRenderNewWithError(w, r, name, about, autoApproval,
				"A group with a similar name already exists. Please pick another name.")
			return
		}
		h.ErrLog.LogServerError(w, r, "database error creating group", err, "Failed to create group.", "/groups")
		return
	}

	h.Log.Info("group created",
		zap.String("group_id", created.ID.Hex()),
		zap.String("slug", created.Slug),
		zap.String("owner_id", uid.Hex()))

	http.Redirect(w, r, "/groups/"+created.Slug, http.StatusSeeOther)
}

// reRenderNewWithError re-renders the Create Group page with a validation
// error and previously posted values.
func (h *Handler) reRenderNewWithError(w http.ResponseWriter, r *http.Request, name, about string, autoApproval bool, msg string) {
	templates.Render(w, r, "group_new", newGroupData{
		BaseVM:       viewdata.NewBaseVM(r, "Create Group", httpnav.ResolveBackURL(r, "/groups")),
		Error:        msg,
		Name:         name,
		About:        about,
		AutoApproval: autoApproval,
	})
}
