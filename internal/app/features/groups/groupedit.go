// internal/app/features/groups/groupedit.go
package groups

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/gatherhub/internal/app/features/errors"
	"github.com/dalemusser/gatherhub/internal/app/policy/grouppolicy"
	"github.com/dalemusser/gatherhub/internal/app/system/authz"
	"github.com/dalemusser/gatherhub/internal/app/system/inputval"
	"github.com/dalemusser/gatherhub/internal/app/system/normalize"
	"github.com/dalemusser/gatherhub/internal/app/system/timeouts"
	"github.com/dalemusser/gatherhub/internal/app/system/txn"
	"github.com/dalemusser/gatherhub/internal/app/system/viewdata"
	"github.com/dalemusser/gatherhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type editGroupData struct {
	viewdata.BaseVM
	Error        string
	Slug         string
	Name         string
	About        string
	AutoApproval bool
	CoverURL     string
	IsOwner      bool
}

// loadGroupForAdmin resolves the {slug} route parameter and verifies the
// signed-in user administers the group. On failure it has already written
// the response and returns ok=false.
func (h *Handler) loadGroupForAdmin(w http.ResponseWriter, r *http.Request, ctx context.Context) (models.Group, bool) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return models.Group{}, false
	}

	group, err := h.Groups.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderForbidden(w, r, "Group not found.", httpnav.ResolveBackURL(r, "/groups"))
		return models.Group{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading group", err, "A database error occurred.", "/groups")
		return models.Group{}, false
	}

	isAdmin, err := grouppolicy.IsGroupAdmin(ctx, h.DB, group, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error checking admin", err, "A database error occurred.", "/groups")
		return models.Group{}, false
	}
	if !isAdmin {
		uierrors.RenderForbidden(w, r, "You are not allowed to manage this group.", "/groups/"+group.Slug)
		return models.Group{}, false
	}
	return group, true
}

// ServeEditGroup renders the group settings page for admins.
func (h *Handler) ServeEditGroup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	group, ok := h.loadGroupForAdmin(w, r, ctx)
	if !ok {
		return
	}
	_, uid, _ := authz.UserCtx(r)

	templates.Render(w, r, "group_edit", editGroupData{
		BaseVM:       viewdata.NewBaseVM(r, "Group Settings", "/groups/"+group.Slug),
		Slug:         group.Slug,
		Name:         group.Name,
		About:        group.About,
		AutoApproval: group.AutoApproval,
		CoverURL:     h.imageURL(group.CoverPath),
		IsOwner:      group.OwnerID == uid,
	})
}

// HandleEditGroup updates a group's name, description, and join policy.
// The slug is fixed at creation; renaming does not move the group's URL.
func (h *Handler) HandleEditGroup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	group, ok := h.loadGroupForAdmin(w, r, ctx)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/groups/"+group.Slug+"/edit")
		return
	}

	name := normalize.Name(r.FormValue("name"))
	about := r.FormValue("about")
	autoApproval := r.FormValue("auto_approval") == "on"

	input := createGroupInput{Name: name}
	if result := inputval.Validate(input); result.HasErrors() {
		_, uid, _ := authz.UserCtx(r)
		templates.Render(w, r, "group_edit", editGroupData{
			BaseVM:       viewdata.NewBaseVM(r, "Group Settings", "/groups/"+group.Slug),
			Error:        result.First(),
			Slug:         group.Slug,
			Name:         name,
			About:        about,
			AutoApproval: autoApproval,
			CoverURL:     h.imageURL(group.CoverPath),
			IsOwner:      group.OwnerID == uid,
		})
		return
	}

	if err := h.Groups.UpdateInfo(ctx, group.ID, name, about, autoApproval); err != nil {
		h.ErrLog.LogServerError(w, r, "database error updating group", err, "Failed to save changes.", "/groups/"+group.Slug+"/edit")
		return
	}

	http.Redirect(w, r, "/groups/"+group.Slug, http.StatusSeeOther)
}

// HandleDeleteGroup removes a group along with its memberships, posts,
// comments, and reactions.
// Only the owner can delete; deleting is not an admin power.
func (h *Handler) HandleDeleteGroup(w http.ResponseWriter, r *http.Request) {
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
	if group.OwnerID != uid {
		uierrors.RenderForbidden(w, r, "Only the group owner can delete the group.", "/groups/"+group.Slug)
		return
	}

	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if _, err := h.Reactions.DeleteAllForGroup(ctx, group.ID); err != nil {
			return err
		}
		if _, err := h.Comments.DeleteAllForGroup(ctx, group.ID); err != nil {
			return err
		}
		if _, err := h.Posts.DeleteAllForGroup(ctx, group.ID); err != nil {
			return err
		}
		if _, err := h.Memberships.DeleteAllForGroup(ctx, group.ID); err != nil {
			return err
		}
		_, err := h.Groups.Delete(ctx, group.ID)
		return err
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error deleting group", err, "Failed to delete group.", "/groups/"+group.Slug)
		return
	}

	// Stored images are cleaned up best effort after the delete commits.
	for _, path := range []string{group.CoverPath, group.ThumbnailPath} {
		if path == "" || h.Storage == nil {
			continue
		}
		if err := h.Storage.Delete(ctx, path); err != nil {
			h.Log.Warn("failed to delete group image",
				zap.Error(err),
				zap.String("path", path))
		}
	}

	h.Log.Info("group deleted",
		zap.String("group_id", group.ID.Hex()),
		zap.String("slug", group.Slug),
		zap.String("owner_id", uid.Hex()))

	http.Redirect(w, r, "/groups", http.StatusSeeOther)
}
