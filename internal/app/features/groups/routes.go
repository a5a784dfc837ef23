// internal/app/features/groups/routes.go
package groups

import (
	"github.com/dalemusser/gatherhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Everything under /groups requires authentication
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		// LIST
		pr.Get("/", h.ServeGroupsList)

		// CREATE
		pr.Get("/new", h.ServeNewGroup)
		pr.Post("/", h.HandleCreateGroup)

		// VIEW
		pr.Get("/{slug}", h.ServeGroupView)

		// EDIT / DELETE
		pr.Get("/{slug}/edit", h.ServeEditGroup)
		pr.Post("/{slug}/edit", h.HandleEditGroup)
		pr.Post("/{slug}/images", h.HandleUploadImages)
		pr.Post("/{slug}/delete", h.HandleDeleteGroup)

		// JOIN / REQUEST TO JOIN
		pr.Post("/{slug}/join", h.HandleJoinGroup)
		pr.Post("/{slug}/request", h.HandleRequestJoin)

		// MEMBER MANAGEMENT (admins)
		pr.Get("/{slug}/members", h.ServeMembers)
		pr.Post("/{slug}/invite", h.HandleInviteUser)
		pr.Post("/{slug}/requests", h.HandleResolveRequest)
		pr.Post("/{slug}/members/role", h.HandleChangeRole)
		pr.Post("/{slug}/members/remove", h.HandleRemoveMember)

		// POSTS
		pr.Post("/{slug}/posts", h.HandleCreatePost)
		pr.Post("/{slug}/posts/{postID}/edit", h.HandleUpdatePost)
		pr.Post("/{slug}/posts/{postID}/delete", h.HandleDeletePost)
		pr.Post("/{slug}/posts/{postID}/react", h.HandleTogglePostReaction)

		// COMMENTS
		pr.Post("/{slug}/posts/{postID}/comments", h.HandleCreateComment)
		pr.Post("/{slug}/comments/{commentID}/delete", h.HandleDeleteComment)
		pr.Post("/{slug}/comments/{commentID}/react", h.HandleToggleCommentReaction)
	})

	return r
}

// InvitationRoutes returns the router for invitation token endpoints.
// These routes are public: the token in the URL is the credential, so the
// invited user does not have to be signed in to respond.
func InvitationRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/{token}", h.ServeInvitation)
	r.Post("/{token}/accept", h.HandleAcceptInvitation)
	r.Post("/{token}/decline", h.HandleDeclineInvitation)

	return r
}
