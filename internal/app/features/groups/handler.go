// internal/app/features/groups/handler.go
package groups

import (
	uierrors "github.com/dalemusser/gatherhub/internal/app/features/errors"
	commentstore "github.com/dalemusser/gatherhub/internal/app/store/comments"
	groupstore "github.com/dalemusser/gatherhub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/gatherhub/internal/app/store/memberships"
	poststore "github.com/dalemusser/gatherhub/internal/app/store/posts"
	reactionstore "github.com/dalemusser/gatherhub/internal/app/store/reactions"
	userstore "github.com/dalemusser/gatherhub/internal/app/store/users"
	"github.com/dalemusser/gatherhub/internal/app/workflow/membership"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the groups feature.
// The various page and action handlers (list, view, create, membership
// management, posts) all share the same core dependencies.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	Workflow *membership.Workflow
	Storage  storage.Store

	Groups      *groupstore.Store
	Memberships *membershipstore.Store
	Users       *userstore.Store
	Posts       *poststore.Store
	Comments    *commentstore.Store
	Reactions   *reactionstore.Store
}

// NewHandler constructs a groups Handler. It is typically called from the
// bootstrap BuildHandler function, where the application's DB, storage,
// and logger are already initialized.
func NewHandler(
	db *mongo.Database,
	store storage.Store,
	errLog *uierrors.ErrorLogger,
	wf *membership.Workflow,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:          db,
		Log:         logger,
		ErrLog:      errLog,
		Workflow:    wf,
		Storage:     store,
		Groups:      groupstore.New(db),
		Memberships: membershipstore.New(db),
		Users:       userstore.New(db),
		Posts:       poststore.New(db),
		Comments:    commentstore.New(db),
		Reactions:   reactionstore.New(db),
	}
}
