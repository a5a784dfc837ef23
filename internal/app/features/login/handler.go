// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/gatherhub/internal/app/features/errors"
	userstore "github.com/dalemusser/gatherhub/internal/app/store/users"
	"github.com/dalemusser/gatherhub/internal/app/system/auth"
	"github.com/dalemusser/gatherhub/internal/app/system/inputval"
	"github.com/dalemusser/gatherhub/internal/app/system/normalize"
	"github.com/dalemusser/gatherhub/internal/app/system/timeouts"
	"github.com/dalemusser/gatherhub/internal/app/system/viewdata"
	"github.com/dalemusser/gatherhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	DB            *mongo.Database
	Log           *zap.Logger
	SessionMgr    *auth.SessionManager
	ErrLog        *uierrors.ErrorLogger
	Users         *userstore.Store
	GoogleEnabled bool // True if Google OAuth is configured
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	googleEnabled bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:            db,
		Log:           logger,
		SessionMgr:    sessionMgr,
		ErrLog:        errLog,
		Users:         userstore.New(db),
		GoogleEnabled: googleEnabled,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Error         string
	Email         string
	ReturnURL     string
	GoogleEnabled bool
}

type registerFormData struct {
	viewdata.BaseVM
	Error     string
	FullName  string
	Email     string
	ReturnURL string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	ret := query.Get(r, "return")

	templates.Render(w, r, "login", loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Sign In", "/"),
		Error:         errorMessageFor(query.Get(r, "error")),
		ReturnURL:     ret,
		GoogleEnabled: h.GoogleEnabled,
	})
}

// errorMessageFor maps ?error= codes (set by the OAuth callback) to
// user-facing text.
func errorMessageFor(code string) string {
	switch code {
	case "":
		return ""
	case "google_denied":
		return "Google sign-in was cancelled."
	case "google_not_configured":
		return "Google sign-in is not configured."
	case "invalid_state", "invalid_code", "token_exchange", "user_info":
		return "Google sign-in failed. Please try again."
	case "account_disabled":
		return "Your account is currently disabled."
	default:
		return "Sign-in failed. Please try again."
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	ret := strings.TrimSpace(r.FormValue("return"))

	if email == "" || password == "" {
		h.renderFormWithError(w, r, "Please enter your email and password.", email, ret)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		h.renderFormWithError(w, r, "No account found for that email.", email, ret)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB find user", err, "A server error occurred.", "/login")
		return
	}

	if normalize.Status(u.Status) == models.UserDisabled {
		h.renderFormWithError(w, r, "Your account is currently disabled.", email, ret)
		return
	}

	// Accounts created through Google OAuth have no password; send them
	// through the OAuth flow instead.
	if u.AuthMethod == "google" {
		if h.GoogleEnabled {
			redirectURL := "/auth/google"
			if ret != "" {
				redirectURL += "?return=" + ret
			}
			http.Redirect(w, r, redirectURL, http.StatusSeeOther)
			return
		}
		h.renderFormWithError(w, r, "This account uses Google sign-in, which is not configured.", email, ret)
		return
	}

	if u.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		h.Log.Info("login failed: wrong password", zap.String("email", email))
		h.renderFormWithError(w, r, "Incorrect email or password.", email, ret)
		return
	}

	h.signInAndRedirect(w, r, u, ret)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login/register                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "register", registerFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Create Account", "/login"),
		ReturnURL: query.Get(r, "return"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login/register                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

type registerForm struct {
	FullName string `validate:"required,max=100" label:"Name"`
	Email    string `validate:"required,email" label:"Email"`
	Password string `validate:"required,min=8,max=72" label:"Password"`
}

func (h *Handler) HandleRegisterPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login/register")
		return
	}

	form := registerForm{
		FullName: strings.TrimSpace(r.FormValue("full_name")),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
	ret := strings.TrimSpace(r.FormValue("return"))

	if res := inputval.Validate(form); res.HasErrors() {
		h.renderRegisterWithError(w, r, res.First(), form.FullName, form.Email, ret)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password", err, "A server error occurred.", "/login/register")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		FullName:     form.FullName,
		Email:        form.Email,
		PasswordHash: string(hash),
		AuthMethod:   "internal",
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		h.renderRegisterWithError(w, r, "An account with that email already exists.", form.FullName, form.Email, ret)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB create user", err, "A server error occurred.", "/login/register")
		return
	}

	h.Log.Info("account created",
		zap.String("user_id", u.ID.Hex()),
		zap.String("email", u.Email))

	h.signInAndRedirect(w, r, &u, ret)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) signInAndRedirect(w http.ResponseWriter, r *http.Request, u *models.User, returnURL string) {
	err := h.SessionMgr.SignIn(w, r, &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
	})
	if err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("email", u.Email))
		h.renderFormWithError(w, r, "Unable to create session. Please try again.", u.Email, returnURL)
		return
	}

	dest := urlutil.SafeReturn(returnURL, "", "/groups")
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, email, returnURL string) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Sign In", "/"),
		Error:         msg,
		Email:         email,
		ReturnURL:     returnURL,
		GoogleEnabled: h.GoogleEnabled,
	})
}

func (h *Handler) renderRegisterWithError(w http.ResponseWriter, r *http.Request, msg, fullName, email, returnURL string) {
	templates.Render(w, r, "register", registerFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Create Account", "/login"),
		Error:     msg,
		FullName:  fullName,
		Email:     email,
		ReturnURL: returnURL,
	})
}
