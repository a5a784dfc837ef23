package inputval

import (
	"net/mail"
	"strings"

	"github.com/dalemusser/gatherhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// allowedAuthMethods are the sign-in mechanisms accounts may use.
var allowedAuthMethods = []string{"internal", "google"}

// IsValidAuthMethod reports whether method names a supported sign-in
// mechanism. Comparison is case-insensitive and whitespace is ignored.
func IsValidAuthMethod(method string) bool {
	method = strings.ToLower(strings.TrimSpace(method))
	for _, m := range allowedAuthMethods {
		if method == m {
			return true
		}
	}
	return false
}

// AllowedAuthMethodsList returns the supported auth methods, for error
// messages and form hints.
func AllowedAuthMethodsList() []string {
	out := make([]string, len(allowedAuthMethods))
	copy(out, allowedAuthMethods)
	return out
}

// IsValidEmail reports whether s is a plain RFC 5322 address.
// Display-name forms like "Name <user@example.com>" are rejected; the
// value stored must be the bare address.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t<>") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s
}

// IsValidRole reports whether role is a membership role we store.
func IsValidRole(role string) bool {
	return models.ValidRole(strings.ToLower(strings.TrimSpace(role)))
}

// IsValidMembershipStatus reports whether status is one of the membership
// lifecycle states.
func IsValidMembershipStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case models.StatusPending, models.StatusApproved, models.StatusRejected:
		return true
	}
	return false
}

// IsValidObjectID reports whether s is a well-formed Mongo ObjectID hex
// string.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}
