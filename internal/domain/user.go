package domain

import "strings"

// UserPlan enumerates billing plans.
type UserPlan string

const (
	UserPlanFree  UserPlan = "free"
	UserPlanPro   UserPlan = "pro"
	UserPlanUltra UserPlan = "ultra"
)

// ParseUserPlan normalizes free-form plan names. Unknown values map to free.
func ParseUserPlan(s string) UserPlan {
	switch UserPlan(strings.ToLower(strings.TrimSpace(s))) {
	case UserPlanPro:
		return UserPlanPro
	case UserPlanUltra:
		return UserPlanUltra
	default:
		return UserPlanFree
	}
}

// Valid reports whether p is one of the known plans.
func (p UserPlan) Valid() bool {
	switch p {
	case UserPlanFree, UserPlanPro, UserPlanUltra:
		return true
	}
	return false
}

// Session is the already-loaded authentication state of the caller. A zero
// Session is anonymous.
type Session struct {
	UserID string
	Locale string
}

// Authenticated reports whether a user is signed in.
func (s Session) Authenticated() bool {
	return strings.TrimSpace(s.UserID) != ""
}

// Profile carries the membership data needed for export decisions.
type Profile struct {
	UserID string
	Tier   UserPlan
}
