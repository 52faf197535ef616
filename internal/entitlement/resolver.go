// Package entitlement maps a session and membership tier to an export policy.
package entitlement

import (
	"context"

	"github.com/rs/zerolog"

	"imgexport/internal/domain"
)

var watermarkFree = map[domain.UserPlan]bool{
	domain.UserPlanFree:  false,
	domain.UserPlanPro:   false,
	domain.UserPlanUltra: true,
}

// Resolve derives the export policy. Only the ultra tier drops the watermark;
// any signed-in user skips compression and resizing.
func Resolve(session domain.Session, profile domain.Profile) domain.ExportPolicy {
	return domain.ExportPolicy{
		SkipWatermark:   watermarkFree[profile.Tier],
		SkipCompression: session.Authenticated(),
	}
}

// ProfileLoader fetches the membership profile of a user.
type ProfileLoader interface {
	LoadProfile(ctx context.Context, userID string) (domain.Profile, error)
}

// Provider loads profiles and resolves policies for sessions.
type Provider struct {
	profiles ProfileLoader
	logger   zerolog.Logger
}

// NewProvider builds a Provider. A nil loader treats every user as free.
func NewProvider(profiles ProfileLoader, logger zerolog.Logger) *Provider {
	return &Provider{profiles: profiles, logger: logger}
}

// Profile returns the profile for session. Lookup failures degrade to the
// free tier so an export is never blocked on the profile store.
func (p *Provider) Profile(ctx context.Context, session domain.Session) domain.Profile {
	profile := domain.Profile{UserID: session.UserID, Tier: domain.UserPlanFree}
	if !session.Authenticated() || p == nil || p.profiles == nil {
		return profile
	}
	loaded, err := p.profiles.LoadProfile(ctx, session.UserID)
	if err != nil {
		p.logger.Warn().Err(err).Str("user_id", session.UserID).Msg("entitlement: profile lookup failed, using free tier")
		return profile
	}
	loaded.UserID = session.UserID
	loaded.Tier = domain.ParseUserPlan(string(loaded.Tier))
	return loaded
}

// Policy loads the profile for session and resolves its export policy.
func (p *Provider) Policy(ctx context.Context, session domain.Session) domain.ExportPolicy {
	return Resolve(session, p.Profile(ctx, session))
}
