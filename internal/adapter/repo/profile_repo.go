// Package repo reads and updates membership profiles in PostgreSQL.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"imgexport/internal/domain"
	"imgexport/internal/infra"
	"imgexport/internal/sqlinline"
)

// ProfileRepo resolves a user's membership tier.
type ProfileRepo struct {
	sql infra.SQLExecutor
}

func NewProfileRepo(sql infra.SQLExecutor) *ProfileRepo {
	return &ProfileRepo{sql: sql}
}

// LoadProfile returns the profile of userID. Unknown users are free.
func (r *ProfileRepo) LoadProfile(ctx context.Context, userID string) (domain.Profile, error) {
	var plan string
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectUserPlan, userID).Scan(&plan); err != nil {
		if infra.IsNoRows(err) {
			return domain.Profile{UserID: userID, Tier: domain.UserPlanFree}, nil
		}
		return domain.Profile{}, fmt.Errorf("load profile %s: %w", userID, err)
	}
	return domain.Profile{UserID: userID, Tier: domain.ParseUserPlan(plan)}, nil
}

// Account is a user row as the admin tooling sees it.
type Account struct {
	ID    string
	Email string
	Plan  domain.UserPlan
}

// FindByEmail looks an account up case-insensitively.
func (r *ProfileRepo) FindByEmail(ctx context.Context, email string) (Account, error) {
	var (
		a    Account
		plan string
	)
	err := r.sql.QueryRow(ctx, sqlinline.QSelectUserPlanByEmail, strings.TrimSpace(email)).Scan(&a.ID, &a.Email, &plan)
	if err != nil {
		if infra.IsNoRows(err) {
			return Account{}, domain.ErrNotFound
		}
		return Account{}, err
	}
	a.Plan = domain.ParseUserPlan(plan)
	return a, nil
}

// SetPlan assigns a membership tier.
func (r *ProfileRepo) SetPlan(ctx context.Context, userID string, plan domain.UserPlan) (Account, error) {
	if !plan.Valid() {
		return Account{}, errors.New("repo: unsupported plan " + string(plan))
	}
	var (
		a   Account
		raw string
	)
	err := r.sql.QueryRow(ctx, sqlinline.QUpdateUserPlan, userID, string(plan)).Scan(&a.ID, &a.Email, &raw)
	if err != nil {
		if infra.IsNoRows(err) {
			return Account{}, domain.ErrNotFound
		}
		return Account{}, err
	}
	a.Plan = domain.ParseUserPlan(raw)
	return a, nil
}
