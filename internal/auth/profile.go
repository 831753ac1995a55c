package auth

import (
	"context"

	"github.com/MrJamesThe3rd/spendwise/internal/docstore"
	"github.com/MrJamesThe3rd/spendwise/internal/errs"
)

const UsersCollection = "users"

// Profiles keeps one users document per identity.
type Profiles struct {
	docs docstore.Store
}

func NewProfiles(docs docstore.Store) *Profiles {
	return &Profiles{docs: docs}
}

// Ensure creates the user's profile document or refreshes its name and email.
func (p *Profiles) Ensure(ctx context.Context, u *User) error {
	if u == nil || u.ID == "" {
		return errs.Validation("uid", "is required")
	}

	fields := docstore.Fields{
		"uid":   u.ID,
		"name":  u.DisplayName,
		"email": u.Email,
	}

	q := docstore.Where(UsersCollection, "uid", u.ID)
	q.Limit = 1

	existing, err := p.docs.Query(ctx, q)
	if err != nil {
		return errs.Repository("looking up profile", err)
	}

	if len(existing) > 0 {
		if err := p.docs.Update(ctx, UsersCollection, existing[0].ID, fields); err != nil {
			return errs.Repository("updating profile", err)
		}

		return nil
	}

	if _, err := p.docs.Insert(ctx, UsersCollection, fields); err != nil {
		return errs.Repository("creating profile", err)
	}

	return nil
}
