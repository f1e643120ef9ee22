package inmemdb

import (
	"context"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedIDs ...string) error {
	return repo.db.read(ctx, func(tenantID string) error {
		excluded := make(map[string]bool, len(excludedIDs))
		for _, id := range excludedIDs {
			excluded[id] = true
		}
		for _, usr := range repo.db.users[tenantID] {
			if excluded[usr.ID] {
				continue
			}
			if usr.Username == username {
				return user.ErrUsernameExists
			}
			if usr.Email == email {
				return user.ErrEmailExists
			}
		}
		return nil
	})
}

func (repo *userRepository) Create(ctx context.Context, usr *user.User) error {
	return repo.db.write(ctx, func(tenantID string) error {
		usr.TenantID = tenantID
		repo.db.users.put(tenantID, usr.ID, *usr)
		return nil
	})
}

func (repo *userRepository) Query(ctx context.Context, filter user.QueryFilter, opts core.ListOptions) ([]user.User, int, error) {
	var (
		users []user.User
		total int
	)
	err := repo.db.read(ctx, func(tenantID string) error {
		matches := repo.db.users.all(tenantID, func(u user.User) bool {
			return contains(filter.Search, u.Name, u.Username, u.Email) &&
				within(u.Role, filter.Roles) &&
				(filter.IsActive == nil || u.IsActive == *filter.IsActive) &&
				(filter.CreatedFrom.IsZero() || !u.CreatedAt.Before(filter.CreatedFrom)) &&
				(filter.CreatedTo.IsZero() || !u.CreatedAt.After(filter.CreatedTo))
		})
		users, total = paginate(matches, opts, asc("username"))
		return nil
	})
	return users, total, err
}

func (repo *userRepository) find(ctx context.Context, match func(user.User) bool) (user.User, error) {
	var found user.User
	err := repo.db.read(ctx, func(tenantID string) error {
		for _, u := range repo.db.users[tenantID] {
			if match(u) {
				found = u
				return nil
			}
		}
		return user.ErrNotFound
	})
	return found, err
}

func (repo *userRepository) Get(ctx context.Context, id string) (user.User, error) {
	return repo.find(ctx, func(u user.User) bool { return u.ID == id })
}

func (repo *userRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.find(ctx, func(u user.User) bool { return u.Email == email })
}

func (repo *userRepository) GetByUsernameOrEmail(ctx context.Context, login string) (user.User, error) {
	return repo.find(ctx, func(u user.User) bool { return u.Username == login || u.Email == login })
}

func (repo *userRepository) Update(ctx context.Context, usr *user.User) error {
	return repo.db.write(ctx, func(tenantID string) error {
		if _, ok := repo.db.users.get(tenantID, usr.ID); !ok {
			return user.ErrNotFound
		}
		repo.db.users.put(tenantID, usr.ID, *usr)
		return nil
	})
}

func (repo *userRepository) Delete(ctx context.Context, ids ...string) error {
	return repo.db.write(ctx, func(tenantID string) error {
		for _, id := range ids {
			repo.db.users.remove(tenantID, id)
		}
		return nil
	})
}
