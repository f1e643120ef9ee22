package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/user"
)

var (
	userColumns  = []string{"id", "tenant_id", "name", "username", "email", "role", "is_active", "password_hash", "last_login", "created_at", "updated_at"}
	userSortable = sortable("name", "username", "email", "role", "is_active", "last_login", "created_at")
)

type userRepository struct {
	*Store
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(s *Store) user.Repository {
	return &userRepository{Store: s}
}

func (repo *userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedIDs ...string) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, false)
		conds.add("(username = ? OR email = ?)", username, email)
		if len(excludedIDs) > 0 {
			q, args, _ := sqlx.In("id NOT IN (?)", excludedIDs)
			conds.add(q, args...)
		}
		var found []user.User
		if err := tx.SelectContext(ctx, &found, tx.Rebind("SELECT * FROM users"+conds.where()), conds.args...); err != nil {
			return errors.Wrap(err, "checking uniqueness")
		}
		for _, u := range found {
			if u.Username == username {
				return user.ErrUsernameExists
			}
		}
		if len(found) > 0 {
			return user.ErrEmailExists
		}
		return nil
	})
}

func (repo *userRepository) Create(ctx context.Context, usr *user.User) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		return insert(ctx, tx, "users", userColumns, usr)
	})
}

func (repo *userRepository) Query(ctx context.Context, filter user.QueryFilter, opts core.ListOptions) ([]user.User, int, error) {
	users := make([]user.User, 0)
	var total int
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, false)
		conds.search(filter.Search, "name", "username", "email")
		conds.in("role", filter.Roles)
		if filter.IsActive != nil {
			conds.add("is_active = ?", *filter.IsActive)
		}
		if !filter.CreatedFrom.IsZero() {
			conds.add("created_at >= ?", filter.CreatedFrom)
		}
		if !filter.CreatedTo.IsZero() {
			conds.add("created_at <= ?", filter.CreatedTo)
		}
		var err error
		total, err = list(ctx, tx, &users, listQuery{
			table: "users", conds: conds, opts: opts, sortable: userSortable, order: "username ASC",
		})
		return err
	})
	return users, total, err
}

func (repo *userRepository) getBy(ctx context.Context, cond string, args ...interface{}) (user.User, error) {
	var usr user.User
	err := repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		conds := tenantScoped(tenantID, false)
		conds.add(cond, args...)
		return get(ctx, tx, &usr, "users", conds, user.ErrNotFound)
	})
	return usr, err
}

func (repo *userRepository) Get(ctx context.Context, id string) (user.User, error) {
	return repo.getBy(ctx, "id = ?", id)
}

func (repo *userRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getBy(ctx, "email = ?", email)
}

func (repo *userRepository) GetByUsernameOrEmail(ctx context.Context, login string) (user.User, error) {
	return repo.getBy(ctx, "(username = ? OR email = ?)", login, login)
}

func (repo *userRepository) Update(ctx context.Context, usr *user.User) error {
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, _ string) error {
		return update(ctx, tx, "users", userColumns[2:], usr, user.ErrNotFound, false)
	})
}

func (repo *userRepository) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return repo.tenantTx(ctx, func(tx *sqlx.Tx, tenantID string) error {
		q, args, err := sqlx.In("DELETE FROM users WHERE tenant_id = ? AND id IN (?)", tenantID, ids)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(q), args...)
		return mapError(errors.Wrap(err, "deleting users"))
	})
}
