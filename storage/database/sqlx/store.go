package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/strmangle"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/tenant"
)

// postgres error codes
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

// Store runs tenant-scoped statements. Every statement runs in a transaction that sets
// `app.tenant_id`, which the row level security policies compare against `tenant_id`.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) tx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// tenantTx runs fn in a transaction bound to the tenant of ctx.
func (s *Store) tenantTx(ctx context.Context, fn func(tx *sqlx.Tx, tenantID string) error) error {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return err
	}
	return s.tx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
			return errors.Wrap(err, "setting tenant")
		}
		return fn(tx, tenantID)
	})
}

// mapError converts constraint violations to domain errors.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case uniqueViolation:
		return core.NewConflictError("a record with the same values already exists")
	case foreignKeyViolation:
		return core.NewValidationError(err, core.FieldError{Field: fkField(pqErr), Error: "references a missing record"})
	case checkViolation:
		return core.NewValidationError(err, core.FieldError{Field: pqErr.Column, Error: "invalid value"})
	}
	return err
}

// fkField guesses the offending JSON field from a "<table>_<column>_fkey" constraint name.
func fkField(pqErr *pq.Error) string {
	name := strings.TrimSuffix(pqErr.Constraint, "_fkey")
	name = strings.TrimPrefix(name, pqErr.Table+"_")
	name = strings.TrimSuffix(name, "_tenant_id")
	return snakeToCamel(name)
}

func snakeToCamel(s string) string {
	parts := strings.Split(s, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

// conditions builds a WHERE clause with `?` placeholders.
type conditions struct {
	conds []string
	args  []interface{}
}

func tenantScoped(tenantID string, softDelete bool) *conditions {
	c := &conditions{}
	c.add("tenant_id = ?", tenantID)
	if softDelete {
		c.add("deleted_at IS NULL")
	}
	return c
}

func (c *conditions) add(cond string, args ...interface{}) {
	c.conds = append(c.conds, cond)
	c.args = append(c.args, args...)
}

// in restricts col to vals. A nil slice does not restrict, an empty one matches nothing.
func (c *conditions) in(col string, vals []string) {
	if vals == nil {
		return
	}
	if len(vals) == 0 {
		c.add("false")
		return
	}
	q, args, _ := sqlx.In(col+" IN (?)", vals)
	c.add(q, args...)
}

// search matches term case-insensitively against any of cols.
func (c *conditions) search(term string, cols ...string) {
	if term == "" {
		return
	}
	like := "%" + strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(term) + "%"
	parts := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for _, col := range cols {
		parts = append(parts, col+" ILIKE ?")
		args = append(args, like)
	}
	c.add("("+strings.Join(parts, " OR ")+")", args...)
}

func (c *conditions) where() string {
	if len(c.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.conds, " AND ")
}

// orderBy keeps the orderings on sortable columns, falling back to def.
func orderBy(orderings []core.DBOrdering, sortable []string, def string) string {
	kept := make([]core.DBOrdering, 0, len(orderings))
	for _, o := range orderings {
		if strmangle.SetInclude(o.Field, sortable) {
			kept = append(kept, o)
		}
	}
	return core.OrderByClause(kept, def)
}

type listQuery struct {
	table    string
	conds    *conditions
	opts     core.ListOptions
	sortable []string
	order    string // default ORDER BY
}

// list selects a page of rows into dest and returns the total number of matching rows.
func list(ctx context.Context, tx *sqlx.Tx, dest interface{}, q listQuery) (int, error) {
	where := q.conds.where()

	var total int
	if err := tx.GetContext(ctx, &total, tx.Rebind("SELECT count(*) FROM "+q.table+where), q.conds.args...); err != nil {
		return 0, errors.Wrapf(err, "counting %s", q.table)
	}

	query := "SELECT * FROM " + q.table + where + " ORDER BY " + orderBy(q.opts.Ordering, q.sortable, q.order)
	args := append([]interface{}{}, q.conds.args...)
	if q.opts.Paginated() {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.opts.Page.Limit(), q.opts.Page.Offset())
	}
	if err := tx.SelectContext(ctx, dest, tx.Rebind(query), args...); err != nil {
		return 0, errors.Wrapf(err, "selecting %s", q.table)
	}
	return total, nil
}

// get selects one row, returning notFound when there is none.
func get(ctx context.Context, tx *sqlx.Tx, dest interface{}, table string, conds *conditions, notFound error) error {
	err := tx.GetContext(ctx, dest, tx.Rebind("SELECT * FROM "+table+conds.where()+" LIMIT 1"), conds.args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound
		}
		return errors.Wrapf(err, "selecting %s", table)
	}
	return nil
}

func insert(ctx context.Context, tx *sqlx.Tx, table string, cols []string, arg interface{}) error {
	q := "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (:" + strings.Join(cols, ", :") + ")"
	if _, err := tx.NamedExecContext(ctx, q, arg); err != nil {
		return mapError(errors.Wrapf(err, "inserting into %s", table))
	}
	return nil
}

// update sets cols of the row with the id and tenant of arg, returning notFound when there is none.
func update(ctx context.Context, tx *sqlx.Tx, table string, cols []string, arg interface{}, notFound error, softDelete bool) error {
	sets := make([]string, 0, len(cols))
	for _, col := range cols {
		sets = append(sets, col+" = :"+col)
	}
	q := "UPDATE " + table + " SET " + strings.Join(sets, ", ") + " WHERE id = :id AND tenant_id = :tenant_id"
	if softDelete {
		q += " AND deleted_at IS NULL"
	}
	res, err := tx.NamedExecContext(ctx, q, arg)
	if err != nil {
		return mapError(errors.Wrapf(err, "updating %s", table))
	}
	return affected(res, notFound)
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func affected(res rowsAffecter, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func softDelete(ctx context.Context, tx *sqlx.Tx, table, tenantID, id string, at interface{}, notFound error) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE "+table+" SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND tenant_id = $3 AND deleted_at IS NULL",
		at, id, tenantID)
	if err != nil {
		return errors.Wrapf(err, "deleting from %s", table)
	}
	return affected(res, notFound)
}

func hardDelete(ctx context.Context, tx *sqlx.Tx, table, tenantID, id string, notFound error) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1 AND tenant_id = $2", id, tenantID)
	if err != nil {
		return mapError(errors.Wrapf(err, "deleting from %s", table))
	}
	return affected(res, notFound)
}

func sortable(cols ...string) []string {
	return cols
}
