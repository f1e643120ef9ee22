package inmemdb

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/assignment"
	"github.com/iepapp/iep/core/attendance"
	"github.com/iepapp/iep/core/backup"
	"github.com/iepapp/iep/core/class"
	"github.com/iepapp/iep/core/file"
	"github.com/iepapp/iep/core/grade"
	"github.com/iepapp/iep/core/schedule"
	"github.com/iepapp/iep/core/student"
	"github.com/iepapp/iep/core/teacher"
	"github.com/iepapp/iep/core/tenant"
	"github.com/iepapp/iep/core/user"
	"github.com/iepapp/iep/core/webhook"
)

// rows holds the rows of a table by tenant then by id.
type rows[T any] map[string]map[string]T

func (r rows[T]) put(tenantID, id string, v T) {
	if r[tenantID] == nil {
		r[tenantID] = make(map[string]T)
	}
	r[tenantID][id] = v
}

func (r rows[T]) get(tenantID, id string) (T, bool) {
	v, ok := r[tenantID][id]
	return v, ok
}

func (r rows[T]) remove(tenantID, id string) bool {
	if _, ok := r[tenantID][id]; !ok {
		return false
	}
	delete(r[tenantID], id)
	return true
}

// all returns the rows of a tenant matching keep (every row when keep is nil).
func (r rows[T]) all(tenantID string, keep func(T) bool) []T {
	out := make([]T, 0, len(r[tenantID]))
	for _, v := range r[tenantID] {
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// DB is an in-memory store that keeps tenants apart the way row level security does.
type DB struct {
	mu sync.RWMutex

	tenants       map[string]tenant.Tenant
	users         rows[user.User]
	students      rows[student.Student]
	teachers      rows[teacher.Teacher]
	classes       rows[class.Class]
	enrollments   rows[map[string]time.Time] // class id → student id → enrolled at
	classTeachers rows[map[string]class.ClassTeacher]
	assignments   rows[assignment.Assignment]
	grades        rows[grade.Grade]
	attendance    rows[attendance.Record]
	files         rows[file.File]
	shares        rows[file.Share]
	quotas        map[string]file.Quota
	webhooks      rows[webhook.Webhook]
	backups       rows[backup.Job]
	schedules     rows[schedule.Entry]
}

func NewDB() *DB {
	return &DB{
		tenants:       make(map[string]tenant.Tenant),
		users:         make(rows[user.User]),
		students:      make(rows[student.Student]),
		teachers:      make(rows[teacher.Teacher]),
		classes:       make(rows[class.Class]),
		enrollments:   make(rows[map[string]time.Time]),
		classTeachers: make(rows[map[string]class.ClassTeacher]),
		assignments:   make(rows[assignment.Assignment]),
		grades:        make(rows[grade.Grade]),
		attendance:    make(rows[attendance.Record]),
		files:         make(rows[file.File]),
		shares:        make(rows[file.Share]),
		quotas:        make(map[string]file.Quota),
		webhooks:      make(rows[webhook.Webhook]),
		backups:       make(rows[backup.Job]),
		schedules:     make(rows[schedule.Entry]),
	}
}

// Flush drops every row.
func (db *DB) Flush() {
	fresh := NewDB()
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tenants, db.users, db.students, db.teachers = fresh.tenants, fresh.users, fresh.students, fresh.teachers
	db.classes, db.enrollments, db.classTeachers = fresh.classes, fresh.enrollments, fresh.classTeachers
	db.assignments, db.grades, db.attendance = fresh.assignments, fresh.grades, fresh.attendance
	db.files, db.shares, db.quotas = fresh.files, fresh.shares, fresh.quotas
	db.webhooks, db.backups, db.schedules = fresh.webhooks, fresh.backups, fresh.schedules
}

func (db *DB) read(ctx context.Context, fn func(tenantID string) error) error {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return err
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	return fn(tenantID)
}

func (db *DB) write(ctx context.Context, fn func(tenantID string) error) error {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(tenantID)
}

func notDeleted(t null.Time) bool { return !t.Valid }

// contains reports whether any of fields contains term, ignoring case.
func contains(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// within reports whether v is in vals. A nil slice matches everything.
func within(v string, vals []string) bool {
	if vals == nil {
		return true
	}
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}

// paginate orders items by the db-tagged fields of opts (then by def) and returns the requested
// page with the total number of items.
func paginate[T any](items []T, opts core.ListOptions, def ...core.DBOrdering) ([]T, int) {
	orderings := append(append([]core.DBOrdering{}, opts.Ordering...), def...)
	if len(orderings) > 0 && len(items) > 1 {
		fields := dbFields(reflect.TypeOf(items[0]))
		sort.SliceStable(items, func(i, j int) bool {
			vi, vj := reflect.ValueOf(items[i]), reflect.ValueOf(items[j])
			for _, ord := range orderings {
				idx, ok := fields[ord.Field]
				if !ok {
					continue
				}
				c := compare(vi.FieldByIndex(idx), vj.FieldByIndex(idx))
				if c == 0 {
					continue
				}
				if ord.Ascending {
					return c < 0
				}
				return c > 0
			}
			return false
		})
	}

	total := len(items)
	if !opts.Paginated() {
		return items, total
	}
	start := opts.Page.Offset()
	if start >= total {
		return items[:0], total
	}
	end := start + opts.Page.Limit()
	if end > total {
		end = total
	}
	return items[start:end], total
}

var fieldCache sync.Map // reflect.Type → map[string][]int

func dbFields(t reflect.Type) map[string][]int {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(map[string][]int)
	}
	fields := make(map[string][]int)
	var walk func(t reflect.Type, index []int)
	walk = func(t reflect.Type, index []int) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			idx := append(append([]int{}, index...), i)
			if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Tag.Get("db") == "" {
				walk(f.Type, idx)
				continue
			}
			if tag := f.Tag.Get("db"); tag != "" && tag != "-" {
				fields[tag] = idx
			}
		}
	}
	walk(t, nil)
	fieldCache.Store(t, fields)
	return fields
}

var (
	timeType  = reflect.TypeOf(time.Time{})
	nullTime  = reflect.TypeOf(null.Time{})
	nullStr   = reflect.TypeOf(null.String{})
	dateType  = reflect.TypeOf(core.Date{})
	datePtrTy = reflect.TypeOf(&core.Date{})
)

// compare orders two values of the same field type. Null values sort first.
func compare(a, b reflect.Value) int {
	switch a.Type() {
	case timeType:
		return compareTimes(a.Interface().(time.Time), true, b.Interface().(time.Time), true)
	case nullTime:
		ta, tb := a.Interface().(null.Time), b.Interface().(null.Time)
		return compareTimes(ta.Time, ta.Valid, tb.Time, tb.Valid)
	case dateType:
		return compareTimes(a.Interface().(core.Date).Time, true, b.Interface().(core.Date).Time, true)
	case datePtrTy:
		pa, pb := a.Interface().(*core.Date), b.Interface().(*core.Date)
		var ta, tb time.Time
		if pa != nil {
			ta = pa.Time
		}
		if pb != nil {
			tb = pb.Time
		}
		return compareTimes(ta, pa != nil, tb, pb != nil)
	case nullStr:
		sa, sb := a.Interface().(null.String), b.Interface().(null.String)
		if sa.Valid != sb.Valid {
			if sa.Valid {
				return 1
			}
			return -1
		}
		return strings.Compare(strings.ToLower(sa.String), strings.ToLower(sb.String))
	}

	switch a.Kind() {
	case reflect.String:
		return strings.Compare(strings.ToLower(a.String()), strings.ToLower(b.String()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return sign(float64(a.Int()) - float64(b.Int()))
	case reflect.Float32, reflect.Float64:
		return sign(a.Float() - b.Float())
	case reflect.Bool:
		if a.Bool() == b.Bool() {
			return 0
		}
		if b.Bool() {
			return -1
		}
		return 1
	}
	return 0
}

func compareTimes(a time.Time, aValid bool, b time.Time, bValid bool) int {
	switch {
	case aValid != bValid:
		if aValid {
			return 1
		}
		return -1
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func sign(f float64) int {
	switch {
	case f < 0:
		return -1
	case f > 0:
		return 1
	}
	return 0
}

func asc(field string) core.DBOrdering  { return core.DBOrdering{Field: field, Ascending: true} }
func desc(field string) core.DBOrdering { return core.DBOrdering{Field: field} }
