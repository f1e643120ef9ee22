package client

import (
	"context"
	"net/url"

	"github.com/sendgrid/rest"
)

// Resource is the CRUD client of one API resource: T is its schema, N and U its
// create and update payloads.
type Resource[T, N, U any] struct {
	c    *Client
	name string
	path string
}

func newResource[T, N, U any](c *Client, name string) *Resource[T, N, U] {
	return &Resource[T, N, U]{c: c, name: name, path: "/" + name}
}

func (r *Resource[T, N, U]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

func (r *Resource[T, N, U]) List(ctx context.Context, params ListParams) (Page[T], error) {
	var page Page[T]
	err := r.c.do(ctx, call{resource: r.name, method: rest.Get, path: r.path, query: params.query()}, &page)
	return page, err
}

func (r *Resource[T, N, U]) Get(ctx context.Context, id string) (T, error) {
	var item T
	err := r.c.do(ctx, call{resource: r.name, method: rest.Get, path: r.itemPath(id)}, &item)
	return item, err
}

func (r *Resource[T, N, U]) Create(ctx context.Context, payload N) (T, error) {
	var item T
	err := r.c.do(ctx, call{resource: r.name, method: rest.Post, path: r.path, body: payload}, &item)
	return item, err
}

func (r *Resource[T, N, U]) Update(ctx context.Context, id string, payload U) (T, error) {
	var item T
	err := r.c.do(ctx, call{resource: r.name, method: rest.Put, path: r.itemPath(id), body: payload}, &item)
	return item, err
}

func (r *Resource[T, N, U]) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, call{resource: r.name, method: rest.Delete, path: r.itemPath(id)}, nil)
}

type Assignments struct {
	*Resource[Assignment, NewAssignment, UpdateAssignment]
}

// Statistics summarizes the assignments matching the filters (classId, teacherId, status, ...).
func (r *Assignments) Statistics(ctx context.Context, filters map[string]string) (AssignmentStatistics, error) {
	var stats AssignmentStatistics
	err := r.c.do(ctx, call{
		resource: r.name,
		method:   rest.Get,
		path:     r.path + "/statistics",
		query:    ListParams{Filters: filters}.query(),
	}, &stats)
	return stats, err
}

type Students struct {
	*Resource[Student, NewStudent, UpdateStudent]
}

type Teachers struct {
	*Resource[Teacher, NewTeacher, UpdateTeacher]
}

type Classes struct {
	*Resource[Class, NewClass, UpdateClass]
}

// Students lists the students enrolled in the class.
func (r *Classes) Students(ctx context.Context, classID string, params ListParams) (Page[Student], error) {
	var page Page[Student]
	err := r.c.do(ctx, call{resource: r.name, method: rest.Get, path: r.itemPath(classID) + "/students", query: params.query()}, &page)
	return page, err
}

type Grades struct {
	*Resource[Grade, NewGrade, UpdateGrade]
}

type Attendance struct {
	*Resource[AttendanceRecord, NewAttendanceRecord, UpdateAttendanceRecord]
}

// RecordBulk records the attendance of a class roster for one day.
func (r *Attendance) RecordBulk(ctx context.Context, payload BulkAttendance) ([]AttendanceRecord, error) {
	var recs []AttendanceRecord
	err := r.c.do(ctx, call{resource: r.name, method: rest.Post, path: r.path + "/bulk", body: payload}, &recs)
	return recs, err
}
