package core

import "context"

// Domain events delivered to tenant webhooks.
const (
	EventAssignmentCreated  = "assignment.created"
	EventGradeRecorded      = "grade.recorded"
	EventAttendanceRecorded = "attendance.recorded"
	EventBackupCompleted    = "backup.completed"
	EventPing               = "ping"
)

var AllEvents = []string{EventAssignmentCreated, EventGradeRecorded, EventAttendanceRecorded, EventBackupCompleted, EventPing}

// EventPublisher notifies subscribers of a domain event of the tenant carried by ctx.
// Publish never blocks on delivery.
type EventPublisher interface {
	Publish(ctx context.Context, event string, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, interface{}) {}

// NopPublisher drops every event.
var NopPublisher EventPublisher = nopPublisher{}
