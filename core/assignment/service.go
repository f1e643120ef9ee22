package assignment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/class"
	"github.com/iepapp/iep/core/tenant"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("assignment")

	nowFunc = time.Now // mockable
)

type (
	// Repository persists assignments of the tenant carried by the context.
	Repository interface {
		Create(ctx context.Context, a *Assignment) error
		Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]Assignment, int, error)
		Get(ctx context.Context, id string) (Assignment, error)
		Update(ctx context.Context, a *Assignment) error
		SoftDelete(ctx context.Context, id string, at time.Time) error
	}

	ClassService interface {
		Get(ctx context.Context, id string) (class.Class, error)
		EnrollmentCounts(ctx context.Context, classIDs []string) (map[string]int, error)
	}

	// ScoreSource lists the graded submissions of assignments.
	ScoreSource interface {
		AssignmentScores(ctx context.Context, assignmentIDs []string) ([]Score, error)
	}

	Service struct {
		repo    Repository
		classes ClassService
		scores  ScoreSource
		events  core.EventPublisher
	}
)

func NewService(repo Repository, classes ClassService, events core.EventPublisher) *Service {
	if events == nil {
		events = core.NopPublisher
	}
	return &Service{repo: repo, classes: classes, events: events}
}

// SetScoreSource wires the grade store used by Statistics.
func (svc *Service) SetScoreSource(scores ScoreSource) { svc.scores = scores }

func (svc *Service) Create(ctx context.Context, na NewAssignment) (Assignment, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return Assignment{}, err
	}
	if _, err := svc.classes.Get(ctx, na.ClassID); err != nil {
		if core.IsNotFound(err) {
			return Assignment{}, core.NewValidationError(nil, core.FieldError{Field: "classId", Error: class.ErrNotFound.Error()})
		}
		return Assignment{}, errors.Wrap(err, "finding class")
	}

	now := time.Now().UTC()
	a := Assignment{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		ClassID:     na.ClassID,
		TeacherID:   na.TeacherID,
		Title:       na.Title,
		Description: na.Description,
		DueDate:     na.DueDate.UTC(),
		MaxScore:    na.MaxScore,
		Status:      na.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := svc.repo.Create(ctx, &a); err != nil {
		return Assignment{}, errors.Wrap(err, "creating assignment")
	}
	svc.events.Publish(ctx, core.EventAssignmentCreated, a)
	return a, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]Assignment, int, error) {
	return svc.repo.Query(ctx, filter, opts)
}

func (svc *Service) Get(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, ua UpdateAssignment) (Assignment, error) {
	a, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if ua.Title != "" {
		a.Title = ua.Title
	}
	if ua.Description != nil {
		a.Description = core.CleanString(*ua.Description)
	}
	if ua.DueDate != nil {
		a.DueDate = ua.DueDate.UTC()
	}
	if ua.MaxScore != nil {
		a.MaxScore = *ua.MaxScore
	}
	if ua.Status != "" {
		a.Status = ua.Status
	}
	a.UpdatedAt = time.Now().UTC()
	if err := svc.repo.Update(ctx, &a); err != nil {
		return Assignment{}, errors.Wrap(err, "updating assignment")
	}
	return a, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.SoftDelete(ctx, id, time.Now().UTC())
}

// Statistics summarizes every assignment matching filter.
func (svc *Service) Statistics(ctx context.Context, filter QueryFilter) (Statistics, error) {
	assignments, _, err := svc.repo.Query(ctx, filter, core.AllRows)
	if err != nil {
		return Statistics{}, errors.Wrap(err, "querying assignments")
	}

	classIDs := make([]string, 0, len(assignments))
	ids := make([]string, 0, len(assignments))
	seen := make(map[string]bool)
	for _, a := range assignments {
		ids = append(ids, a.ID)
		if !seen[a.ClassID] {
			seen[a.ClassID] = true
			classIDs = append(classIDs, a.ClassID)
		}
	}

	enrollments := map[string]int{}
	var scores []Score
	if len(assignments) > 0 {
		if enrollments, err = svc.classes.EnrollmentCounts(ctx, classIDs); err != nil {
			return Statistics{}, errors.Wrap(err, "counting enrollments")
		}
		if svc.scores != nil {
			if scores, err = svc.scores.AssignmentScores(ctx, ids); err != nil {
				return Statistics{}, errors.Wrap(err, "listing scores")
			}
		}
	}
	return computeStatistics(assignments, enrollments, scores, nowFunc().UTC()), nil
}
