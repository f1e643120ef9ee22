package grade

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/assignment"
	"github.com/iepapp/iep/core/class"
	"github.com/iepapp/iep/core/tenant"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("grade")
	ErrAlreadyGraded = core.NewConflictError("the student is already graded for this assignment")
	ErrNotEnrolled   = errors.New("the student is not enrolled in this class")
)

type (
	// Repository persists grades of the tenant carried by the context.
	Repository interface {
		Create(ctx context.Context, g *Grade) error
		Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]Grade, int, error)
		Get(ctx context.Context, id string) (Grade, error)
		// GetByAssignment returns the grade of a student for an assignment.
		GetByAssignment(ctx context.Context, assignmentID, studentID string) (Grade, error)
		Update(ctx context.Context, g *Grade) error
		Delete(ctx context.Context, id string) error
	}

	AssignmentGetter interface {
		Get(ctx context.Context, id string) (assignment.Assignment, error)
	}

	EnrollmentChecker interface {
		Get(ctx context.Context, id string) (class.Class, error)
		IsEnrolled(ctx context.Context, classID, studentID string) (bool, error)
	}

	Service struct {
		repo        Repository
		assignments AssignmentGetter
		classes     EnrollmentChecker
		events      core.EventPublisher
	}
)

var _ assignment.ScoreSource = (*Service)(nil)

func NewService(repo Repository, assignments AssignmentGetter, classes EnrollmentChecker, events core.EventPublisher) *Service {
	if events == nil {
		events = core.NopPublisher
	}
	return &Service{repo: repo, assignments: assignments, classes: classes, events: events}
}

func scoreError(max float64) error {
	msg := fmt.Sprintf("must be between 0 and %g", max)
	return core.NewValidationError(nil, core.FieldError{Field: "score", Error: msg})
}

// Create records a grade given by the user `gradedBy`.
func (svc *Service) Create(ctx context.Context, ng NewGrade, gradedBy string) (Grade, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return Grade{}, err
	}

	classID, maxScore := ng.ClassID, ng.MaxScore
	if !ng.AssignmentID.Valid && classID == "" {
		return Grade{}, core.NewValidationError(nil, core.FieldError{Field: "classId", Error: "required without assignmentId"})
	}
	if ng.AssignmentID.Valid {
		a, err := svc.assignments.Get(ctx, ng.AssignmentID.String)
		if err != nil {
			if core.IsNotFound(err) {
				return Grade{}, core.NewValidationError(nil, core.FieldError{Field: "assignmentId", Error: assignment.ErrNotFound.Error()})
			}
			return Grade{}, errors.Wrap(err, "finding assignment")
		}
		classID, maxScore = a.ClassID, a.MaxScore

		if _, err := svc.repo.GetByAssignment(ctx, a.ID, ng.StudentID); err == nil {
			return Grade{}, ErrAlreadyGraded
		} else if !core.IsNotFound(err) {
			return Grade{}, errors.Wrap(err, "finding grade")
		}
	}
	if maxScore == 0 {
		maxScore = assignment.DefaultMaxScore
	}
	if ng.Score > maxScore {
		return Grade{}, scoreError(maxScore)
	}

	if _, err := svc.classes.Get(ctx, classID); err != nil {
		if core.IsNotFound(err) {
			return Grade{}, core.NewValidationError(nil, core.FieldError{Field: "classId", Error: class.ErrNotFound.Error()})
		}
		return Grade{}, errors.Wrap(err, "finding class")
	}
	enrolled, err := svc.classes.IsEnrolled(ctx, classID, ng.StudentID)
	if err != nil {
		return Grade{}, errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return Grade{}, core.NewValidationError(ErrNotEnrolled, core.FieldError{Field: "studentId", Error: ErrNotEnrolled.Error()})
	}

	now := time.Now().UTC()
	g := Grade{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		StudentID:    ng.StudentID,
		ClassID:      classID,
		AssignmentID: ng.AssignmentID,
		Score:        ng.Score,
		MaxScore:     maxScore,
		Comment:      ng.Comment,
		GradedBy:     null.NewString(gradedBy, gradedBy != ""),
		GradedAt:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := svc.repo.Create(ctx, &g); err != nil {
		return Grade{}, errors.Wrap(err, "creating grade")
	}
	svc.events.Publish(ctx, core.EventGradeRecorded, g)
	return g, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]Grade, int, error) {
	return svc.repo.Query(ctx, filter, opts)
}

func (svc *Service) Get(ctx context.Context, id string) (Grade, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, ug UpdateGrade, gradedBy string) (Grade, error) {
	g, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Grade{}, err
	}
	if ug.Score != nil {
		if *ug.Score > g.MaxScore {
			return Grade{}, scoreError(g.MaxScore)
		}
		g.Score = *ug.Score
	}
	if ug.Comment != nil {
		g.Comment = core.CleanString(*ug.Comment)
	}
	now := time.Now().UTC()
	g.GradedBy = null.NewString(gradedBy, gradedBy != "")
	g.GradedAt = now
	g.UpdatedAt = now
	if err := svc.repo.Update(ctx, &g); err != nil {
		return Grade{}, errors.Wrap(err, "updating grade")
	}
	return g, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}

// Summary aggregates every grade of a student, overall and per class.
func (svc *Service) Summary(ctx context.Context, studentID string) (Summary, error) {
	grades, _, err := svc.repo.Query(ctx, QueryFilter{StudentID: studentID}, core.AllRows)
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying grades")
	}
	return summarize(studentID, grades), nil
}

// AssignmentScores lists the graded submissions of the given assignments.
func (svc *Service) AssignmentScores(ctx context.Context, assignmentIDs []string) ([]assignment.Score, error) {
	grades, _, err := svc.repo.Query(ctx, QueryFilter{AssignmentIDs: assignmentIDs}, core.AllRows)
	if err != nil {
		return nil, err
	}
	scores := make([]assignment.Score, 0, len(grades))
	for _, g := range grades {
		scores = append(scores, assignment.Score{
			AssignmentID: g.AssignmentID.String,
			StudentID:    g.StudentID,
			Score:        g.Score,
			MaxScore:     g.MaxScore,
		})
	}
	return scores, nil
}
