package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/student"
	"github.com/iepapp/iep/core/user"
)

// studentScope returns the students the session may read when it is restricted:
// a student reads their own records, a parent those of their children.
// Staff sessions are not restricted (scoped is false).
func studentScope(ctx echo.Context, students *student.Service) (ids []string, scoped bool, err error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return nil, false, err
	}
	c := ctx.Request().Context()

	switch claims.Role {
	case user.RoleStudent:
		s, err := students.GetByUserID(c, claims.Subject)
		if err != nil {
			if core.IsNotFound(err) {
				return []string{}, true, nil
			}
			return nil, true, errors.Wrap(err, "finding student of session user")
		}
		return []string{s.ID}, true, nil
	case user.RoleParent:
		ids, err := students.IDsOfGuardian(c, claims.Subject)
		if err != nil {
			return nil, true, errors.Wrap(err, "finding students of guardian")
		}
		return ids, true, nil
	}
	return nil, false, nil
}

// inScope reports whether id is readable by a scoped session.
func inScope(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
