package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/iepapp/iep/core"
	"github.com/iepapp/iep/core/tenant"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("user")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")

	invalidValue = "invalid value"
)

type (
	// Repository persists users of the tenant carried by the context.
	Repository interface {
		// CheckUniqueness returns ErrUsernameExists or ErrEmailExists when another user (not in excludedIDs) uses them.
		CheckUniqueness(ctx context.Context, username, email string, excludedIDs ...string) error
		Create(ctx context.Context, usr *User) error
		// Query applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name, User.Username or User.Email.
		Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]User, int, error)
		Get(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		GetByUsernameOrEmail(ctx context.Context, login string) (User, error)
		Update(ctx context.Context, usr *User) error
		Delete(ctx context.Context, ids ...string) error
	}

	Service struct {
		conf    *core.Config
		repo    Repository
		mailSvc core.EmailService
		tokens  *TokenGenerator
	}
)

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService) *Service {
	return &Service{
		conf:    conf,
		repo:    repo,
		mailSvc: mailSvc,
		tokens:  NewTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
	}
}

// Tokens returns the password reset token generator.
func (svc *Service) Tokens() *TokenGenerator { return svc.tokens }

func (svc *Service) checkUniqueness(ctx context.Context, uname, email string, excludedIDs ...string) error {
	if err := svc.repo.CheckUniqueness(ctx, uname, email, excludedIDs...); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return User{}, err
	}
	if err := svc.checkUniqueness(ctx, nu.Username, nu.Email); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	if err := svc.repo.Create(ctx, &usr); err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, opts core.ListOptions) ([]User, int, error) {
	return svc.repo.Query(ctx, filter, opts)
}

func (svc *Service) Get(ctx context.Context, id string) (User, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, login string) (User, error) {
	return svc.repo.GetByUsernameOrEmail(ctx, core.CleanString(login, true /* lower */))
}

func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr, err := svc.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := svc.checkUniqueness(ctx, uu.Username, uu.Email, usr.ID); err != nil {
		return User{}, err
	}

	usr.Name = uu.Name
	usr.Username = uu.Username
	usr.Email = uu.Email
	usr.Role = uu.Role
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	usr.UpdatedAt = time.Now().UTC()
	if err := svc.repo.Update(ctx, &usr); err != nil {
		return User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

// SetPassword replaces the password of the user without applying the password policy (admin CLI).
func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	usr.UpdatedAt = time.Now().UTC()
	if err := svc.repo.Update(ctx, &usr); err != nil {
		return User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = null.TimeFrom(time.Now().UTC())
	if err := svc.repo.Update(ctx, &usr); err != nil {
		return User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.Delete(ctx, ids...)
}

// RequestPasswordReset emails a password reset link to the active user owning `email`.
// tenantKey identifies the tenant (subdomain) in the link.
func (svc *Service) RequestPasswordReset(ctx context.Context, tenantKey, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	token, err := svc.tokens.MakeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making token")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Parola sıfırlama",
		TemplateName: "password_reset",
		TemplateData: map[string]string{
			"Name":     usr.Name,
			"Username": usr.Username,
			"Tenant":   tenantKey,
			"UID":      EncodeUID(usr),
			"Token":    token,
		},
	})
	return nil
}

// ResetPassword sets a new password after verifying the reset token.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	id, err := DecodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "uid", Error: invalidValue})
	}
	if _, perr := uuid.Parse(id); perr != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "uid", Error: invalidValue})
	}
	usr, err := svc.repo.Get(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(nil, core.FieldError{Field: "uid", Error: invalidValue})
		}
		return errors.Wrap(err, "finding user")
	}
	if err := svc.tokens.VerifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "token", Error: invalidValue})
	}
	if _, err := svc.SetPassword(ctx, usr, rp.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	return nil
}
