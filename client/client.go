// Package client is the data-access client of the İ-EP.APP API. Every call carries the tenant
// of the active session, validates the response against its schema and fails with an *Error
// of one of six categories. Failed reads are retried with exponential backoff.
package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/iepapp/iep/core"
)

const (
	LanguageTurkish = "tr"
	LanguageEnglish = "en"

	DefaultTimeout        = 10 * time.Second
	DefaultMaxRetries     = 2
	DefaultRetryBaseDelay = 300 * time.Millisecond
)

// sleepFunc waits between retries. mockable
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type Config struct {
	BaseURL        string        // API root, e.g. https://iep.app/api
	Timeout        time.Duration // per attempt
	MaxRetries     int           // retries of failed reads; 0 takes the default, negative disables
	RetryBaseDelay time.Duration // delay before the first retry, doubled for each next one
	Language       string        // of user messages: "tr" (default) or "en"
}

func (conf Config) withDefaults() Config {
	conf.BaseURL = strings.TrimRight(conf.BaseURL, "/")
	if conf.Timeout <= 0 {
		conf.Timeout = DefaultTimeout
	}
	if conf.MaxRetries == 0 {
		conf.MaxRetries = DefaultMaxRetries
	} else if conf.MaxRetries < 0 {
		conf.MaxRetries = 0
	}
	if conf.RetryBaseDelay <= 0 {
		conf.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if conf.Language != LanguageEnglish {
		conf.Language = LanguageTurkish
	}
	return conf
}

// Logger receives the failures of the client.
type Logger = core.Logger

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.rest = &rest.Client{HTTPClient: hc} }
}

func WithLogger(logger Logger) Option {
	return func(c *Client) { c.logger = logger }
}

type Client struct {
	conf       Config
	sessions   SessionProvider
	rest       *rest.Client
	validate   *validator.Validate
	translator ut.Translator
	logger     Logger

	Assignments *Assignments
	Students    *Students
	Teachers    *Teachers
	Classes     *Classes
	Grades      *Grades
	Attendance  *Attendance
}

func New(conf Config, sessions SessionProvider, opts ...Option) *Client {
	vala.BeginValidation().Validate(
		vala.StringNotEmpty(conf.BaseURL, "conf.BaseURL"),
		vala.IsNotNil(sessions, "sessions"),
	).CheckAndPanic()

	conf = conf.withDefaults()
	validate, translator := core.NewValidator(conf.Language)
	c := &Client{
		conf:       conf,
		sessions:   sessions,
		rest:       &rest.Client{HTTPClient: &http.Client{}},
		validate:   validate,
		translator: translator,
		logger:     nopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Assignments = &Assignments{newResource[Assignment, NewAssignment, UpdateAssignment](c, "assignments")}
	c.Students = &Students{newResource[Student, NewStudent, UpdateStudent](c, "students")}
	c.Teachers = &Teachers{newResource[Teacher, NewTeacher, UpdateTeacher](c, "teachers")}
	c.Classes = &Classes{newResource[Class, NewClass, UpdateClass](c, "classes")}
	c.Grades = &Grades{newResource[Grade, NewGrade, UpdateGrade](c, "grades")}
	c.Attendance = &Attendance{newResource[AttendanceRecord, NewAttendanceRecord, UpdateAttendanceRecord](c, "attendance")}
	return c
}

// ListParams are the paging, ordering and filter query parameters of list endpoints.
type ListParams struct {
	Page     int
	PerPage  int
	Ordering []string // JSON field names, "-" prefixed for descending order
	Filters  map[string]string
}

func (p ListParams) query() map[string]string {
	q := make(map[string]string, len(p.Filters)+3)
	for k, v := range p.Filters {
		if v != "" {
			q[k] = v
		}
	}
	if p.Page > 0 {
		q["page"] = strconv.Itoa(p.Page)
	}
	if p.PerPage > 0 {
		q["perPage"] = strconv.Itoa(p.PerPage)
	}
	if len(p.Ordering) > 0 {
		q["ordering"] = strings.Join(p.Ordering, ",")
	}
	return q
}

type call struct {
	resource string
	method   rest.Method
	path     string
	query    map[string]string
	body     interface{}
}

func (cl call) endpoint() string {
	return string(cl.method) + " " + cl.path
}

// do sends the call and decodes the validated response into out (nil to discard it).
// out is left untouched unless the call succeeds.
func (c *Client) do(ctx context.Context, cl call, out interface{}) error {
	err := c.send(ctx, cl, out)
	if err != nil {
		c.logger.Error("api call failed", err, map[string]interface{}{
			"resource": cl.resource,
			"endpoint": cl.endpoint(),
			"category": string(CategoryOf(err)),
		})
	}
	return err
}

func (c *Client) send(ctx context.Context, cl call, out interface{}) error {
	ep := cl.endpoint()
	sess, err := c.sessions.Session(ctx)
	if err != nil {
		return c.newError(CategoryAuthentication, ep, errors.Wrap(err, "getting session").Error(), err)
	}
	if !sess.valid() {
		return c.newError(CategoryAuthentication, ep, "no active session", nil)
	}

	req := rest.Request{
		Method:      cl.method,
		BaseURL:     c.conf.BaseURL + cl.path,
		Headers:     sess.headers(),
		QueryParams: cl.query,
	}
	req.Headers["Accept"] = "application/json"
	if cl.body != nil {
		body, err := json.Marshal(cl.body)
		if err != nil {
			return c.newError(CategoryValidation, ep, errors.Wrap(err, "encoding request").Error(), err)
		}
		req.Headers["Content-Type"] = "application/json"
		req.Body = body
	}

	// only reads are retried
	attempts := 1
	if cl.method == rest.Get {
		attempts += c.conf.MaxRetries
	}

	var res *rest.Response
	for n := 1; ; n++ {
		var aErr *Error
		res, aErr = c.attempt(ctx, req, ep)
		if aErr == nil {
			break
		}
		if n >= attempts || !aErr.Retryable() || ctx.Err() != nil {
			return aErr
		}
		delay := c.backoff(n)
		c.logger.Debug("retrying api call", map[string]interface{}{
			"endpoint": ep,
			"attempt":  n + 1,
			"delay":    delay.String(),
			"category": string(aErr.Category),
		})
		if err := sleepFunc(ctx, delay); err != nil {
			return c.transportError(ctx, ep, err)
		}
	}
	return c.decode(ep, res.Body, out)
}

func (c *Client) attempt(ctx context.Context, req rest.Request, ep string) (*rest.Response, *Error) {
	actx, cancel := context.WithTimeout(ctx, c.conf.Timeout)
	defer cancel()

	hr, err := rest.BuildRequestObject(req)
	if err != nil {
		return nil, c.newError(CategoryUnknown, ep, errors.Wrap(err, "building request").Error(), err)
	}
	raw, err := c.rest.MakeRequest(hr.WithContext(actx))
	if err != nil {
		return nil, c.transportError(ctx, ep, err)
	}
	res, err := rest.BuildResponse(raw)
	if err != nil {
		return nil, c.transportError(ctx, ep, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, c.statusError(ep, res.StatusCode, []byte(res.Body))
	}
	return res, nil
}

// backoff returns the delay before retry n (1-based): base·2^(n-1).
func (c *Client) backoff(n int) time.Duration {
	return c.conf.RetryBaseDelay << (n - 1)
}
