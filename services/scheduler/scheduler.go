// Package schedulersvc runs periodic background jobs on a cron schedule.
package schedulersvc

import (
	"context"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/iepapp/iep/core"
)

// JobFunc is a periodic job. Its context is cancelled when the scheduler stops.
type JobFunc func(ctx context.Context) error

type Scheduler struct {
	cron   *cron.Cron
	logger core.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// cronLogger adapts core.Logger to cron.Logger.
type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, kvMap(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, err, kvMap(keysAndValues))
}

func kvMap(kv []interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			m[k] = kv[i+1]
		}
	}
	return m
}

func New(logger core.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job under name. An empty spec disables the job.
func (s *Scheduler) Add(name, spec string, job JobFunc) error {
	if spec == "" {
		s.logger.Info("scheduler: job " + name + " disabled")
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		if err := job(s.ctx); err != nil {
			s.logger.Error("scheduler: job "+name+" failed", err)
		}
	})
	return errors.Wrapf(err, "scheduling %s (%q)", name, spec)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling, cancels the running jobs and waits for them until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for scheduled jobs")
	}
}
