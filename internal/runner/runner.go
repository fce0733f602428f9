package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"toolcore/internal/core"
	"toolcore/pkg/domain"
)

const defaultConcurrency = 4

// Runner executes tasks, each in its own session over a fresh store.
type Runner struct {
	service     *core.Service
	ledger      domain.RunLedger
	sink        TranscriptSink
	logger      core.Logger
	clock       core.Clock
	newID       func() string
	concurrency int
}

// Option configures a Runner.
type Option func(*Runner)

// WithLedger records a RunRecord for every finished run.
func WithLedger(l domain.RunLedger) Option {
	return func(r *Runner) { r.ledger = l }
}

// WithSink hands every finished transcript to s.
func WithSink(s TranscriptSink) Option {
	return func(r *Runner) { r.sink = s }
}

// WithLogger sets the run logger.
func WithLogger(l core.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock sets the clock used for run timestamps.
func WithClock(c core.Clock) Option {
	return func(r *Runner) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithConcurrency bounds how many tasks RunAll executes at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithIDGenerator replaces the uuid run id generator.
func WithIDGenerator(fn func() string) Option {
	return func(r *Runner) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// New constructs a runner over service.
func New(service *core.Service, opts ...Option) *Runner {
	r := &Runner{
		service:     service,
		logger:      nopLogger{},
		clock:       core.ClockFunc(func() time.Time { return time.Now().UTC() }),
		newID:       func() string { return uuid.NewString() },
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Run executes task in env. Tool failures are part of the transcript; the
// returned error reports infrastructure failures only.
func (r *Runner) Run(ctx context.Context, env Environment, task Task) (Transcript, error) {
	session, err := r.service.OpenSession(env.Domain, env.Interface, env.Dataset)
	if err != nil {
		return Transcript{}, fmt.Errorf("open session: %w", err)
	}
	t := Transcript{
		RunID:     r.newID(),
		Domain:    env.Domain,
		Interface: env.Interface,
		Task:      task,
		Steps:     make([]Step, 0, len(task.Actions)),
		StartedAt: r.clock.Now(),
	}
	r.logger.Debug("run started", "run_id", t.RunID, "domain", env.Domain, "interface", env.Interface, "actions", len(task.Actions))

	unverified := false
	for _, action := range task.Actions {
		if err := ctx.Err(); err != nil {
			return t, err
		}
		step := r.step(ctx, session, action, unverified)
		if desc, ok := session.Descriptor(action.Name); ok && desc.IdentityCheck && !step.Gated {
			unverified = !step.Envelope.OK
		}
		t.Steps = append(t.Steps, step)
		if task.FailFast && !step.Envelope.OK {
			t.Stopped = true
			break
		}
	}
	t.Reward = Score(t.Steps, task.Outputs)
	t.FinishedAt = r.clock.Now()
	r.logger.Info("run finished", "run_id", t.RunID, "domain", t.Domain, "interface", t.Interface,
		"steps", len(t.Steps), "failures", t.Failures(), "reward", t.Reward)

	if err := r.publish(ctx, t); err != nil {
		return t, err
	}
	return t, nil
}

// step dispatches one action, or denies it when an earlier identity check
// failed and the tool would mutate the store.
func (r *Runner) step(ctx context.Context, session *core.Session, action Action, unverified bool) Step {
	if unverified {
		if desc, ok := session.Descriptor(action.Name); ok && !desc.ReadOnly {
			return Step{
				Action:   action,
				Envelope: core.Failure(domain.ErrAuthorizationDenied{Code: "identity_unverified", Reason: "identity check failed earlier in this run"}),
				Gated:    true,
			}
		}
	}
	args, err := action.Arguments()
	if err != nil {
		return Step{Action: action, Envelope: core.Failure(domain.ErrInvalidArgument{Reason: err.Error()})}
	}
	return Step{Action: action, Envelope: session.Call(ctx, action.Name, args)}
}

func (r *Runner) publish(ctx context.Context, t Transcript) error {
	if r.sink != nil {
		if err := r.sink.Save(ctx, t); err != nil {
			return fmt.Errorf("save transcript %s: %w", t.RunID, err)
		}
	}
	if r.ledger == nil {
		return nil
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode transcript %s: %w", t.RunID, err)
	}
	rec := domain.RunRecord{
		RunID:      t.RunID,
		Domain:     t.Domain,
		Interface:  t.Interface,
		UserID:     t.Task.UserID,
		Annotator:  t.Task.Annotator,
		Reward:     t.Reward,
		Steps:      len(t.Steps),
		Failures:   t.Failures(),
		Stopped:    t.Stopped,
		Transcript: raw,
		RecordedAt: t.FinishedAt,
	}
	if err := r.ledger.Record(ctx, rec); err != nil {
		return fmt.Errorf("record run %s: %w", t.RunID, err)
	}
	return nil
}

// RunAll runs tasks concurrently, each against its own store, and returns the
// transcripts in task order. The first infrastructure error cancels the rest.
func (r *Runner) RunAll(ctx context.Context, env Environment, tasks []Task) ([]Transcript, error) {
	out := make([]Transcript, len(tasks))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.concurrency)
	for i, task := range tasks {
		eg.Go(func() error {
			t, err := r.Run(ctx, env, task)
			if err != nil {
				return fmt.Errorf("task %d: %w", i, err)
			}
			out[i] = t
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
