package upgrade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prasastie/munggah/pkg/dblock"
	"github.com/prasastie/munggah/pkg/tracer"
	"github.com/prasastie/munggah/pkg/validator"
	"github.com/yusufsyaifudin/ylog"
	"go.opentelemetry.io/otel/trace"
)

// Advisory lock identity for the inspect-and-upgrade protocol. Every process
// of this service must use the same pair so deploys serialize on it.
const (
	LockNamespace int64 = 1
	LockID        int64 = 1
)

type Status string

const (
	StatusNotNeeded Status = "NOT_NEEDED"
	StatusCompleted Status = "COMPLETED"
)

// Result is what RunUpgrade reports on success. Callers branch on Status
// instead of catching control-flow errors.
type Result struct {
	Status Status
	From   VersionPair // zero value when Status is NOT_NEEDED
	To     VersionPair
}

func (r Result) ExitCode() int {
	return 0
}

// VersionSource reads the code-declared and persisted version pairs.
type VersionSource interface {
	CodeVersions(ctx context.Context) (VersionPair, error)

	// RunningVersions return found=false when the version table exists but
	// holds no record yet. A missing table is ErrStoreUninitialized.
	RunningVersions(ctx context.Context) (pair VersionPair, found bool, err error)
}

// RecordInput is the single atomic upsert of the version record.
type RecordInput struct {
	ServiceVersion string            `validate:"required"`
	DBVersion      string            `validate:"required"`
	Metadata       map[string]string `validate:"-"`
}

type VersionStore interface {
	Record(ctx context.Context, in RecordInput) error
}

type Config struct {
	Versions VersionSource `validate:"required"`
	Locker   dblock.Locker `validate:"required"`
	Store    VersionStore  `validate:"required"`
	Steps    []Step        `validate:"-"`

	// LockWait bounds the advisory lock acquisition. Zero means block
	// indefinitely, matching the historical behavior; deploy tooling that
	// wants to alert on a stuck holder should set it.
	LockWait time.Duration `validate:"-"`
}

// Coordinator serializes and drives the versioned schema upgrade protocol.
// It holds its collaborators explicitly, nothing is looked up globally.
type Coordinator struct {
	Config Config
}

func New(conf Config) (*Coordinator, error) {
	if err := validator.Validate(conf); err != nil {
		return nil, fmt.Errorf("upgrade coordinator config error: %w", err)
	}

	if err := validateSteps(conf.Steps); err != nil {
		return nil, fmt.Errorf("upgrade step table error: %w", err)
	}

	return &Coordinator{Config: conf}, nil
}

// RunUpgrade is the entry point for upgrades (idempotent).
// It acquires the advisory lock, inspects both version pairs and either
// no-ops, rejects a downgrade, or walks the step table and persists the
// new version record. The lock is released on every exit path.
func (c *Coordinator) RunUpgrade(ctx context.Context) (res Result, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "upgrade.RunUpgrade")
	defer span.End()

	code, err := c.Config.Versions.CodeVersions(ctx)
	if err != nil {
		return res, fmt.Errorf("cannot read code versions: %w", err)
	}

	if code.DBVersion == "" {
		return res, fmt.Errorf("%w: service version '%s'", ErrConfiguration, code.ServiceVersion)
	}

	lockCtx := ctx
	if c.Config.LockWait > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, c.Config.LockWait)
		defer cancel()
	}

	release, err := c.Config.Locker.Acquire(lockCtx, LockNamespace, LockID)
	if err != nil {
		return res, fmt.Errorf("cannot acquire upgrade lock: %w", err)
	}

	defer func() {
		// release must not depend on the (possibly canceled) run context
		if _err := release(context.Background()); _err != nil {
			ylog.Error(ctx, "error release upgrade lock", ylog.KV("error", _err))
		}
	}()

	running, found, err := c.Config.Versions.RunningVersions(ctx)
	if errors.Is(err, ErrStoreUninitialized) {
		ylog.Info(ctx, "version table not found, db is not initialized, no upgrade necessary")
		return Result{Status: StatusNotNeeded, To: code}, nil
	}

	if err != nil {
		return res, fmt.Errorf("cannot read running versions: %w", err)
	}

	if !found {
		ylog.Info(ctx, "no running db version detected, db is connected but not initialized, no upgrade necessary")
		return Result{Status: StatusNotNeeded, To: code}, nil
	}

	if running.DBVersion == code.DBVersion {
		ylog.Info(ctx, "code and running db version match, nothing to do",
			ylog.KV("db_version", code.DBVersion))
		return Result{Status: StatusNotNeeded, From: running, To: code}, nil
	}

	ylog.Info(ctx, "performing upgrade",
		ylog.KV("running", running), ylog.KV("code", code))

	err = c.performUpgrade(ctx, running, code)
	if err != nil {
		return res, err
	}

	// the only point RunningVersions changes, and only after all steps succeed
	err = c.Config.Store.Record(ctx, RecordInput{
		ServiceVersion: code.ServiceVersion,
		DBVersion:      code.DBVersion,
		Metadata: map[string]string{
			"service_version": code.ServiceVersion,
			"db_version":      code.DBVersion,
		},
	})
	if err != nil {
		return res, fmt.Errorf("upgrade steps succeeded but version record write failed: %w", err)
	}

	ylog.Info(ctx, "upgrade success",
		ylog.KV("from", running.DBVersion), ylog.KV("to", code.DBVersion))

	return Result{Status: StatusCompleted, From: running, To: code}, nil
}

// performUpgrade walks the declared step table from current to target,
// advancing a cursor as each step completes. Any function failure aborts
// the whole run, already-applied schema changes stay in place.
func (c *Coordinator) performUpgrade(ctx context.Context, current, target VersionPair) error {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "upgrade.performUpgrade")
	defer span.End()

	cur, err := parseVersion(current.DBVersion)
	if err != nil {
		return fmt.Errorf("running db version: %w", err)
	}

	tgt, err := parseVersion(target.DBVersion)
	if err != nil {
		return fmt.Errorf("code db version: %w", err)
	}

	if tgt.LessThan(cur) {
		return fmt.Errorf("%w: running %s is newer than code %s",
			ErrDowngrade, current.DBVersion, target.DBVersion)
	}

	dbCurrent := cur
	for _, step := range c.Config.Steps {
		// finish once we've reached the target version
		if !dbCurrent.LessThan(tgt) {
			break
		}

		to, err := parseVersion(step.To)
		if err != nil {
			return fmt.Errorf("step %s to %s: %w", step.From, step.To, err)
		}

		// upgrade code for an older version, skip it
		if !dbCurrent.LessThan(to) {
			continue
		}

		ylog.Info(ctx, "executing upgrade functions",
			ylog.KV("from", step.From), ylog.KV("to", step.To))

		for _, fn := range step.Funcs {
			ylog.Info(ctx, "executing upgrade function", ylog.KV("name", fn.Name))

			if err := fn.Run(ctx); err != nil {
				return &StepError{From: step.From, To: step.To, Name: fn.Name, Err: err}
			}
		}

		dbCurrent = to
	}

	if dbCurrent.LessThan(tgt) {
		return fmt.Errorf("%w: reached %s, target %s",
			ErrTargetUnreachable, dbCurrent.String(), target.DBVersion)
	}

	if current.ServiceVersion != target.ServiceVersion {
		ylog.Info(ctx, "upgrading service version",
			ylog.KV("from", current.ServiceVersion), ylog.KV("to", target.ServiceVersion))
	}

	return nil
}
