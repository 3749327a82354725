package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/classreg-api/pkg/config"
	appErrors "github.com/noah-isme/classreg-api/pkg/errors"
)

// Querier is the sqlx subset repositories run against. Both *sqlx.DB and
// *sqlx.Tx satisfy it, so the same repository code works inside and outside a
// transaction.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

type txKey struct{}

func withTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func querier(ctx context.Context, db *sqlx.DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

// Advisory lock namespaces. The id is hashed server-side so arbitrary string
// ids map onto the bigint advisory space.
const (
	lockNamespaceClass   = 1
	lockNamespaceStudent = 2
)

// AtomicRunner executes a function inside a transaction holding advisory
// locks. Every read-modify-write of a ledger invariant goes through one of
// its scopes: class scope for capacity-affecting operations, student scope
// for suspension and duplicate-enrollment checks.
//
// Lock waits are bounded by lock_timeout; exceeding it (or losing a
// serialization race) surfaces as Conflict for the caller to retry.
type AtomicRunner struct {
	db          *sqlx.DB
	lockTimeout string
}

// NewAtomicRunner constructs the runner from rule config.
func NewAtomicRunner(db *sqlx.DB, rules config.RulesConfig) *AtomicRunner {
	return &AtomicRunner{
		db:          db,
		lockTimeout: fmt.Sprintf("%dms", rules.LockTimeout.Milliseconds()),
	}
}

// ClassScope serializes capacity-affecting work for one class.
func (r *AtomicRunner) ClassScope(ctx context.Context, classID string, fn func(ctx context.Context) error) error {
	return r.run(ctx, fn, lockArg{lockNamespaceClass, classID})
}

// StudentScope serializes suspension-gate work for one student.
func (r *AtomicRunner) StudentScope(ctx context.Context, studentID string, fn func(ctx context.Context) error) error {
	return r.run(ctx, fn, lockArg{lockNamespaceStudent, studentID})
}

// EnrollmentScope serializes work touching both a class's capacity and a
// student's state. Locks are always taken class first, then student, so two
// concurrent operations can never deadlock on each other.
func (r *AtomicRunner) EnrollmentScope(ctx context.Context, classID, studentID string, fn func(ctx context.Context) error) error {
	return r.run(ctx, fn, lockArg{lockNamespaceClass, classID}, lockArg{lockNamespaceStudent, studentID})
}

type lockArg struct {
	namespace int
	id        string
}

func (r *AtomicRunner) run(ctx context.Context, fn func(ctx context.Context) error, locks ...lockArg) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%s'", r.lockTimeout)); err != nil {
		return fmt.Errorf("set lock timeout: %w", err)
	}
	for _, l := range locks {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1, hashtext($2))", l.namespace, l.id); err != nil {
			return translateLockErr(err)
		}
	}

	if err := fn(withTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return translateLockErr(err)
	}
	return nil
}

func translateLockErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "55P03", "40001", "40P01": // lock_not_available, serialization_failure, deadlock_detected
			return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "lost a concurrent update, retry")
		}
	}
	return fmt.Errorf("tx: %w", err)
}
