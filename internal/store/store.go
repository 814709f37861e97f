// Package store is the thin transactional façade over the property-graph
// backend: parameterized Cypher, retry on transient conflicts, schema
// bootstrap. No component outside this package issues a query directly
// against the Neo4j driver.
package store

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"substrate/domain/apperr"
)

// Store wraps a neo4j driver with retry, circuit breaking, and a narrow
// Run/Tx surface. Callers never see a *neo4j.DriverWithContext directly.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	log      *zap.Logger
	breaker  *gobreaker.CircuitBreaker
}

// Config holds the connection parameters for New.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

func New(ctx context.Context, cfg Config, log *zap.Logger) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, apperr.Unavailable("could not construct neo4j driver: " + err.Error())
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, apperr.Unavailable("neo4j connectivity check failed: " + err.Error())
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "neo4j-store",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 8
		},
	})
	return &Store{driver: driver, database: cfg.Database, log: log, breaker: breaker}, nil
}

// Close releases the driver's connection pool. Call once on process shutdown.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// TxWork is the unit of work passed to Tx; it runs inside one managed
// transaction and its return value is passed back to the caller verbatim.
type TxWork func(tx neo4j.ManagedTransaction) (any, error)

// retryPolicy: 3 attempts, 100ms initial backoff, doubling, 0–20% added jitter.
const (
	maxAttempts     = 3
	initialBackoff  = 100 * time.Millisecond
)

// Tx runs work inside a write transaction, retrying transient errors with
// exponential backoff. Constraint violations and other non-transient errors
// are not retried — they are surfaced to the caller immediately. An open
// circuit breaker is retried like a transient error.
func (s *Store) Tx(ctx context.Context, work TxWork) (any, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	var result any
	backoff := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, apperr.Canceled("context canceled before transaction attempt")
		}
		out, err := s.breaker.Execute(func() (any, error) {
			return session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
				return work(tx)
			})
		})
		if err == nil {
			result = out
			lastErr = nil
			break
		}
		lastErr = err
		if !isTransient(err) {
			break
		}
		if attempt == maxAttempts {
			break
		}
		jitter := time.Duration(rand.Int63n(int64(backoff) / 5))
		time.Sleep(backoff + jitter)
		backoff *= 2
	}
	if lastErr != nil {
		return nil, classify(lastErr)
	}
	return result, nil
}

// Read runs work inside a read transaction. No retry: reads are safe to
// re-issue at the caller's discretion and component code generally prefers
// to fail fast on a read-side transient error.
func (s *Store) Read(ctx context.Context, work TxWork) (any, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)
	out, err := s.breaker.Execute(func() (any, error) {
		return session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			return work(tx)
		})
	})
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func isTransient(err error) bool {
	var ne *neo4j.Neo4jError
	if errors.As(err, &ne) {
		return ne.Code == "Neo.TransientError.Transaction.DeadlockDetected" ||
			ne.Code == "Neo.TransientError.Transaction.LockClientStopped" ||
			ne.Code == "Neo.TransientError.General.OutOfMemoryError"
	}
	return errors.Is(err, gobreaker.ErrOpenState)
}

func classify(err error) error {
	var ne *neo4j.Neo4jError
	if errors.As(err, &ne) {
		switch {
		case ne.Code == "Neo.ClientError.Schema.ConstraintValidationFailed":
			return apperr.ConflictField("constraint violated", "")
		case ne.Classification() == "ClientError":
			return apperr.Invalid(ne.Msg)
		}
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperr.Unavailable("store circuit breaker open: " + err.Error())
	}
	return apperr.Unavailable("store unavailable: " + err.Error())
}
