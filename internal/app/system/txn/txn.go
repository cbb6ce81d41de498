// Package txn runs groups of document store writes in a MongoDB transaction,
// falling back to plain execution on deployments that cannot run one
// (standalone servers, DocumentDB without a replica set).
//
//	err := txn.Run(ctx, db, logger, func(ctx context.Context) error {
//	    if err := dashboards.Delete(ctx, id); err != nil {
//	        return err
//	    }
//	    return deployments.Remove(ctx, id)
//	})
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Func is the unit of work passed to Run.
// The function receives a context that is a mongo.SessionContext when a
// transaction is running, or the caller's context in the fallback path.
// Every store call inside fn must use that context, otherwise the write
// escapes the transaction.
type Func func(ctx context.Context) error

// Run executes fn within a MongoDB transaction if possible. If the
// deployment cannot run one (standalone server, DocumentDB without a replica
// set), fn runs once more without a transaction.
//
// Parameters:
//   - ctx: parent context for the operation
//   - db: database whose client starts the session
//   - log: logger for fallback warnings (nil suppresses them)
//   - fn: the writes to run atomically
//
// Returns fn's error, or the commit error. WithTransaction retries fn on
// transient transaction errors, so fn must be safe to run more than once.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn Func) error {
	client := db.Client()

	session, err := client.StartSession()
	if err != nil {
		if log != nil {
			log.Warn("failed to start session, running without transaction",
				zap.Error(err))
		}
		return fn(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})

	if err != nil {
		if IsNotSupported(err) {
			if log != nil {
				log.Warn("transactions not supported, running without transaction",
					zap.Error(err))
			}
			return fn(ctx)
		}
		return err
	}

	return nil
}

// notSupportedCodes are server codes meaning no multi-document transaction
// can run here: 20 (not a replica set member), 51 (IllegalOperation) and
// 263 (operation not allowed in a transaction).
var notSupportedCodes = map[int32]bool{20: true, 51: true, 263: true}

// notSupportedWords catch DocumentDB and older server messages without a code.
var notSupportedWords = []string{"transaction", "replica set", "session", "not supported", "illegal operation"}

// IsNotSupported reports whether err means the deployment cannot run
// transactions. Message matching needs two keywords to avoid false positives.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && notSupportedCodes[cmdErr.Code] {
		return true
	}

	msg := strings.ToLower(err.Error())
	hits := 0
	for _, w := range notSupportedWords {
		if strings.Contains(msg, w) {
			hits++
		}
	}
	return hits >= 2
}
