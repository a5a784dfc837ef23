// Package txn runs multi-document work inside a MongoDB transaction when the
// deployment supports one, and falls back to running the work directly when
// it does not (standalone servers in dev and CI).
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a transaction. The session context is passed to fn
// as a plain context.Context so store code does not need to know whether it
// is running transactionally.
//
// If the server does not support transactions (not a replica set), fn is
// re-run outside a transaction. Callers must design fn so that a partial
// failure in the fallback path is tolerable: unique indexes guard the
// critical invariants regardless.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			log.Warn("transactions unavailable; running without one", zap.Error(err))
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		log.Warn("transactions unavailable; running without one", zap.Error(err))
		return fn(ctx)
	}
	return err
}

// Error codes MongoDB returns when transactions cannot be used:
// 20 IllegalOperation, 51 TransactionsNotSupported (older servers),
// 263 OperationNotSupportedInTransaction.
var notSupportedCodes = map[int32]bool{20: true, 51: true, 263: true}

// IsNotSupported reports whether err indicates that the server cannot run
// transactions, as opposed to a transaction that failed for another reason.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return notSupportedCodes[cmdErr.Code]
	}

	msg := strings.ToLower(err.Error())
	pairs := [][2]string{
		{"transaction", "replica set"},
		{"session", "not supported"},
		{"transaction", "session"},
		{"illegal operation", "transaction"},
	}
	for _, p := range pairs {
		if strings.Contains(msg, p[0]) && strings.Contains(msg, p[1]) {
			return true
		}
	}
	return false
}
