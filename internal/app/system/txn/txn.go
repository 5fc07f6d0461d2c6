// Package txn wraps multi-document MongoDB transactions with detection for
// deployments that cannot run them (standalone servers, some DocumentDB
// versions). Callers check IsNotSupported on the returned error and fall
// back to a non-transactional path.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// WithTransaction runs fn inside a multi-document transaction. The context
// passed to fn is a session context; every store call inside fn must use it
// for the writes to commit or abort together.
func WithTransaction(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) error {
	sess, err := client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// Server error codes that indicate transactions are unavailable rather than
// that this particular transaction failed.
var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation (standalone server)
	51:  true, // no such command / illegal operation variants
	263: true, // OperationNotSupportedInTransaction
}

// IsNotSupported reports whether err means the deployment cannot run
// transactions at all (as opposed to a conflict or transient failure).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return notSupportedCodes[ce.Code]
	}

	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "transaction") && strings.Contains(s, "replica set"):
		return true
	case strings.Contains(s, "session") && strings.Contains(s, "not supported"):
		return true
	case strings.Contains(s, "transaction") && strings.Contains(s, "session"):
		return true
	case strings.Contains(s, "illegal operation") && strings.Contains(s, "transaction"):
		return true
	}
	return false
}
