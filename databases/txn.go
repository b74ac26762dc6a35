package databases

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// runInTransaction runs fn in a session transaction. Standalone servers reject
// the first transactional write, so fn never commits anything there and is
// simply run again without a session.
func runInTransaction(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) error {
	session, err := client.StartSession()
	if err != nil {
		if IsTransactionNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(WithinTransaction(sc))
	})
	if err != nil && IsTransactionNotSupported(err) {
		zap.S().Warnw("transactions not supported, running without one", "error", err)
		return fn(ctx)
	}
	return err
}

type txKey struct{}

// WithinTransaction marks ctx as running inside a transaction that rolls back
// every write made through it when the body fails
func WithinTransaction(ctx context.Context) context.Context {
	return context.WithValue(ctx, txKey{}, true)
}

// InTransaction reports whether ctx was handed out by a running transaction.
// It is false on the sequential fallback.
func InTransaction(ctx context.Context) bool {
	in, _ := ctx.Value(txKey{}).(bool)
	return in
}

// IsTransactionNotSupported reports whether err means the deployment cannot
// run multi-document transactions (standalone server, old version).
func IsTransactionNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "transaction") && strings.Contains(msg, "replica set"):
		return true
	case strings.Contains(msg, "session") && strings.Contains(msg, "not supported"):
		return true
	}
	return false
}

// IsDuplicateKey reports whether err is a unique index violation
func IsDuplicateKey(err error) bool {
	return err != nil && mongo.IsDuplicateKeyError(err)
}

// IsNoDocuments reports whether err means a lookup matched nothing
func IsNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
