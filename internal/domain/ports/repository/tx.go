package repository

import (
	"context"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside a database transaction and passes the
// backend's handle as tx. Repositories accept it through their `tx Tx`
// parameter and fall back to the pool when it is nil.
//
// USAGE
// tm.WithTx(ctx, func(ctx context.Context, tx Tx) error {
// p, err := persons.FindByChatID(ctx, tx, id)
// ...
// return persons.Create(ctx, tx, p)
// })
type TransactionManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
