package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle threaded through repository calls.
// Repositories must accept nil (non-transactional path); the concrete
// type is infra-defined (pgx.Tx for Postgres).
type Tx interface{}

// NoTX marks call sites that deliberately run outside a transaction.
var NoTX Tx

// TransactionManager executes fn inside a database transaction, passing
// the handle via tx. Keeps transaction types out of use-case
// signatures while still letting repositories run tx-bound statements.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
