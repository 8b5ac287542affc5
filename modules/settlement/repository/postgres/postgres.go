package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/sponsornet/settlement-engine/internal/postgres"
	"github.com/sponsornet/settlement-engine/modules/settlement/datagateway"
)

// Repository implements datagateway.SettlementDataGateway on postgres.
type Repository struct {
	db postgres.Queryable

	root postgres.TxQueryable
	tx   pgx.Tx
}

var _ datagateway.SettlementDataGatewayWithTx = (*Repository)(nil)

func NewRepository(db postgres.DB) *Repository {
	return &Repository{db: db, root: db}
}

func (r *Repository) BeginSettlementTx(ctx context.Context) (datagateway.SettlementDataGatewayWithTx, error) {
	if r.root == nil {
		return nil, errors.New("nested transactions are not supported")
	}
	tx, err := r.root.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	return &Repository{db: tx, tx: tx}, nil
}

func (r *Repository) Commit(ctx context.Context) error {
	if r.tx == nil {
		return nil
	}
	if err := r.tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	r.tx = nil
	return nil
}

func (r *Repository) Rollback(ctx context.Context) error {
	if r.tx == nil {
		return nil
	}
	err := r.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return errors.Wrap(err, "failed to rollback transaction")
	}
	r.tx = nil
	return nil
}
