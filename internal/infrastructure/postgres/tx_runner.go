package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jovemegidio/zyntra-fiscal/internal/application/fiscal"
	"github.com/jovemegidio/zyntra-fiscal/internal/domain/repository"
)

var _ fiscal.TxRunner = (*TxRunner)(nil)

// TxRunner executa callbacks dentro de uma transação PostgreSQL com
// repositórios atados à tx. É o que garante que alocação de número e criação
// da nota compartilham a mesma transação (e o mesmo lock).
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner constrói o runner com o pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia a transação, executa fn com os repos fiscais atados à tx e faz
// Commit ou Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	notaRepo repository.NotaFiscalRepository,
	eventoRepo repository.EventoRepository,
	numeracaoRepo repository.NumeracaoRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	notaRepo := NewNotaFiscalRepository(tx)
	eventoRepo := NewEventoRepository(tx)
	numeracaoRepo := NewNumeracaoRepository(tx)

	if err := fn(notaRepo, eventoRepo, numeracaoRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
