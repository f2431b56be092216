package repository

import (
	"context"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain/entity"
)

// NotaFiscalRepository porta de persistência da NFe e seus itens.
type NotaFiscalRepository interface {
	Create(ctx context.Context, nota *entity.NotaFiscal) error
	CreateItem(ctx context.Context, item *entity.NotaItem) error
	GetByID(ctx context.Context, id string) (*entity.NotaFiscal, error)
	// GetByIDForUpdate relê a nota com lock de linha (FOR UPDATE); deve rodar
	// dentro de transação. Usado por cancelamento/correção para impedir dois
	// eventos conflitantes concorrentes.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.NotaFiscal, error)
	GetByChave(ctx context.Context, chave string) (*entity.NotaFiscal, error)
	GetItens(ctx context.Context, notaID string) ([]entity.NotaItem, error)
	// UpdateDesfecho grava o resultado da submissão (status, protocolo,
	// rejeição, XML autorizado). A nota nunca é removida: registro append-only.
	UpdateDesfecho(ctx context.Context, nota *entity.NotaFiscal) error
}
