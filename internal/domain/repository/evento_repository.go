package repository

import (
	"context"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain/entity"
)

// EventoRepository porta de persistência de eventos fiscais (cancelamento,
// carta de correção, inutilização).
type EventoRepository interface {
	Create(ctx context.Context, ev *entity.EventoFiscal) error
	Update(ctx context.Context, ev *entity.EventoFiscal) error
	// ProximaSequencia devolve o próximo número de sequência para (nota, tipo),
	// estritamente crescente. Deve rodar sob a mesma transação que o insert.
	ProximaSequencia(ctx context.Context, notaID, tipo string) (int, error)
	ListByNota(ctx context.Context, notaID string) ([]entity.EventoFiscal, error)
	// ListFlagrados lista eventos com desfecho não registrado, para reconciliação.
	ListFlagrados(ctx context.Context) ([]entity.EventoFiscal, error)
}
