package fiscal

import (
	"context"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain/repository"
)

// TxRunner executa um callback com repositórios fiscais atados a uma mesma
// transação. É a porta que permite à emissão manter alocação de número e
// criação da nota sob o mesmo lock transacional.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		notaRepo repository.NotaFiscalRepository,
		eventoRepo repository.EventoRepository,
		numeracaoRepo repository.NumeracaoRepository,
	) error) error
}
