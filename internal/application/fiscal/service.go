// Package fiscal orquestra o ciclo de vida da NFe: emissão, consulta de lote,
// cancelamento, carta de correção e inutilização de faixa. O serviço coordena
// os passos; cálculo e montagem de documento ficam no domínio e na
// infraestrutura.
package fiscal

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain"
	"github.com/jovemegidio/zyntra-fiscal/internal/domain/entity"
	"github.com/jovemegidio/zyntra-fiscal/internal/domain/repository"
	"github.com/jovemegidio/zyntra-fiscal/internal/infrastructure/sefaz"
	"github.com/jovemegidio/zyntra-fiscal/pkg/config"
	pkgnfe "github.com/jovemegidio/zyntra-fiscal/pkg/nfe"
)

// JanelaCancelamento prazo legal para cancelar uma NFe autorizada.
const JanelaCancelamento = 24 * time.Hour

// Limites de justificativa e correção.
const (
	JustificativaMin = 15
	JustificativaMax = 255
	CorrecaoMax      = 1000
)

// MaxFaixaInutilizacao tamanho máximo da faixa aceita num pedido de
// inutilização.
const MaxFaixaInutilizacao = 1000

// Service casos de uso fiscais. Leituras fora de transação usam os
// repositórios atados ao pool; escritas com invariantes de concorrência passam
// pelo TxRunner.
type Service struct {
	log zerolog.Logger

	cfg    config.NFeConfig
	appEnv string

	tx      TxRunner
	notas   repository.NotaFiscalRepository
	eventos repository.EventoRepository

	assinador pkgnfe.Assinador
	sefaz     sefaz.Submissor

	// agora é injetável nos testes de janela de cancelamento.
	agora func() time.Time
}

// NewService constrói o serviço fiscal com as dependências injetadas.
func NewService(
	log zerolog.Logger,
	cfg config.NFeConfig,
	appEnv string,
	tx TxRunner,
	notas repository.NotaFiscalRepository,
	eventos repository.EventoRepository,
	assinador pkgnfe.Assinador,
	submissor sefaz.Submissor,
) *Service {
	return &Service{
		log:       log.With().Str("componente", "fiscal").Logger(),
		cfg:       cfg,
		appEnv:    appEnv,
		tx:        tx,
		notas:     notas,
		eventos:   eventos,
		assinador: assinador,
		sefaz:     submissor,
		agora:     time.Now,
	}
}

func (s *Service) producao() bool {
	return s.cfg.Ambiente == pkgnfe.AmbienteProducao
}

// notaObrigatoria normaliza o contrato de leitura dos repositórios: linha
// ausente pode vir como (nil, nil) e precisa virar ErrNaoEncontrado antes de
// qualquer acesso à nota.
func notaObrigatoria(nota *entity.NotaFiscal, err error, ref string) (*entity.NotaFiscal, error) {
	if err != nil {
		return nil, err
	}
	if nota == nil {
		return nil, fmt.Errorf("%w: nota %s", domain.ErrNaoEncontrado, ref)
	}
	return nota, nil
}
