package fiscal

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain"
	"github.com/jovemegidio/zyntra-fiscal/internal/domain/entity"
	"github.com/jovemegidio/zyntra-fiscal/internal/domain/repository"
	infranfe "github.com/jovemegidio/zyntra-fiscal/internal/infrastructure/nfe"
	"github.com/jovemegidio/zyntra-fiscal/internal/infrastructure/sefaz"
)

// PedidoInutilizacao faixa de numeração a inutilizar numa série.
type PedidoInutilizacao struct {
	Serie         int
	NumeroInicial int64
	NumeroFinal   int64
	Justificativa string
}

// Inutilizar declara à SEFAZ que uma faixa de números da série nunca será
// usada (quebra de sequência assumida formalmente). Faixa máxima de 1000
// números por pedido; justificativa de 15..255 caracteres.
//
// A faixa homologada entra nas fontes de numeração: a próxima emissão da série
// pula para depois de NumeroFinal.
func (s *Service) Inutilizar(ctx context.Context, pedido PedidoInutilizacao) (*entity.EventoFiscal, error) {
	if err := validarTexto(pedido.Justificativa, JustificativaMin, JustificativaMax, "justificativa"); err != nil {
		return nil, err
	}
	if pedido.NumeroInicial < 1 || pedido.NumeroFinal < pedido.NumeroInicial {
		return nil, fmt.Errorf("%w: faixa de inutilização inválida %d..%d",
			domain.ErrEntradaInvalida, pedido.NumeroInicial, pedido.NumeroFinal)
	}
	if pedido.NumeroFinal-pedido.NumeroInicial+1 > MaxFaixaInutilizacao {
		return nil, fmt.Errorf("%w: faixa de inutilização excede %d números",
			domain.ErrEntradaInvalida, MaxFaixaInutilizacao)
	}
	if pedido.Serie < 1 || pedido.Serie > 999 {
		return nil, fmt.Errorf("%w: série fora do intervalo 1..999: %d",
			domain.ErrEntradaInvalida, pedido.Serie)
	}

	agora := s.agora()
	xmlInut, err := infranfe.MontarXMLInutilizacao(infranfe.DadosInutilizacao{
		UF:            s.cfg.UF,
		Ambiente:      s.cfg.Ambiente,
		Ano:           agora.Year(),
		CNPJ:          s.cfg.CNPJ,
		Modelo:        s.cfg.Modelo,
		Serie:         pedido.Serie,
		NumeroInicial: pedido.NumeroInicial,
		NumeroFinal:   pedido.NumeroFinal,
		Justificativa: pedido.Justificativa,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEntradaInvalida, err)
	}
	xmlAssinado, err := s.assinar(xmlInut, "infInut")
	if err != nil {
		return nil, err
	}

	evento := &entity.EventoFiscal{
		ID:            uuid.New().String(),
		Tipo:          entity.EventoInutilizacao,
		Sequencia:     1,
		Justificativa: pedido.Justificativa,
		Serie:         pedido.Serie,
		Modelo:        s.cfg.Modelo,
		NumeroInicial: pedido.NumeroInicial,
		NumeroFinal:   pedido.NumeroFinal,
		Situacao:      entity.EventoPendente,
		XMLEnviado:    string(xmlAssinado),
		CriadoEm:      agora,
	}

	// Transação 1: registra o pedido antes de qualquer rede. Sob o mesmo lock
	// de numeração da emissão, para a faixa não colidir com uma nota sendo
	// criada ao mesmo tempo.
	err = s.tx.Run(ctx, func(
		_ repository.NotaFiscalRepository,
		eventoRepo repository.EventoRepository,
		numeracaoRepo repository.NumeracaoRepository,
	) error {
		proximo, err := numeracaoRepo.ProximoNumero(ctx, pedido.Serie, s.cfg.Modelo)
		if err != nil {
			return err
		}
		if pedido.NumeroInicial < proximo {
			return fmt.Errorf("%w: faixa %d..%d colide com numeração já consumida (próximo número: %d)",
				domain.ErrConflito, pedido.NumeroInicial, pedido.NumeroFinal, proximo)
		}
		return eventoRepo.Create(ctx, evento)
	})
	if err != nil {
		return nil, err
	}

	ret, err := s.sefaz.Inutilizar(ctx, xmlAssinado)
	if err != nil {
		s.log.Error().Err(err).
			Str("evento_id", evento.ID).
			Msg("pedido de inutilização falhou no transporte")
		return evento, err
	}

	evento.CodigoSefaz = ret.CStat
	evento.MotivoSefaz = ret.XMotivo
	evento.Protocolo = ret.Protocolo
	if ret.CStat == sefaz.CStatInutilizado {
		evento.Situacao = entity.EventoHomologado
	} else {
		evento.Situacao = entity.EventoRejeitado
	}

	err = s.tx.Run(ctx, func(
		_ repository.NotaFiscalRepository,
		eventoRepo repository.EventoRepository,
		_ repository.NumeracaoRepository,
	) error {
		return eventoRepo.Update(ctx, evento)
	})
	if err != nil {
		s.flagrarEvento(ctx, evento, err)
		return evento, fmt.Errorf("persistir desfecho da inutilização %s: %w", evento.ID, err)
	}

	s.log.Info().
		Str("evento_id", evento.ID).
		Int("serie", evento.Serie).
		Int64("inicio", evento.NumeroInicial).
		Int64("fim", evento.NumeroFinal).
		Str("situacao", evento.Situacao).
		Msg("inutilização processada")
	return evento, nil
}
