package fiscal

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain"
	"github.com/jovemegidio/zyntra-fiscal/internal/domain/entity"
	"github.com/jovemegidio/zyntra-fiscal/internal/domain/repository"
	infranfe "github.com/jovemegidio/zyntra-fiscal/internal/infrastructure/nfe"
	"github.com/jovemegidio/zyntra-fiscal/internal/infrastructure/sefaz"
)

// Cancelar registra o evento de cancelamento de uma nota autorizada.
//
// Invariantes: a nota precisa estar AUTORIZADA e dentro da janela legal de 24
// horas; a justificativa tem 15..255 caracteres. A releitura com FOR UPDATE
// dentro da transação impede dois cancelamentos (ou cancelamento + correção)
// concorrentes sobre a mesma nota.
func (s *Service) Cancelar(ctx context.Context, notaID, justificativa string) (*entity.EventoFiscal, error) {
	if err := validarTexto(justificativa, JustificativaMin, JustificativaMax, "justificativa"); err != nil {
		return nil, err
	}

	evento, xmlAssinado, err := s.prepararEvento(ctx, notaID, entity.EventoCancelamento, justificativa)
	if err != nil {
		return nil, err
	}
	return s.submeterEvento(ctx, evento, xmlAssinado)
}

// CorrigirNota registra uma carta de correção eletrônica (CC-e). A correção
// tem 15..1000 caracteres e só se aplica a nota AUTORIZADA; a sequência por
// nota é estritamente crescente e cada CC-e substitui a anterior.
func (s *Service) CorrigirNota(ctx context.Context, notaID, correcao string) (*entity.EventoFiscal, error) {
	if err := validarTexto(correcao, JustificativaMin, CorrecaoMax, "correção"); err != nil {
		return nil, err
	}

	evento, xmlAssinado, err := s.prepararEvento(ctx, notaID, entity.EventoCartaCorrecao, correcao)
	if err != nil {
		return nil, err
	}
	return s.submeterEvento(ctx, evento, xmlAssinado)
}

// ListarEventos devolve os eventos registrados de uma nota.
func (s *Service) ListarEventos(ctx context.Context, notaID string) ([]entity.EventoFiscal, error) {
	nota, err := s.notas.GetByID(ctx, notaID)
	if _, err = notaObrigatoria(nota, err, notaID); err != nil {
		return nil, err
	}
	return s.eventos.ListByNota(ctx, notaID)
}

// ListarFlagrados devolve os eventos cujo desfecho na SEFAZ não pôde ser
// persistido, para reconciliação manual ou por rotina.
func (s *Service) ListarFlagrados(ctx context.Context) ([]entity.EventoFiscal, error) {
	return s.eventos.ListFlagrados(ctx)
}

// prepararEvento roda a transação 1 do fluxo de evento: relê a nota com lock
// de linha, valida o estado, aloca a sequência, monta e assina o XML e
// persiste o evento PENDENTE.
func (s *Service) prepararEvento(ctx context.Context, notaID, tipo, texto string) (*entity.EventoFiscal, []byte, error) {
	var evento *entity.EventoFiscal
	var xmlAssinado []byte

	err := s.tx.Run(ctx, func(
		notaRepo repository.NotaFiscalRepository,
		eventoRepo repository.EventoRepository,
		_ repository.NumeracaoRepository,
	) error {
		nota, err := notaRepo.GetByIDForUpdate(ctx, notaID)
		if nota, err = notaObrigatoria(nota, err, notaID); err != nil {
			return err
		}
		agora := s.agora()

		switch tipo {
		case entity.EventoCancelamento:
			if !nota.PodeCancelar(agora, JanelaCancelamento) {
				return fmt.Errorf("%w: nota %s não admite cancelamento (status %s)",
					domain.ErrEstadoInvalido, notaID, nota.Status)
			}
		case entity.EventoCartaCorrecao:
			if nota.Status != entity.StatusAutorizada {
				return fmt.Errorf("%w: carta de correção exige nota autorizada (status %s)",
					domain.ErrEstadoInvalido, nota.Status)
			}
		}

		seq, err := eventoRepo.ProximaSequencia(ctx, notaID, tipo)
		if err != nil {
			return err
		}

		xmlEvento, err := infranfe.MontarXMLEvento(infranfe.DadosEvento{
			ChaveAcesso: nota.ChaveAcesso,
			CNPJ:        nota.Emitente.CNPJ,
			UF:          nota.Emitente.UF,
			Ambiente:    s.cfg.Ambiente,
			Tipo:        tipo,
			Sequencia:   seq,
			Texto:       texto,
			Protocolo:   nota.Protocolo,
			Momento:     agora,
			Lote:        nota.Numero,
		})
		if err != nil {
			return err
		}
		xmlAssinado, err = s.assinar(xmlEvento, "infEvento")
		if err != nil {
			return err
		}

		evento = &entity.EventoFiscal{
			ID:            uuid.New().String(),
			NotaID:        notaID,
			Tipo:          tipo,
			Sequencia:     seq,
			Justificativa: texto,
			Situacao:      entity.EventoPendente,
			XMLEnviado:    string(xmlAssinado),
			CriadoEm:      agora,
		}
		return eventoRepo.Create(ctx, evento)
	})
	if err != nil {
		return nil, nil, err
	}
	return evento, xmlAssinado, nil
}

// submeterEvento envia o evento à SEFAZ e registra o desfecho. Se o desfecho
// chegar mas não puder ser persistido, o evento é marcado FLAGRADO: a
// inconsistência fica visível para reconciliação em vez de sumir.
func (s *Service) submeterEvento(ctx context.Context, evento *entity.EventoFiscal, xmlAssinado []byte) (*entity.EventoFiscal, error) {
	ret, err := s.sefaz.EnviarEvento(ctx, xmlAssinado)
	if err != nil {
		s.log.Error().Err(err).
			Str("evento_id", evento.ID).
			Str("tipo", evento.Tipo).
			Msg("envio de evento à SEFAZ falhou")
		return evento, err
	}

	evento.CodigoSefaz = ret.CStat
	evento.MotivoSefaz = ret.XMotivo
	evento.Protocolo = ret.Protocolo
	if ret.EventoHomologado() {
		evento.Situacao = entity.EventoHomologado
	} else {
		evento.Situacao = entity.EventoRejeitado
	}

	err = s.tx.Run(ctx, func(
		notaRepo repository.NotaFiscalRepository,
		eventoRepo repository.EventoRepository,
		_ repository.NumeracaoRepository,
	) error {
		if err := eventoRepo.Update(ctx, evento); err != nil {
			return err
		}
		// Cancelamento homologado transiciona a nota.
		if evento.Tipo == entity.EventoCancelamento && evento.Situacao == entity.EventoHomologado {
			nota, err := notaRepo.GetByIDForUpdate(ctx, evento.NotaID)
			if nota, err = notaObrigatoria(nota, err, evento.NotaID); err != nil {
				return err
			}
			nota.Status = entity.StatusCancelada
			nota.AtualizadaEm = s.agora()
			return notaRepo.UpdateDesfecho(ctx, nota)
		}
		return nil
	})
	if err != nil {
		s.flagrarEvento(ctx, evento, err)
		return evento, fmt.Errorf("persistir desfecho do evento %s: %w", evento.ID, err)
	}

	s.log.Info().
		Str("evento_id", evento.ID).
		Str("tipo", evento.Tipo).
		Str("situacao", evento.Situacao).
		Str("cstat", evento.CodigoSefaz).
		Msg("evento processado")
	return evento, nil
}

// flagrarEvento marca, em melhor esforço, o evento como FLAGRADO quando a
// SEFAZ respondeu mas a persistência do desfecho falhou.
func (s *Service) flagrarEvento(ctx context.Context, evento *entity.EventoFiscal, causa error) {
	s.log.Error().Err(causa).
		Str("evento_id", evento.ID).
		Str("cstat", evento.CodigoSefaz).
		Msg("desfecho do evento recebido da SEFAZ mas não persistido, flagrando")

	flagrado := *evento
	flagrado.Situacao = entity.EventoFlagrado
	if err := s.eventos.Update(ctx, &flagrado); err != nil {
		s.log.Error().Err(err).
			Str("evento_id", evento.ID).
			Msg("não foi possível nem flagrar o evento; reconciliar manualmente")
	}
}

func validarTexto(texto string, min, max int, campo string) error {
	n := utf8.RuneCountInString(texto)
	if n < min || n > max {
		return fmt.Errorf("%w: %s deve ter entre %d e %d caracteres (tem %d)",
			domain.ErrEntradaInvalida, campo, min, max, n)
	}
	return nil
}

// StatusServico expõe a consulta de disponibilidade do autorizador.
func (s *Service) StatusServico(ctx context.Context) (*sefaz.Retorno, error) {
	return s.sefaz.StatusServico(ctx)
}
