package fiscal

import (
	"context"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain/entity"
	domfiscal "github.com/jovemegidio/zyntra-fiscal/internal/domain/fiscal"
)

// NotaCompleta nota com itens e eventos, para consulta.
type NotaCompleta struct {
	Nota    *entity.NotaFiscal
	Itens   []entity.NotaItem
	Eventos []entity.EventoFiscal
}

// ConsultarNota devolve a nota com itens e eventos. Confere os totais
// persistidos contra a soma dos itens e loga divergência (corrupção ou escrita
// fora do motor de cálculo), sem bloquear a leitura.
func (s *Service) ConsultarNota(ctx context.Context, notaID string) (*NotaCompleta, error) {
	nota, err := s.notas.GetByID(ctx, notaID)
	if nota, err = notaObrigatoria(nota, err, notaID); err != nil {
		return nil, err
	}
	itens, err := s.notas.GetItens(ctx, notaID)
	if err != nil {
		return nil, err
	}
	eventos, err := s.eventos.ListByNota(ctx, notaID)
	if err != nil {
		return nil, err
	}

	if len(itens) > 0 {
		if err := domfiscal.ConferirTotais(nota, itens); err != nil {
			s.log.Error().Err(err).
				Str("nota_id", notaID).
				Msg("totais da nota divergem da soma dos itens")
		}
	}
	return &NotaCompleta{Nota: nota, Itens: itens, Eventos: eventos}, nil
}

// ConsultarPorChave localiza a nota pela chave de acesso.
func (s *Service) ConsultarPorChave(ctx context.Context, chave string) (*NotaCompleta, error) {
	nota, err := s.notas.GetByChave(ctx, chave)
	if nota, err = notaObrigatoria(nota, err, chave); err != nil {
		return nil, err
	}
	return s.ConsultarNota(ctx, nota.ID)
}
