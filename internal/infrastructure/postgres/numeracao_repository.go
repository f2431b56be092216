package postgres

import (
	"context"
	"fmt"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain/repository"
)

var _ repository.NumeracaoRepository = (*NumeracaoRepo)(nil)

// NumeracaoRepo coordenador de numeração. Construir SEMPRE sobre a transação
// (via TxRunner), nunca sobre o pool: o lock advisório é transacional e precisa
// viver até o commit da criação da nota.
type NumeracaoRepo struct {
	q Querier
}

// NewNumeracaoRepository constrói o coordenador atado à tx corrente.
func NewNumeracaoRepository(q Querier) *NumeracaoRepo {
	return &NumeracaoRepo{q: q}
}

// ProximoNumero aloca o próximo número da série sob lock.
//
//  1. pg_advisory_xact_lock serializa alocações concorrentes da mesma
//     (série, modelo); o lock é liberado automaticamente no commit/rollback
//     da transação envolvente.
//  2. Com o lock retido, lê o máximo já consumido em TODAS as fontes de
//     numeração: notas emitidas e o teto das faixas inutilizadas.
//
// Sem cache: a leitura acontece fresca a cada alocação.
func (r *NumeracaoRepo) ProximoNumero(ctx context.Context, serie int, modelo string) (int64, error) {
	const lockQ = `SELECT pg_advisory_xact_lock(hashtext('nfe_numeracao_' || $1::text || '_' || $2))`
	if _, err := r.q.Exec(ctx, lockQ, serie, modelo); err != nil {
		return 0, fmt.Errorf("lock de numeração (série %d): %w", serie, err)
	}

	const maxQ = `
		SELECT GREATEST(
			COALESCE((SELECT MAX(numero) FROM notas_fiscais WHERE serie = $1 AND modelo = $2), 0),
			COALESCE((SELECT MAX(numero_final) FROM eventos_fiscais
			          WHERE tipo = 'INUT' AND serie = $1 AND modelo = $2 AND situacao = 'HOMOLOGADO'), 0)
		)`
	var maximo int64
	if err := r.q.QueryRow(ctx, maxQ, serie, modelo).Scan(&maximo); err != nil {
		return 0, fmt.Errorf("ler máximo da série %d: %w", serie, err)
	}

	proximo := maximo + 1
	if proximo > 999_999_999 {
		return 0, fmt.Errorf("série %d esgotada (número excederia 9 dígitos)", serie)
	}
	return proximo, nil
}
