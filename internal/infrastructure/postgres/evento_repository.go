package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain/entity"
	"github.com/jovemegidio/zyntra-fiscal/internal/domain/repository"
)

var _ repository.EventoRepository = (*EventoRepo)(nil)

// EventoRepo implementação de EventoRepository (usável com pool ou tx).
type EventoRepo struct {
	q Querier
}

// NewEventoRepository constrói o adaptador.
func NewEventoRepository(q Querier) *EventoRepo {
	return &EventoRepo{q: q}
}

// Create persiste o evento fiscal.
func (r *EventoRepo) Create(ctx context.Context, ev *entity.EventoFiscal) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO eventos_fiscais
			(id, nota_id, tipo, sequencia, justificativa,
			 serie, modelo, numero_inicial, numero_final,
			 situacao, protocolo, codigo_sefaz, motivo_sefaz, xml_enviado, criado_em)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		ev.ID, nullIfEmpty(ev.NotaID), ev.Tipo, ev.Sequencia, ev.Justificativa,
		ev.Serie, nullIfEmpty(ev.Modelo), ev.NumeroInicial, ev.NumeroFinal,
		ev.Situacao, nullIfEmpty(ev.Protocolo), nullIfEmpty(ev.CodigoSefaz),
		nullIfEmpty(ev.MotivoSefaz), nullIfEmpty(ev.XMLEnviado), ev.CriadoEm,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sequência de evento já usada: %w", err)
		}
		return fmt.Errorf("insert evento fiscal: %w", err)
	}
	return nil
}

// Update grava o desfecho do evento (situação, protocolo, código e motivo SEFAZ).
func (r *EventoRepo) Update(ctx context.Context, ev *entity.EventoFiscal) error {
	const query = `
		UPDATE eventos_fiscais
		SET situacao     = $2,
		    protocolo    = COALESCE($3, protocolo),
		    codigo_sefaz = COALESCE($4, codigo_sefaz),
		    motivo_sefaz = COALESCE($5, motivo_sefaz)
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		ev.ID, ev.Situacao,
		nullIfEmpty(ev.Protocolo), nullIfEmpty(ev.CodigoSefaz), nullIfEmpty(ev.MotivoSefaz),
	)
	if err != nil {
		return fmt.Errorf("update evento fiscal: %w", err)
	}
	return nil
}

// ProximaSequencia calcula a próxima sequência por (nota, tipo), estritamente
// crescente. Chamar dentro da mesma transação do Create; a constraint única
// (nota_id, tipo, sequencia) barra corridas residuais.
func (r *EventoRepo) ProximaSequencia(ctx context.Context, notaID, tipo string) (int, error) {
	const query = `
		SELECT COALESCE(MAX(sequencia), 0) + 1
		FROM eventos_fiscais WHERE nota_id = $1 AND tipo = $2`
	var seq int
	if err := r.q.QueryRow(ctx, query, notaID, tipo).Scan(&seq); err != nil {
		return 0, fmt.Errorf("próxima sequência de evento: %w", err)
	}
	return seq, nil
}

// ListByNota lista os eventos de uma nota em ordem de sequência.
func (r *EventoRepo) ListByNota(ctx context.Context, notaID string) ([]entity.EventoFiscal, error) {
	return r.list(ctx, `
		SELECT id, COALESCE(nota_id, ''), tipo, sequencia, justificativa,
		       serie, COALESCE(modelo, ''), numero_inicial, numero_final,
		       situacao, COALESCE(protocolo, ''), COALESCE(codigo_sefaz, ''),
		       COALESCE(motivo_sefaz, ''), COALESCE(xml_enviado, ''), criado_em
		FROM eventos_fiscais WHERE nota_id = $1 ORDER BY tipo, sequencia`, notaID)
}

// ListFlagrados lista eventos enviados cujo desfecho não foi registrado.
func (r *EventoRepo) ListFlagrados(ctx context.Context) ([]entity.EventoFiscal, error) {
	return r.list(ctx, `
		SELECT id, COALESCE(nota_id, ''), tipo, sequencia, justificativa,
		       serie, COALESCE(modelo, ''), numero_inicial, numero_final,
		       situacao, COALESCE(protocolo, ''), COALESCE(codigo_sefaz, ''),
		       COALESCE(motivo_sefaz, ''), COALESCE(xml_enviado, ''), criado_em
		FROM eventos_fiscais WHERE situacao = 'FLAGRADO' ORDER BY criado_em`)
}

func (r *EventoRepo) list(ctx context.Context, query string, args ...any) ([]entity.EventoFiscal, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listar eventos: %w", err)
	}
	defer rows.Close()
	var eventos []entity.EventoFiscal
	for rows.Next() {
		var ev entity.EventoFiscal
		if err := rows.Scan(
			&ev.ID, &ev.NotaID, &ev.Tipo, &ev.Sequencia, &ev.Justificativa,
			&ev.Serie, &ev.Modelo, &ev.NumeroInicial, &ev.NumeroFinal,
			&ev.Situacao, &ev.Protocolo, &ev.CodigoSefaz,
			&ev.MotivoSefaz, &ev.XMLEnviado, &ev.CriadoEm,
		); err != nil {
			return nil, fmt.Errorf("scan evento: %w", err)
		}
		eventos = append(eventos, ev)
	}
	return eventos, rows.Err()
}
