package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain"
	"github.com/jovemegidio/zyntra-fiscal/internal/domain/entity"
	"github.com/jovemegidio/zyntra-fiscal/internal/domain/repository"
)

var _ repository.NotaFiscalRepository = (*NotaFiscalRepo)(nil)

// NotaFiscalRepo implementação de NotaFiscalRepository (usável com pool ou tx).
type NotaFiscalRepo struct {
	q Querier
}

// NewNotaFiscalRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewNotaFiscalRepository(q Querier) *NotaFiscalRepo {
	return &NotaFiscalRepo{q: q}
}

const colunasNota = `
	id, numero, serie, modelo, tipo_emissao,
	emit_cnpj, emit_razao_social, emit_ie, emit_crt, emit_uf, emit_cod_municipio,
	dest_cnpj, dest_cpf, dest_razao_social, dest_ie, dest_ind_ie, dest_uf, dest_cod_municipio,
	valor_produtos, valor_frete, valor_seguro, valor_desconto, valor_total,
	base_icms, valor_icms, base_icms_st, valor_icms_st,
	valor_ipi, valor_pis, valor_cofins, valor_fcp, valor_ibs, valor_cbs,
	status, chave_acesso, xml_enviado, xml_autorizado,
	protocolo, recibo, codigo_rejeicao, motivo_rejeicao,
	data_autorizacao, data_emissao, informacoes_adicionais,
	criada_em, atualizada_em`

// Create persiste o cabeçalho da nota (estado inicial PENDENTE).
func (r *NotaFiscalRepo) Create(ctx context.Context, nota *entity.NotaFiscal) error {
	if nota.ID == "" {
		nota.ID = uuid.New().String()
	}
	query := `
		INSERT INTO notas_fiscais (` + colunasNota + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
		        $31, $32, $33, $34, $35, $36, $37, $38, $39, $40, $41, $42, $43, $44, $45, $46)`
	_, err := r.q.Exec(ctx, query,
		nota.ID, nota.Numero, nota.Serie, nota.Modelo, nota.TipoEmissao,
		nota.Emitente.CNPJ, nota.Emitente.RazaoSocial, nota.Emitente.InscricaoEstadual,
		nota.Emitente.CRT, nota.Emitente.UF, nota.Emitente.CodigoMunicipio,
		nullIfEmpty(nota.Destinatario.CNPJ), nullIfEmpty(nota.Destinatario.CPF),
		nota.Destinatario.RazaoSocial, nullIfEmpty(nota.Destinatario.InscricaoEstadual),
		nota.Destinatario.IndIEDest, nota.Destinatario.UF, nota.Destinatario.CodigoMunicipio,
		nota.ValorProdutos, nota.ValorFrete, nota.ValorSeguro, nota.ValorDesconto, nota.ValorTotal,
		nota.BaseICMS, nota.ValorICMS, nota.BaseICMSST, nota.ValorICMSST,
		nota.ValorIPI, nota.ValorPIS, nota.ValorCOFINS, nota.ValorFCP, nota.ValorIBS, nota.ValorCBS,
		nota.Status, nota.ChaveAcesso, nullIfEmpty(nota.XMLEnviado), nullIfEmpty(nota.XMLAutorizado),
		nullIfEmpty(nota.Protocolo), nullIfEmpty(nota.Recibo),
		nullIfEmpty(nota.CodigoRejeicao), nullIfEmpty(nota.MotivoRejeicao),
		nota.DataAutorizacao, nota.DataEmissao, nullIfEmpty(nota.InformacoesAdicionais),
		nota.CriadaEm, nota.AtualizadaEm,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("número ou chave de nota já existente: %w", err)
		}
		return fmt.Errorf("insert nota fiscal: %w", err)
	}
	return nil
}

// CreateItem persiste uma linha de detalhe com o detalhamento tributário.
func (r *NotaFiscalRepo) CreateItem(ctx context.Context, item *entity.NotaItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	query := `
		INSERT INTO nota_itens (
			id, nota_id, ordem, codigo, descricao, ncm, cfop, gtin, unidade,
			quantidade, valor_unitario, valor_bruto, valor_desconto, valor_frete, valor_seguro,
			cst, csosn,
			base_icms, aliq_icms, valor_icms,
			base_icms_st, aliq_icms_st, valor_icms_st,
			base_ipi, aliq_ipi, valor_ipi,
			base_pis, aliq_pis, valor_pis,
			base_cofins, aliq_cofins, valor_cofins,
			base_fcp, aliq_fcp, valor_fcp,
			base_ibs, aliq_ibs, valor_ibs,
			base_cbs, aliq_cbs, valor_cbs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29,
		        $30, $31, $32, $33, $34, $35, $36, $37, $38, $39, $40, $41)`
	t := item.Tributos
	_, err := r.q.Exec(ctx, query,
		item.ID, item.NotaID, item.Ordem, item.Codigo, item.Descricao,
		item.NCM, item.CFOP, nullIfEmpty(item.GTIN), item.Unidade,
		item.Quantidade, item.ValorUnitario, item.ValorBruto,
		item.ValorDesconto, item.ValorFrete, item.ValorSeguro,
		nullIfEmpty(t.CST), nullIfEmpty(t.CSOSN),
		t.ICMS.Base, t.ICMS.Aliquota, t.ICMS.Valor,
		t.ICMSST.Base, t.ICMSST.Aliquota, t.ICMSST.Valor,
		t.IPI.Base, t.IPI.Aliquota, t.IPI.Valor,
		t.PIS.Base, t.PIS.Aliquota, t.PIS.Valor,
		t.COFINS.Base, t.COFINS.Aliquota, t.COFINS.Valor,
		t.FCP.Base, t.FCP.Aliquota, t.FCP.Valor,
		t.IBS.Base, t.IBS.Aliquota, t.IBS.Valor,
		t.CBS.Base, t.CBS.Aliquota, t.CBS.Valor,
	)
	if err != nil {
		return fmt.Errorf("insert item da nota: %w", err)
	}
	return nil
}

// GetByID obtém uma nota completa por ID.
func (r *NotaFiscalRepo) GetByID(ctx context.Context, id string) (*entity.NotaFiscal, error) {
	return r.get(ctx, `SELECT `+colunasNota+` FROM notas_fiscais WHERE id = $1`, id)
}

// GetByIDForUpdate relê a nota com lock de linha; exige transação aberta.
func (r *NotaFiscalRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.NotaFiscal, error) {
	return r.get(ctx, `SELECT `+colunasNota+` FROM notas_fiscais WHERE id = $1 FOR UPDATE`, id)
}

// GetByChave obtém uma nota pela chave de acesso.
func (r *NotaFiscalRepo) GetByChave(ctx context.Context, chave string) (*entity.NotaFiscal, error) {
	return r.get(ctx, `SELECT `+colunasNota+` FROM notas_fiscais WHERE chave_acesso = $1`, chave)
}

func (r *NotaFiscalRepo) get(ctx context.Context, query string, arg any) (*entity.NotaFiscal, error) {
	var n entity.NotaFiscal
	var destCNPJ, destCPF, destIE, xmlEnviado, xmlAutorizado *string
	var protocolo, recibo, codigoRejeicao, motivoRejeicao, infAdic *string
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&n.ID, &n.Numero, &n.Serie, &n.Modelo, &n.TipoEmissao,
		&n.Emitente.CNPJ, &n.Emitente.RazaoSocial, &n.Emitente.InscricaoEstadual,
		&n.Emitente.CRT, &n.Emitente.UF, &n.Emitente.CodigoMunicipio,
		&destCNPJ, &destCPF, &n.Destinatario.RazaoSocial, &destIE,
		&n.Destinatario.IndIEDest, &n.Destinatario.UF, &n.Destinatario.CodigoMunicipio,
		&n.ValorProdutos, &n.ValorFrete, &n.ValorSeguro, &n.ValorDesconto, &n.ValorTotal,
		&n.BaseICMS, &n.ValorICMS, &n.BaseICMSST, &n.ValorICMSST,
		&n.ValorIPI, &n.ValorPIS, &n.ValorCOFINS, &n.ValorFCP, &n.ValorIBS, &n.ValorCBS,
		&n.Status, &n.ChaveAcesso, &xmlEnviado, &xmlAutorizado,
		&protocolo, &recibo, &codigoRejeicao, &motivoRejeicao,
		&n.DataAutorizacao, &n.DataEmissao, &infAdic,
		&n.CriadaEm, &n.AtualizadaEm,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: nota fiscal %v", domain.ErrNaoEncontrado, arg)
		}
		return nil, fmt.Errorf("get nota fiscal: %w", err)
	}
	n.Destinatario.CNPJ = deref(destCNPJ)
	n.Destinatario.CPF = deref(destCPF)
	n.Destinatario.InscricaoEstadual = deref(destIE)
	n.XMLEnviado = deref(xmlEnviado)
	n.XMLAutorizado = deref(xmlAutorizado)
	n.Protocolo = deref(protocolo)
	n.Recibo = deref(recibo)
	n.CodigoRejeicao = deref(codigoRejeicao)
	n.MotivoRejeicao = deref(motivoRejeicao)
	n.InformacoesAdicionais = deref(infAdic)
	return &n, nil
}

// GetItens obtém as linhas de uma nota em ordem.
func (r *NotaFiscalRepo) GetItens(ctx context.Context, notaID string) ([]entity.NotaItem, error) {
	query := `
		SELECT id, nota_id, ordem, codigo, descricao, ncm, cfop, COALESCE(gtin, ''), unidade,
		       quantidade, valor_unitario, valor_bruto, valor_desconto, valor_frete, valor_seguro,
		       COALESCE(cst, ''), COALESCE(csosn, ''),
		       base_icms, aliq_icms, valor_icms,
		       base_icms_st, aliq_icms_st, valor_icms_st,
		       base_ipi, aliq_ipi, valor_ipi,
		       base_pis, aliq_pis, valor_pis,
		       base_cofins, aliq_cofins, valor_cofins,
		       base_fcp, aliq_fcp, valor_fcp,
		       base_ibs, aliq_ibs, valor_ibs,
		       base_cbs, aliq_cbs, valor_cbs
		FROM nota_itens WHERE nota_id = $1 ORDER BY ordem`
	rows, err := r.q.Query(ctx, query, notaID)
	if err != nil {
		return nil, fmt.Errorf("listar itens da nota: %w", err)
	}
	defer rows.Close()
	var itens []entity.NotaItem
	for rows.Next() {
		var it entity.NotaItem
		t := &it.Tributos
		if err := rows.Scan(
			&it.ID, &it.NotaID, &it.Ordem, &it.Codigo, &it.Descricao,
			&it.NCM, &it.CFOP, &it.GTIN, &it.Unidade,
			&it.Quantidade, &it.ValorUnitario, &it.ValorBruto,
			&it.ValorDesconto, &it.ValorFrete, &it.ValorSeguro,
			&t.CST, &t.CSOSN,
			&t.ICMS.Base, &t.ICMS.Aliquota, &t.ICMS.Valor,
			&t.ICMSST.Base, &t.ICMSST.Aliquota, &t.ICMSST.Valor,
			&t.IPI.Base, &t.IPI.Aliquota, &t.IPI.Valor,
			&t.PIS.Base, &t.PIS.Aliquota, &t.PIS.Valor,
			&t.COFINS.Base, &t.COFINS.Aliquota, &t.COFINS.Valor,
			&t.FCP.Base, &t.FCP.Aliquota, &t.FCP.Valor,
			&t.IBS.Base, &t.IBS.Aliquota, &t.IBS.Valor,
			&t.CBS.Base, &t.CBS.Aliquota, &t.CBS.Valor,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		itens = append(itens, it)
	}
	return itens, rows.Err()
}

// UpdateDesfecho grava o resultado da submissão ou de um evento de ciclo de vida.
func (r *NotaFiscalRepo) UpdateDesfecho(ctx context.Context, nota *entity.NotaFiscal) error {
	query := `
		UPDATE notas_fiscais
		SET status           = $2,
		    xml_enviado      = COALESCE($3, xml_enviado),
		    xml_autorizado   = COALESCE($4, xml_autorizado),
		    protocolo        = COALESCE($5, protocolo),
		    recibo           = $6,
		    codigo_rejeicao  = $7,
		    motivo_rejeicao  = $8,
		    data_autorizacao = COALESCE($9, data_autorizacao),
		    atualizada_em    = $10
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		nota.ID,
		nota.Status,
		nullIfEmpty(nota.XMLEnviado),
		nullIfEmpty(nota.XMLAutorizado),
		nullIfEmpty(nota.Protocolo),
		nullIfEmpty(nota.Recibo),
		nullIfEmpty(nota.CodigoRejeicao),
		nullIfEmpty(nota.MotivoRejeicao),
		nota.DataAutorizacao,
		nota.AtualizadaEm,
	)
	if err != nil {
		return fmt.Errorf("update desfecho da nota: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p != nil {
		return *p
	}
	return ""
}
