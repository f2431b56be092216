package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status do ciclo de vida da NFe. O registro fiscal é append-only: a nota
// nunca é removida fisicamente, apenas transiciona de status.
const (
	StatusPendente   = "PENDENTE"   // criada com XML e chave, aguardando (ou rejeitada pela) SEFAZ
	StatusAutorizada = "AUTORIZADA" // SEFAZ autorizou; protocolo e data registrados
	StatusCancelada  = "CANCELADA"  // evento de cancelamento homologado
)

// NotaFiscal cabeçalho da NFe modelo 55.
type NotaFiscal struct {
	ID          string
	Numero      int64  // número sequencial (9 dígitos no documento)
	Serie       int    // série (1..999)
	Modelo      string // "55"
	TipoEmissao string // tpEmis ("1" normal)

	// Snapshot das partes no momento da emissão (imutável depois de autorizada).
	Emitente     Emitente
	Destinatario Destinatario

	// Totais monetários.
	ValorProdutos decimal.Decimal
	ValorFrete    decimal.Decimal
	ValorSeguro   decimal.Decimal
	ValorDesconto decimal.Decimal
	ValorTotal    decimal.Decimal

	// Totais de tributos agregados (devem bater com a soma dos itens).
	BaseICMS    decimal.Decimal
	ValorICMS   decimal.Decimal
	BaseICMSST  decimal.Decimal
	ValorICMSST decimal.Decimal
	ValorIPI    decimal.Decimal
	ValorPIS    decimal.Decimal
	ValorCOFINS decimal.Decimal
	ValorFCP    decimal.Decimal
	ValorIBS    decimal.Decimal
	ValorCBS    decimal.Decimal

	Status        string
	ChaveAcesso   string // 44 dígitos; imutável depois de atribuída
	XMLEnviado    string // XML assinado submetido à SEFAZ
	XMLAutorizado string // XML com protocolo (nfeProc) devolvido pela SEFAZ

	// Artefatos de protocolo.
	Protocolo       string // nProt da autorização
	Recibo          string // nRec de lote assíncrono pendente de consulta
	CodigoRejeicao  string // cStat da última rejeição
	MotivoRejeicao  string // xMotivo verbatim da SEFAZ
	DataAutorizacao *time.Time
	DataEmissao     time.Time

	InformacoesAdicionais string

	CriadaEm     time.Time
	AtualizadaEm time.Time
}

// PodeCancelar informa se a nota admite cancelamento no instante dado:
// precisa estar autorizada e dentro da janela legal de 24 horas.
func (n *NotaFiscal) PodeCancelar(agora time.Time, janela time.Duration) bool {
	if n.Status != StatusAutorizada || n.DataAutorizacao == nil {
		return false
	}
	return agora.Sub(*n.DataAutorizacao) <= janela
}
