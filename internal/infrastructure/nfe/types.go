package nfe

import (
	"github.com/jovemegidio/zyntra-fiscal/internal/domain/entity"
)

// DadosEmissao reúne tudo que a montagem do XML precisa. A nota já chega com
// chave de acesso, número alocado e tributos calculados; a montagem apenas
// serializa.
type DadosEmissao struct {
	Nota  *entity.NotaFiscal
	Itens []entity.NotaItem

	// Ambiente "1" produção, "2" homologação (tpAmb).
	Ambiente string
	// NaturezaOperacao texto livre da natOp (ex.: "VENDA DE MERCADORIA").
	NaturezaOperacao string
	// FormaPagamento código tPag da tabela de pagamento.
	FormaPagamento string
	// ModalidadeFrete código modFrete ("0" emitente, "1" destinatário, "9" sem frete).
	ModalidadeFrete string
	// ReformaTributaria liga o grupo IBS/CBS nos itens.
	ReformaTributaria bool
	// VersaoAplicativo vai em verProc.
	VersaoAplicativo string
	// CodigoNumerico é o cNF de 8 dígitos já embutido na chave.
	CodigoNumerico string
}
