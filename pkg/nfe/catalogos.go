// Package nfe reúne catálogos e contratos compartilhados da NFe modelo 55
// (layout 4.00): códigos IBGE de UF, CST/CSOSN, formas de pagamento e o
// contrato de assinatura digital.
package nfe

// NamespacePortal namespace do Portal Fiscal usado em todos os documentos NFe.
const NamespacePortal = "http://www.portalfiscal.inf.br/nfe"

// Ambientes SEFAZ (tpAmb).
const (
	AmbienteProducao    = "1"
	AmbienteHomologacao = "2"
)

// Modelos de documento fiscal.
const (
	ModeloNFe  = "55"
	ModeloNFCe = "65"
)

// Tipos de emissão (tpEmis).
const (
	EmissaoNormal          = "1"
	EmissaoContingenciaSVC = "6"
)

// CódigoUF devolve o código IBGE (2 dígitos) da sigla da UF; "" se desconhecida.
func CodigoUF(sigla string) string {
	return codigosUF[sigla]
}

// SiglaUF devolve a sigla a partir do código IBGE; "" se desconhecido.
func SiglaUF(codigo string) string {
	for sigla, cod := range codigosUF {
		if cod == codigo {
			return sigla
		}
	}
	return ""
}

var codigosUF = map[string]string{
	"RO": "11", "AC": "12", "AM": "13", "RR": "14", "PA": "15", "AP": "16", "TO": "17",
	"MA": "21", "PI": "22", "CE": "23", "RN": "24", "PB": "25", "PE": "26", "AL": "27", "SE": "28", "BA": "29",
	"MG": "31", "ES": "32", "RJ": "33", "SP": "35",
	"PR": "41", "SC": "42", "RS": "43",
	"MS": "50", "MT": "51", "GO": "52", "DF": "53",
}

// CST de ICMS (regime normal).
const (
	CSTTributadaIntegralmente = "00"
	CSTTributadaComST         = "10"
	CSTIsenta                 = "40"
	CSTNaoTributada           = "41"
	CSTSuspensao              = "50"
	CSTDiferimento            = "51"
	CSTCobradoAnteriormenteST = "60"
	CSTOutras                 = "90"
)

// CSOSN (Simples Nacional, CRT 1).
const (
	CSOSNTributadaComCredito    = "101"
	CSOSNTributadaSemCredito    = "102"
	CSOSNIsencaoFaixaReceita    = "103"
	CSOSNTributadaComCreditoST  = "201"
	CSOSNTributadaSemCreditoST  = "202"
	CSOSNCobradaAnteriormenteST = "500"
	CSOSNOutros                 = "900"
)

// Códigos de regime tributário (CRT).
const (
	CRTSimplesNacional       = "1"
	CRTSimplesExcessoReceita = "2"
	CRTRegimeNormal          = "3"
)

// Formas de pagamento (tPag, tabela 4.00).
const (
	PagamentoDinheiro      = "01"
	PagamentoCheque        = "02"
	PagamentoCartaoCredito = "03"
	PagamentoCartaoDebito  = "04"
	PagamentoPix           = "17"
	PagamentoSemPagamento  = "90"
	PagamentoOutros        = "99"
)

// UnidadeComercial padrão quando o produto não informa unidade.
const UnidadeComercial = "UN"
