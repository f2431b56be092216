package entity

import "github.com/shopspring/decimal"

// NotaItem linha de detalhe de uma NFe. Imutável depois que a nota é autorizada.
type NotaItem struct {
	ID            string
	NotaID        string
	Ordem         int // nItem (1..n)
	Codigo        string
	Descricao     string
	NCM           string // 8 dígitos
	CFOP          string // 4 dígitos
	GTIN          string // código de barras ou "SEM GTIN"
	Unidade       string
	Quantidade    decimal.Decimal
	ValorUnitario decimal.Decimal
	ValorBruto    decimal.Decimal // quantidade × unitário
	ValorDesconto decimal.Decimal // desconto rateado da nota + desconto próprio
	ValorFrete    decimal.Decimal // frete rateado
	ValorSeguro   decimal.Decimal // seguro rateado

	Tributos TributosItem
}

// TributosItem detalhamento por tributo produzido pelo motor de cálculo.
type TributosItem struct {
	ICMS   Tributo
	ICMSST Tributo
	IPI    Tributo
	PIS    Tributo
	COFINS Tributo
	FCP    Tributo
	IBS    Tributo // reforma tributária (transitório)
	CBS    Tributo // reforma tributária (transitório)

	CST   string // CST do ICMS (regime normal)
	CSOSN string // CSOSN (Simples Nacional); exclusivo com CST
}

// Tributo base, alíquota e valor calculado de um tributo.
type Tributo struct {
	Base     decimal.Decimal
	Aliquota decimal.Decimal // percentual (ex.: 18 para 18%)
	Valor    decimal.Decimal
}
