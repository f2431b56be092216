// Package fiscal implementa o motor de cálculo tributário da NFe: função pura
// que, a partir dos fatos do item e da operação (emitente/destinatário), produz
// o detalhamento de ICMS, ICMS-ST, IPI, PIS, COFINS, FCP e, quando habilitado,
// o par transitório IBS/CBS. Não faz I/O.
//
// Todo o cálculo monetário usa decimal de ponto fixo; float binário nunca entra
// em valor de moeda, porque frações decimais repetidas (aplicação de alíquota
// seguida de subtração) não têm representação exata e o desvio acumula ao longo
// de milhares de notas.
package fiscal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain/entity"
	"github.com/jovemegidio/zyntra-fiscal/internal/domain/nfe"
	pkgnfe "github.com/jovemegidio/zyntra-fiscal/pkg/nfe"
)

var cem = decimal.NewFromInt(100)

// Arredondar aplica o arredondamento fiscal: duas casas, metade para longe do
// zero (ABNT), não o half-to-even do IEEE. decimal.Round já implementa essa
// convenção; o helper centraliza e documenta. É idempotente sobre valores já
// arredondados.
func Arredondar(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ItemCalculo fatos de um item necessários para o cálculo.
type ItemCalculo struct {
	Ordem         int
	NCM           string
	CFOP          string
	GTIN          string
	Quantidade    decimal.Decimal
	ValorUnitario decimal.Decimal
	Desconto      decimal.Decimal // desconto declarado no próprio item

	AliqICMS   decimal.Decimal // percentual (18 = 18%)
	AliqICMSST decimal.Decimal // alíquota interna da UF de destino para ST; zero = sem ST
	MVAST      decimal.Decimal // margem de valor agregado da ST (percentual)
	AliqIPI    decimal.Decimal
	AliqPIS    decimal.Decimal
	AliqCOFINS decimal.Decimal
	AliqFCP    decimal.Decimal
}

// ValorBruto devolve quantidade × valor unitário, arredondado.
func (i ItemCalculo) ValorBruto() decimal.Decimal {
	return Arredondar(i.Quantidade.Mul(i.ValorUnitario))
}

// OperacaoFiscal fatos do emitente e do destinatário que condicionam o cálculo.
type OperacaoFiscal struct {
	UFOrigem  string // sigla da UF do emitente
	UFDestino string // sigla da UF do destinatário
	CRT       string // regime do emitente: "1" Simples Nacional, "3" normal

	ReformaTributaria bool // habilita o par transitório IBS/CBS
	AliqIBS           decimal.Decimal
	AliqCBS           decimal.Decimal
}

// Interestadual informa se a operação cruza UFs.
func (o OperacaoFiscal) Interestadual() bool {
	return o.UFOrigem != o.UFDestino
}

// SimplesNacional informa se o emitente está no regime simplificado (usa CSOSN).
func (o OperacaoFiscal) SimplesNacional() bool {
	return o.CRT == pkgnfe.CRTSimplesNacional || o.CRT == pkgnfe.CRTSimplesExcessoReceita
}

// CalcularItem computa o detalhamento tributário de um item. rateio traz as
// parcelas de frete/seguro/desconto da nota já rateadas para este item (ver
// RatearDespesas). Determinística: mesmos fatos, mesmo resultado.
//
// Valida NCM/CFOP/GTIN antes de qualquer conta e falha alto em código
// malformado, nunca assumindo um default silencioso.
func CalcularItem(item ItemCalculo, op OperacaoFiscal, rateio RateioItem) (entity.TributosItem, string, error) {
	var trib entity.TributosItem

	if err := nfe.ValidarNCM(item.NCM); err != nil {
		return trib, "", err
	}
	if err := nfe.ValidarCFOP(item.CFOP); err != nil {
		return trib, "", err
	}
	if item.GTIN != "" {
		if err := nfe.ValidarGTIN(item.GTIN); err != nil {
			return trib, "", err
		}
	}
	if !item.Quantidade.IsPositive() {
		return trib, "", fmt.Errorf("fiscal: quantidade do item %d deve ser positiva", item.Ordem)
	}
	if item.ValorUnitario.IsNegative() {
		return trib, "", fmt.Errorf("fiscal: valor unitário do item %d não pode ser negativo", item.Ordem)
	}

	cfop := AjustarCFOP(item.CFOP, op.Interestadual())

	// Base do ICMS: bruto − descontos + frete + seguro rateados.
	base := item.ValorBruto().
		Sub(item.Desconto).
		Sub(rateio.Desconto).
		Add(rateio.Frete).
		Add(rateio.Seguro)
	if base.IsNegative() {
		return trib, "", fmt.Errorf("fiscal: base de cálculo negativa no item %d (desconto maior que o valor)", item.Ordem)
	}
	base = Arredondar(base)

	if op.SimplesNacional() {
		// Simples Nacional: CSOSN, sem destaque de ICMS próprio na nota.
		trib.CSOSN = pkgnfe.CSOSNTributadaSemCredito
	} else {
		trib.CST = pkgnfe.CSTTributadaIntegralmente
		trib.ICMS = aplicar(base, item.AliqICMS)

		// ICMS-ST: base majorada pela MVA; o valor é o ICMS da base majorada
		// menos o ICMS próprio.
		if item.AliqICMSST.IsPositive() && item.MVAST.IsPositive() {
			trib.CST = pkgnfe.CSTTributadaComST
			baseST := Arredondar(base.Mul(cem.Add(item.MVAST)).Div(cem))
			valorST := Arredondar(baseST.Mul(item.AliqICMSST).Div(cem)).Sub(trib.ICMS.Valor)
			if valorST.IsNegative() {
				valorST = decimal.Zero
			}
			trib.ICMSST = entity.Tributo{Base: baseST, Aliquota: item.AliqICMSST, Valor: valorST}
		}
	}

	trib.IPI = aplicar(base, item.AliqIPI)
	trib.PIS = aplicar(base, item.AliqPIS)
	trib.COFINS = aplicar(base, item.AliqCOFINS)

	// FCP incide sobre a mesma base do ICMS.
	if item.AliqFCP.IsPositive() {
		trib.FCP = aplicar(base, item.AliqFCP)
	}

	if op.ReformaTributaria {
		trib.IBS = aplicar(base, op.AliqIBS)
		trib.CBS = aplicar(base, op.AliqCBS)
	}

	return trib, cfop, nil
}

// aplicar devolve o tributo com base, alíquota e valor = base × alíquota / 100.
func aplicar(base, aliquota decimal.Decimal) entity.Tributo {
	if !aliquota.IsPositive() {
		return entity.Tributo{Base: base, Aliquota: decimal.Zero, Valor: decimal.Zero}
	}
	return entity.Tributo{
		Base:     base,
		Aliquota: aliquota,
		Valor:    Arredondar(base.Mul(aliquota).Div(cem)),
	}
}

// AjustarCFOP corrige o primeiro dígito do CFOP de saída conforme o alcance da
// operação: 5 para dentro da UF, 6 para interestadual. CFOPs de entrada e de
// exportação (7) passam intactos.
func AjustarCFOP(cfop string, interestadual bool) string {
	if len(cfop) != 4 {
		return cfop
	}
	switch cfop[0] {
	case '5':
		if interestadual {
			return "6" + cfop[1:]
		}
	case '6':
		if !interestadual {
			return "5" + cfop[1:]
		}
	}
	return cfop
}
