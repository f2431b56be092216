package fiscal_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain/fiscal"
	pkgnfe "github.com/jovemegidio/zyntra-fiscal/pkg/nfe"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func itemBase() fiscal.ItemCalculo {
	return fiscal.ItemCalculo{
		Ordem:         1,
		NCM:           "22021000",
		CFOP:          "5102",
		Quantidade:    dec("10"),
		ValorUnitario: dec("100.00"),
		AliqICMS:      dec("18"),
		AliqPIS:       dec("1.65"),
		AliqCOFINS:    dec("7.6"),
	}
}

func opInterna() fiscal.OperacaoFiscal {
	return fiscal.OperacaoFiscal{UFOrigem: "SP", UFDestino: "SP", CRT: pkgnfe.CRTRegimeNormal}
}

// Caso de referência: 10 × 100,00 a 18% de ICMS no regime normal.
func TestCalcularItem_RegimeNormal(t *testing.T) {
	trib, cfop, err := fiscal.CalcularItem(itemBase(), opInterna(), fiscal.RateioItem{})
	require.NoError(t, err)

	assert.Equal(t, "5102", cfop)
	assert.Equal(t, pkgnfe.CSTTributadaIntegralmente, trib.CST)
	assert.Empty(t, trib.CSOSN)

	assert.True(t, trib.ICMS.Base.Equal(dec("1000.00")), "base = %s", trib.ICMS.Base)
	assert.True(t, trib.ICMS.Valor.Equal(dec("180.00")), "ICMS = %s", trib.ICMS.Valor)
	assert.True(t, trib.PIS.Valor.Equal(dec("16.50")), "PIS = %s", trib.PIS.Valor)
	assert.True(t, trib.COFINS.Valor.Equal(dec("76.00")), "COFINS = %s", trib.COFINS.Valor)
	assert.True(t, trib.ICMSST.Valor.IsZero())
	assert.True(t, trib.IPI.Valor.IsZero())
}

func TestCalcularItem_DescontoEFreteNaBase(t *testing.T) {
	item := itemBase()
	item.Desconto = dec("50.00")
	rateio := fiscal.RateioItem{Frete: dec("30.00"), Seguro: dec("10.00"), Desconto: dec("20.00")}

	trib, _, err := fiscal.CalcularItem(item, opInterna(), rateio)
	require.NoError(t, err)

	// Base: 1000 − 50 − 20 + 30 + 10 = 970.
	assert.True(t, trib.ICMS.Base.Equal(dec("970.00")), "base = %s", trib.ICMS.Base)
	assert.True(t, trib.ICMS.Valor.Equal(dec("174.60")), "ICMS = %s", trib.ICMS.Valor)
}

func TestCalcularItem_SimplesNacionalUsaCSOSN(t *testing.T) {
	op := opInterna()
	op.CRT = pkgnfe.CRTSimplesNacional

	trib, _, err := fiscal.CalcularItem(itemBase(), op, fiscal.RateioItem{})
	require.NoError(t, err)

	assert.Equal(t, pkgnfe.CSOSNTributadaSemCredito, trib.CSOSN)
	assert.Empty(t, trib.CST, "CST e CSOSN são mutuamente exclusivos")
	assert.True(t, trib.ICMS.Valor.IsZero(), "Simples não destaca ICMS próprio")
}

func TestCalcularItem_SubstituicaoTributaria(t *testing.T) {
	item := itemBase()
	item.AliqICMSST = dec("18")
	item.MVAST = dec("40") // base ST = base × 1,40

	trib, _, err := fiscal.CalcularItem(item, opInterna(), fiscal.RateioItem{})
	require.NoError(t, err)

	assert.Equal(t, pkgnfe.CSTTributadaComST, trib.CST)
	assert.True(t, trib.ICMSST.Base.Equal(dec("1400.00")), "base ST = %s", trib.ICMSST.Base)
	// ST = 1400 × 18% − 180 = 72.
	assert.True(t, trib.ICMSST.Valor.Equal(dec("72.00")), "ST = %s", trib.ICMSST.Valor)
}

func TestCalcularItem_ReformaTributaria(t *testing.T) {
	op := opInterna()
	op.ReformaTributaria = true
	op.AliqIBS = dec("8.8")
	op.AliqCBS = dec("0.9")

	trib, _, err := fiscal.CalcularItem(itemBase(), op, fiscal.RateioItem{})
	require.NoError(t, err)

	assert.True(t, trib.IBS.Valor.Equal(dec("88.00")), "IBS = %s", trib.IBS.Valor)
	assert.True(t, trib.CBS.Valor.Equal(dec("9.00")), "CBS = %s", trib.CBS.Valor)

	// Sem a flag, o par transitório não é calculado.
	op.ReformaTributaria = false
	trib2, _, err := fiscal.CalcularItem(itemBase(), op, fiscal.RateioItem{})
	require.NoError(t, err)
	assert.True(t, trib2.IBS.Valor.IsZero())
	assert.True(t, trib2.CBS.Valor.IsZero())
}

func TestCalcularItem_FalhaEmCodigoInvalido(t *testing.T) {
	item := itemBase()
	item.NCM = "123"
	_, _, err := fiscal.CalcularItem(item, opInterna(), fiscal.RateioItem{})
	assert.Error(t, err, "NCM malformado deve falhar antes de qualquer conta")

	item = itemBase()
	item.CFOP = "4102"
	_, _, err = fiscal.CalcularItem(item, opInterna(), fiscal.RateioItem{})
	assert.Error(t, err)

	item = itemBase()
	item.GTIN = "7891000100104"
	_, _, err = fiscal.CalcularItem(item, opInterna(), fiscal.RateioItem{})
	assert.Error(t, err, "GTIN com DV errado deve falhar")

	item = itemBase()
	item.Quantidade = decimal.Zero
	_, _, err = fiscal.CalcularItem(item, opInterna(), fiscal.RateioItem{})
	assert.Error(t, err)

	item = itemBase()
	item.Desconto = dec("2000.00")
	_, _, err = fiscal.CalcularItem(item, opInterna(), fiscal.RateioItem{})
	assert.Error(t, err, "desconto maior que o valor gera base negativa")
}

func TestAjustarCFOP(t *testing.T) {
	assert.Equal(t, "6102", fiscal.AjustarCFOP("5102", true), "saída interestadual vira 6xxx")
	assert.Equal(t, "5102", fiscal.AjustarCFOP("6102", false), "saída interna vira 5xxx")
	assert.Equal(t, "5102", fiscal.AjustarCFOP("5102", false))
	assert.Equal(t, "6102", fiscal.AjustarCFOP("6102", true))
	assert.Equal(t, "7101", fiscal.AjustarCFOP("7101", true), "exportação passa intacta")
	assert.Equal(t, "1102", fiscal.AjustarCFOP("1102", true), "entrada passa intacta")
}

func TestArredondar_MetadeParaLongeDoZero(t *testing.T) {
	// Convenção fiscal: 0,005 sobe, não vai para o par mais próximo.
	assert.Equal(t, "2.35", fiscal.Arredondar(dec("2.345")).StringFixed(2))
	assert.Equal(t, "2.34", fiscal.Arredondar(dec("2.344")).StringFixed(2))
	assert.Equal(t, "-2.35", fiscal.Arredondar(dec("-2.345")).StringFixed(2))

	// Idempotência: arredondar duas vezes não muda o valor.
	v := fiscal.Arredondar(dec("123.456"))
	assert.True(t, v.Equal(fiscal.Arredondar(v)))
}
