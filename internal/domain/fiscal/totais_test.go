package fiscal_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain/entity"
	"github.com/jovemegidio/zyntra-fiscal/internal/domain/fiscal"
)

func itensExemplo() []entity.NotaItem {
	return []entity.NotaItem{
		{
			Ordem: 1, NCM: "22021000", CFOP: "5102",
			ValorBruto:    dec("1000.00"),
			ValorFrete:    dec("30.00"),
			ValorDesconto: dec("50.00"),
			Tributos: entity.TributosItem{
				CST:    "00",
				ICMS:   entity.Tributo{Base: dec("980.00"), Aliquota: dec("18"), Valor: dec("176.40")},
				PIS:    entity.Tributo{Base: dec("980.00"), Aliquota: dec("1.65"), Valor: dec("16.17")},
				COFINS: entity.Tributo{Base: dec("980.00"), Aliquota: dec("7.6"), Valor: dec("74.48")},
			},
		},
		{
			Ordem: 2, NCM: "84713012", CFOP: "5102",
			ValorBruto: dec("500.00"),
			Tributos: entity.TributosItem{
				CST:    "10",
				ICMS:   entity.Tributo{Base: dec("500.00"), Aliquota: dec("18"), Valor: dec("90.00")},
				ICMSST: entity.Tributo{Base: dec("700.00"), Aliquota: dec("18"), Valor: dec("36.00")},
				IPI:    entity.Tributo{Base: dec("500.00"), Aliquota: dec("10"), Valor: dec("50.00")},
			},
		},
	}
}

func TestTotalizarNota(t *testing.T) {
	totais, err := fiscal.TotalizarNota(itensExemplo())
	require.NoError(t, err)

	assert.True(t, totais.ValorProdutos.Equal(dec("1500.00")), "produtos = %s", totais.ValorProdutos)
	assert.True(t, totais.BaseICMS.Equal(dec("1480.00")), "base ICMS = %s", totais.BaseICMS)
	assert.True(t, totais.ValorICMS.Equal(dec("266.40")), "ICMS = %s", totais.ValorICMS)
	assert.True(t, totais.ValorICMSST.Equal(dec("36.00")))
	assert.True(t, totais.ValorIPI.Equal(dec("50.00")))

	// vNF = 1500 − 50 + 30 + 0 + 36 + 50 = 1566.
	assert.True(t, totais.ValorTotal.Equal(dec("1566.00")), "vNF = %s", totais.ValorTotal)
}

func TestTotalizarNota_Idempotente(t *testing.T) {
	a, err := fiscal.TotalizarNota(itensExemplo())
	require.NoError(t, err)
	b, err := fiscal.TotalizarNota(itensExemplo())
	require.NoError(t, err)
	assert.True(t, a.ValorTotal.Equal(b.ValorTotal))
	assert.True(t, a.ValorICMS.Equal(b.ValorICMS))
}

func TestTotalizarNota_FalhaSemClassificacao(t *testing.T) {
	itens := itensExemplo()
	itens[1].NCM = ""
	_, err := fiscal.TotalizarNota(itens)
	assert.Error(t, err, "item sem NCM aborta a totalização")

	itens = itensExemplo()
	itens[0].CFOP = ""
	_, err = fiscal.TotalizarNota(itens)
	assert.Error(t, err)

	_, err = fiscal.TotalizarNota(nil)
	assert.Error(t, err)
}

func TestConferirTotais(t *testing.T) {
	itens := itensExemplo()
	totais, err := fiscal.TotalizarNota(itens)
	require.NoError(t, err)

	nota := &entity.NotaFiscal{
		ValorProdutos: totais.ValorProdutos,
		ValorICMS:     totais.ValorICMS,
		ValorICMSST:   totais.ValorICMSST,
		ValorIPI:      totais.ValorIPI,
		ValorPIS:      totais.ValorPIS,
		ValorCOFINS:   totais.ValorCOFINS,
		ValorFCP:      totais.ValorFCP,
		ValorTotal:    totais.ValorTotal,
	}
	assert.NoError(t, fiscal.ConferirTotais(nota, itens))

	// Um centavo de diferença é tolerado (resíduo legítimo de arredondamento).
	nota.ValorICMS = nota.ValorICMS.Add(decimal.New(1, -2))
	assert.NoError(t, fiscal.ConferirTotais(nota, itens))

	// Dois centavos já não.
	nota.ValorICMS = nota.ValorICMS.Add(decimal.New(1, -2))
	assert.Error(t, fiscal.ConferirTotais(nota, itens))
}
