package fiscal_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain/fiscal"
)

func TestRatearDespesas_SomaExata(t *testing.T) {
	brutos := []decimal.Decimal{dec("100.00"), dec("200.00"), dec("33.33")}
	rateios, err := fiscal.RatearDespesas(brutos, dec("10.00"), dec("5.55"), dec("7.01"))
	require.NoError(t, err)
	require.Len(t, rateios, 3)

	var frete, seguro, desconto decimal.Decimal
	for _, r := range rateios {
		frete = frete.Add(r.Frete)
		seguro = seguro.Add(r.Seguro)
		desconto = desconto.Add(r.Desconto)
	}
	// O último item absorve o resíduo: a soma fecha exata, sem centavo perdido.
	assert.True(t, frete.Equal(dec("10.00")), "frete somou %s", frete)
	assert.True(t, seguro.Equal(dec("5.55")), "seguro somou %s", seguro)
	assert.True(t, desconto.Equal(dec("7.01")), "desconto somou %s", desconto)
}

func TestRatearDespesas_Proporcional(t *testing.T) {
	// Dois itens 3:1 — o rateio deve respeitar a proporção.
	brutos := []decimal.Decimal{dec("300.00"), dec("100.00")}
	rateios, err := fiscal.RatearDespesas(brutos, dec("40.00"), decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	assert.True(t, rateios[0].Frete.Equal(dec("30.00")), "item 1 recebeu %s", rateios[0].Frete)
	assert.True(t, rateios[1].Frete.Equal(dec("10.00")), "item 2 recebeu %s", rateios[1].Frete)
}

func TestRatearDespesas_SemDespesas(t *testing.T) {
	rateios, err := fiscal.RatearDespesas([]decimal.Decimal{dec("50.00")}, decimal.Zero, decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, rateios[0].Frete.IsZero())
	assert.True(t, rateios[0].Seguro.IsZero())
	assert.True(t, rateios[0].Desconto.IsZero())
}

func TestRatearDespesas_Erros(t *testing.T) {
	_, err := fiscal.RatearDespesas(nil, decimal.Zero, decimal.Zero, decimal.Zero)
	assert.Error(t, err, "sem itens não há rateio")

	_, err = fiscal.RatearDespesas([]decimal.Decimal{dec("-1")}, decimal.Zero, decimal.Zero, decimal.Zero)
	assert.Error(t, err, "bruto negativo")

	_, err = fiscal.RatearDespesas([]decimal.Decimal{decimal.Zero}, dec("10"), decimal.Zero, decimal.Zero)
	assert.Error(t, err, "total zero não comporta despesa")
}

// TestRatearDespesas_PropriedadeSomaFecha gera milhares de cenários aleatórios
// determinísticos e confere a propriedade central: para qualquer combinação de
// itens e despesas, a soma das parcelas é exatamente o total declarado.
func TestRatearDespesas_PropriedadeSomaFecha(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for caso := 0; caso < 1000; caso++ {
		n := 1 + rng.Intn(12)
		brutos := make([]decimal.Decimal, n)
		for i := range brutos {
			// Centavos entre 0,01 e 5000,00.
			brutos[i] = decimal.New(int64(1+rng.Intn(500_000)), -2)
		}
		frete := decimal.New(int64(rng.Intn(100_000)), -2)
		seguro := decimal.New(int64(rng.Intn(50_000)), -2)
		desconto := decimal.New(int64(rng.Intn(20_000)), -2)

		rateios, err := fiscal.RatearDespesas(brutos, frete, seguro, desconto)
		require.NoError(t, err, "caso %d", caso)

		var sf, ss, sd decimal.Decimal
		for _, r := range rateios {
			sf = sf.Add(r.Frete)
			ss = ss.Add(r.Seguro)
			sd = sd.Add(r.Desconto)
		}
		msg := fmt.Sprintf("caso %d com %d itens", caso, n)
		assert.True(t, sf.Equal(frete), "%s: frete %s != %s", msg, sf, frete)
		assert.True(t, ss.Equal(seguro), "%s: seguro %s != %s", msg, ss, seguro)
		assert.True(t, sd.Equal(desconto), "%s: desconto %s != %s", msg, sd, desconto)
	}
}
