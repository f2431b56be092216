package fiscal

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RateioItem parcelas de despesas declaradas no nível da nota já atribuídas a
// um item (proporcionais ao valor bruto de cada item).
type RateioItem struct {
	Frete    decimal.Decimal
	Seguro   decimal.Decimal
	Desconto decimal.Decimal
}

// RatearDespesas distribui frete, seguro e desconto declarados no nível da
// nota entre os itens, proporcionalmente ao valor bruto de cada um, antes do
// cálculo das bases por item.
//
// O último item absorve o resíduo de arredondamento de cada despesa, de modo
// que a soma das parcelas é exatamente o total declarado.
func RatearDespesas(brutos []decimal.Decimal, frete, seguro, desconto decimal.Decimal) ([]RateioItem, error) {
	if len(brutos) == 0 {
		return nil, fmt.Errorf("fiscal: rateio exige ao menos um item")
	}
	total := decimal.Zero
	for i, b := range brutos {
		if b.IsNegative() {
			return nil, fmt.Errorf("fiscal: valor bruto negativo no item %d", i+1)
		}
		total = total.Add(b)
	}
	if !total.IsPositive() {
		if frete.IsPositive() || seguro.IsPositive() || desconto.IsPositive() {
			return nil, fmt.Errorf("fiscal: não é possível ratear despesas com total bruto zero")
		}
		out := make([]RateioItem, len(brutos))
		return out, nil
	}

	rateios := make([]RateioItem, len(brutos))
	freios := ratear(brutos, total, frete)
	seguros := ratear(brutos, total, seguro)
	descontos := ratear(brutos, total, desconto)
	for i := range brutos {
		rateios[i] = RateioItem{Frete: freios[i], Seguro: seguros[i], Desconto: descontos[i]}
	}
	return rateios, nil
}

// ratear divide valor entre os itens na proporção bruto/total; o último item
// recebe o que faltar para fechar a soma exata.
func ratear(brutos []decimal.Decimal, total, valor decimal.Decimal) []decimal.Decimal {
	parcelas := make([]decimal.Decimal, len(brutos))
	if !valor.IsPositive() {
		return parcelas
	}
	acumulado := decimal.Zero
	for i, b := range brutos {
		if i == len(brutos)-1 {
			parcelas[i] = valor.Sub(acumulado)
			break
		}
		p := Arredondar(valor.Mul(b).Div(total))
		parcelas[i] = p
		acumulado = acumulado.Add(p)
	}
	return parcelas
}
