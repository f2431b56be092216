package fiscal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain/entity"
)

// Totais agregados da nota, somados a partir dos detalhamentos por item.
type Totais struct {
	ValorProdutos decimal.Decimal
	ValorFrete    decimal.Decimal
	ValorSeguro   decimal.Decimal
	ValorDesconto decimal.Decimal

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

	ValorTotal decimal.Decimal // vNF: produtos − desconto + frete + seguro + ST + IPI
}

// TotalizarNota soma os detalhamentos por item em totais da nota. Passo puro e
// idempotente, separado do cálculo por item. Falha alto (não coage em silêncio)
// se algum item estiver sem NCM ou CFOP: o agregado de uma nota incompleta não
// tem significado fiscal.
//
// Invariante: cada total agregado é exatamente a soma dos valores por item —
// ambos os lados passam pelo mesmo arredondamento de duas casas.
func TotalizarNota(itens []entity.NotaItem) (Totais, error) {
	var t Totais
	if len(itens) == 0 {
		return t, fmt.Errorf("fiscal: nota sem itens não pode ser totalizada")
	}
	for _, item := range itens {
		if item.NCM == "" {
			return t, fmt.Errorf("fiscal: item %d sem NCM; totalização abortada", item.Ordem)
		}
		if item.CFOP == "" {
			return t, fmt.Errorf("fiscal: item %d sem CFOP; totalização abortada", item.Ordem)
		}

		t.ValorProdutos = t.ValorProdutos.Add(item.ValorBruto)
		t.ValorFrete = t.ValorFrete.Add(item.ValorFrete)
		t.ValorSeguro = t.ValorSeguro.Add(item.ValorSeguro)
		t.ValorDesconto = t.ValorDesconto.Add(item.ValorDesconto)

		t.BaseICMS = t.BaseICMS.Add(item.Tributos.ICMS.Base)
		t.ValorICMS = t.ValorICMS.Add(item.Tributos.ICMS.Valor)
		t.BaseICMSST = t.BaseICMSST.Add(item.Tributos.ICMSST.Base)
		t.ValorICMSST = t.ValorICMSST.Add(item.Tributos.ICMSST.Valor)
		t.ValorIPI = t.ValorIPI.Add(item.Tributos.IPI.Valor)
		t.ValorPIS = t.ValorPIS.Add(item.Tributos.PIS.Valor)
		t.ValorCOFINS = t.ValorCOFINS.Add(item.Tributos.COFINS.Valor)
		t.ValorFCP = t.ValorFCP.Add(item.Tributos.FCP.Valor)
		t.ValorIBS = t.ValorIBS.Add(item.Tributos.IBS.Valor)
		t.ValorCBS = t.ValorCBS.Add(item.Tributos.CBS.Valor)
	}

	t.ValorTotal = t.ValorProdutos.
		Sub(t.ValorDesconto).
		Add(t.ValorFrete).
		Add(t.ValorSeguro).
		Add(t.ValorICMSST).
		Add(t.ValorIPI)

	return t, nil
}

// ConferirTotais valida que os agregados persistidos na nota batem com a soma
// dos itens, com tolerância de um centavo por rubrica.
func ConferirTotais(nota *entity.NotaFiscal, itens []entity.NotaItem) error {
	t, err := TotalizarNota(itens)
	if err != nil {
		return err
	}
	centavo := decimal.New(1, -2)
	conferir := func(nome string, a, b decimal.Decimal) error {
		if a.Sub(b).Abs().GreaterThan(centavo) {
			return fmt.Errorf("fiscal: total de %s (%s) diverge da soma dos itens (%s)", nome, a.StringFixed(2), b.StringFixed(2))
		}
		return nil
	}
	checks := []struct {
		nome string
		a, b decimal.Decimal
	}{
		{"produtos", nota.ValorProdutos, t.ValorProdutos},
		{"ICMS", nota.ValorICMS, t.ValorICMS},
		{"ICMS-ST", nota.ValorICMSST, t.ValorICMSST},
		{"IPI", nota.ValorIPI, t.ValorIPI},
		{"PIS", nota.ValorPIS, t.ValorPIS},
		{"COFINS", nota.ValorCOFINS, t.ValorCOFINS},
		{"FCP", nota.ValorFCP, t.ValorFCP},
		{"nota", nota.ValorTotal, t.ValorTotal},
	}
	for _, c := range checks {
		if err := conferir(c.nome, c.a, c.b); err != nil {
			return err
		}
	}
	return nil
}
