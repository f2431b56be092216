package nfe_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain/entity"
	"github.com/jovemegidio/zyntra-fiscal/internal/infrastructure/nfe"
	pkgnfe "github.com/jovemegidio/zyntra-fiscal/pkg/nfe"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

const chaveExemplo = "35260812345678000195550010000000421314159268"

func notaExemplo() *entity.NotaFiscal {
	aut := time.Date(2026, 8, 10, 14, 30, 0, 0, time.FixedZone("-03", -3*3600))
	return &entity.NotaFiscal{
		ID:          "f3b1c2d4-0000-0000-0000-000000000001",
		Numero:      42,
		Serie:       1,
		Modelo:      "55",
		TipoEmissao: "1",
		Emitente: entity.Emitente{
			CNPJ:              "12345678000195",
			RazaoSocial:       "ACME Comércio Ltda",
			InscricaoEstadual: "123.456.789.012",
			CRT:               pkgnfe.CRTRegimeNormal,
			UF:                "SP",
			Municipio:         "São Paulo",
			CodigoMunicipio:   "3550308",
			Logradouro:        "Avenida Paulista",
			Numero:            "1000",
			Bairro:            "Bela Vista",
			CEP:               "01310-100",
		},
		Destinatario: entity.Destinatario{
			CNPJ:            "98765432000198",
			RazaoSocial:     "Cliente Exemplo S/A",
			IndIEDest:       "9",
			UF:              "SP",
			Municipio:       "Campinas",
			CodigoMunicipio: "3509502",
			Logradouro:      "Rua das Flores",
			Numero:          "25",
			Bairro:          "Centro",
			CEP:             "13010-000",
		},
		ValorProdutos: dec("1000.00"),
		ValorTotal:    dec("1180.00"),
		BaseICMS:      dec("1000.00"),
		ValorICMS:     dec("180.00"),
		ValorPIS:      dec("16.50"),
		ValorCOFINS:   dec("76.00"),
		Status:        entity.StatusPendente,
		ChaveAcesso:   chaveExemplo,
		DataEmissao:   aut,
	}
}

func itensExemplo() []entity.NotaItem {
	return []entity.NotaItem{{
		Ordem:         1,
		Codigo:        "PROD-001",
		Descricao:     "Refrigerante Guaraná 2L",
		NCM:           "22021000",
		CFOP:          "5102",
		Unidade:       "UN",
		Quantidade:    dec("10"),
		ValorUnitario: dec("100.00"),
		ValorBruto:    dec("1000.00"),
		Tributos: entity.TributosItem{
			CST:    pkgnfe.CSTTributadaIntegralmente,
			ICMS:   entity.Tributo{Base: dec("1000.00"), Aliquota: dec("18"), Valor: dec("180.00")},
			PIS:    entity.Tributo{Base: dec("1000.00"), Aliquota: dec("1.65"), Valor: dec("16.50")},
			COFINS: entity.Tributo{Base: dec("1000.00"), Aliquota: dec("7.6"), Valor: dec("76.00")},
		},
	}}
}

func dadosExemplo() nfe.DadosEmissao {
	return nfe.DadosEmissao{
		Nota:             notaExemplo(),
		Itens:            itensExemplo(),
		Ambiente:         pkgnfe.AmbienteProducao,
		NaturezaOperacao: "Venda de Mercadoria",
		FormaPagamento:   "01",
		ModalidadeFrete:  "9",
		VersaoAplicativo: "zyntra-1.0",
		CodigoNumerico:   "31415926",
	}
}

// índices crescentes garantem a ordem fixa dos grupos do layout.
func indicesOrdenados(t *testing.T, xml string, marcas ...string) {
	t.Helper()
	ultimo := -1
	for _, m := range marcas {
		i := strings.Index(xml, m)
		require.GreaterOrEqualf(t, i, 0, "marca %q ausente no XML", m)
		assert.Greaterf(t, i, ultimo, "marca %q fora de ordem", m)
		ultimo = i
	}
}

func TestMontarXML_OrdemDosGrupos(t *testing.T) {
	saida, err := nfe.MontarXML(dadosExemplo())
	require.NoError(t, err)
	xml := string(saida)

	indicesOrdenados(t, xml,
		"<NFe", "<infNFe", "<ide>", "<emit>", "<dest>", "<det ",
		"<total>", "<transp>", "<pag>", "</infNFe>")

	// Dentro de imposto: ICMS antes de PIS, PIS antes de COFINS.
	indicesOrdenados(t, xml, "<imposto>", "<ICMS>", "<PIS>", "<COFINS>", "</imposto>")
}

func TestMontarXML_IdentificacaoEChave(t *testing.T) {
	saida, err := nfe.MontarXML(dadosExemplo())
	require.NoError(t, err)
	xml := string(saida)

	assert.Contains(t, xml, `Id="NFe`+chaveExemplo+`"`)
	assert.Contains(t, xml, `versao="4.00"`)
	assert.Contains(t, xml, "<cUF>35</cUF>")
	assert.Contains(t, xml, "<cNF>31415926</cNF>")
	assert.Contains(t, xml, "<nNF>42</nNF>")
	assert.Contains(t, xml, "<serie>1</serie>")
	assert.Contains(t, xml, "<cDV>8</cDV>", "cDV vem do último dígito da chave")
	assert.Contains(t, xml, "<dhEmi>2026-08-10T14:30:00-03:00</dhEmi>")
	assert.Contains(t, xml, "<idDest>1</idDest>", "SP→SP é operação interna")
}

func TestMontarXML_SanitizaTextos(t *testing.T) {
	saida, err := nfe.MontarXML(dadosExemplo())
	require.NoError(t, err)
	xml := string(saida)

	assert.Contains(t, xml, "<natOp>Venda de Mercadoria</natOp>")
	assert.Contains(t, xml, "<xNome>ACME Comercio Ltda</xNome>", "acentos caem na serialização")
	assert.Contains(t, xml, "<xMun>Sao Paulo</xMun>")
	assert.Contains(t, xml, "<IE>123456789012</IE>", "IE só com dígitos")
	assert.Contains(t, xml, "<CEP>01310100</CEP>")
}

func TestMontarXML_HomologacaoTrocaNomeDoDestinatario(t *testing.T) {
	d := dadosExemplo()
	d.Ambiente = pkgnfe.AmbienteHomologacao

	saida, err := nfe.MontarXML(d)
	require.NoError(t, err)
	xml := string(saida)

	assert.Contains(t, xml, "NF-E EMITIDA EM AMBIENTE DE HOMOLOGACAO - SEM VALOR FISCAL")
	assert.NotContains(t, xml, "Cliente Exemplo")
	assert.Contains(t, xml, "<tpAmb>2</tpAmb>")
}

func TestMontarXML_PagamentoSemIndPag(t *testing.T) {
	saida, err := nfe.MontarXML(dadosExemplo())
	require.NoError(t, err)
	xml := string(saida)

	assert.Contains(t, xml, "<tPag>01</tPag>")
	assert.Contains(t, xml, "<vPag>1180.00</vPag>")
	assert.NotContains(t, xml, "indPag", "indicador descontinuado não pode aparecer")
}

func TestMontarXML_GruposOpcionais(t *testing.T) {
	// Sem frete, seguro ou desconto no item, os elementos não são emitidos.
	saida, err := nfe.MontarXML(dadosExemplo())
	require.NoError(t, err)
	xml := string(saida)
	assert.NotContains(t, xml, "<vFrete></vFrete>")
	assert.NotContains(t, xml, "<infAdic>")
	assert.NotContains(t, xml, "<IPI>", "IPI zerado não entra")
	assert.NotContains(t, xml, "<IBSCBS>", "grupo da reforma só com a flag ligada")
	assert.Contains(t, xml, "<cEAN>SEM GTIN</cEAN>", "item sem GTIN recebe o literal")

	d := dadosExemplo()
	d.Nota.InformacoesAdicionais = "Pedido de compra 889"
	saida, err = nfe.MontarXML(d)
	require.NoError(t, err)
	assert.Contains(t, string(saida), "<infCpl>Pedido de compra 889</infCpl>")
}

func TestMontarXML_ReformaTributaria(t *testing.T) {
	d := dadosExemplo()
	d.ReformaTributaria = true
	d.Itens[0].Tributos.IBS = entity.Tributo{Base: dec("1000.00"), Aliquota: dec("8.8"), Valor: dec("88.00")}
	d.Itens[0].Tributos.CBS = entity.Tributo{Base: dec("1000.00"), Aliquota: dec("0.9"), Valor: dec("9.00")}

	saida, err := nfe.MontarXML(d)
	require.NoError(t, err)
	xml := string(saida)

	// IBSCBS é o último grupo de imposto.
	indicesOrdenados(t, xml, "<ICMS>", "<PIS>", "<COFINS>", "<IBSCBS>", "</imposto>")
	assert.Contains(t, xml, "<vIBS>88.00</vIBS>")
	assert.Contains(t, xml, "<vCBS>9.00</vCBS>")
}

func TestMontarXML_GruposICMS(t *testing.T) {
	t.Run("simples nacional", func(t *testing.T) {
		d := dadosExemplo()
		d.Itens[0].Tributos.CST = ""
		d.Itens[0].Tributos.CSOSN = pkgnfe.CSOSNTributadaSemCredito
		saida, err := nfe.MontarXML(d)
		require.NoError(t, err)
		assert.Contains(t, string(saida), "<ICMSSN102>")
		assert.Contains(t, string(saida), "<CSOSN>102</CSOSN>")
	})

	t.Run("substituicao tributaria", func(t *testing.T) {
		d := dadosExemplo()
		d.Itens[0].Tributos.CST = pkgnfe.CSTTributadaComST
		d.Itens[0].Tributos.ICMSST = entity.Tributo{Base: dec("1400.00"), Aliquota: dec("18"), Valor: dec("72.00")}
		saida, err := nfe.MontarXML(d)
		require.NoError(t, err)
		assert.Contains(t, string(saida), "<ICMS10>")
		assert.Contains(t, string(saida), "<vBCST>1400.00</vBCST>")
		assert.Contains(t, string(saida), "<modBCST>4</modBCST>")
	})

	t.Run("cobrado anteriormente", func(t *testing.T) {
		d := dadosExemplo()
		d.Itens[0].Tributos.CST = pkgnfe.CSTCobradoAnteriormenteST
		saida, err := nfe.MontarXML(d)
		require.NoError(t, err)
		assert.Contains(t, string(saida), "<ICMS60>")
	})
}

func TestMontarXML_Validacoes(t *testing.T) {
	d := dadosExemplo()
	d.Nota = nil
	_, err := nfe.MontarXML(d)
	assert.Error(t, err)

	d = dadosExemplo()
	d.Nota.ChaveAcesso = "123"
	_, err = nfe.MontarXML(d)
	assert.Error(t, err, "chave curta aborta a montagem")

	d = dadosExemplo()
	d.Itens = nil
	_, err = nfe.MontarXML(d)
	assert.Error(t, err, "nota sem itens não vira documento")
}
