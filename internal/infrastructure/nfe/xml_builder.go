package nfe

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain/entity"
	pkgnfe "github.com/jovemegidio/zyntra-fiscal/pkg/nfe"
)

const (
	// NamespaceNFe namespace do Portal Fiscal para todos os documentos NFe.
	NamespaceNFe = pkgnfe.NamespacePortal
	// VersaoLayout versão do layout da NF-e.
	VersaoLayout = "4.00"

	formatoDataHora = "2006-01-02T15:04:05-07:00"
)

// MontarXML serializa a NFe no layout 4.00. A ordem dos elementos é fixa e
// garantida pela ordem de emissão dos tokens: ide, emit, dest, det (prod e
// imposto na ordem ICMS, IPI, PIS, COFINS, IBS/CBS), total, transp, pag e
// infAdic. Nenhum grupo opcional vazio é emitido.
func MontarXML(d DadosEmissao) ([]byte, error) {
	nota := d.Nota
	if nota == nil {
		return nil, fmt.Errorf("montar xml: nota ausente")
	}
	if len(nota.ChaveAcesso) != 44 {
		return nil, fmt.Errorf("montar xml: chave de acesso inválida (%q)", nota.ChaveAcesso)
	}
	if len(d.Itens) == 0 {
		return nil, fmt.Errorf("montar xml: nota sem itens")
	}

	var buf bytes.Buffer
	w := novoEscritor(&buf)

	w.abre("NFe", atributo("xmlns", NamespaceNFe))
	w.abre("infNFe", atributo("Id", "NFe"+nota.ChaveAcesso), atributo("versao", VersaoLayout))

	escreverIde(w, d)
	escreverEmit(w, &nota.Emitente)
	escreverDest(w, &nota.Destinatario, d.Ambiente)
	for i := range d.Itens {
		escreverDet(w, &d.Itens[i], d.ReformaTributaria)
	}
	escreverTotal(w, nota)
	escreverTransp(w, d.ModalidadeFrete)
	escreverPag(w, d.FormaPagamento, nota.ValorTotal)
	if inf := Sanitizar(nota.InformacoesAdicionais, 2000); inf != "" {
		w.abre("infAdic")
		w.el("infCpl", inf)
		w.fecha("infAdic")
	}

	w.fecha("infNFe")
	w.fecha("NFe")

	if err := w.encerrar(); err != nil {
		return nil, fmt.Errorf("montar xml: %w", err)
	}
	return buf.Bytes(), nil
}

func escreverIde(w *escritorXML, d DadosEmissao) {
	nota := d.Nota
	cuf := pkgnfe.CodigoUF(nota.Emitente.UF)

	w.abre("ide")
	w.el("cUF", cuf)
	w.el("cNF", d.CodigoNumerico)
	w.el("natOp", Sanitizar(d.NaturezaOperacao, 60))
	w.el("mod", nota.Modelo)
	w.el("serie", fmt.Sprintf("%d", nota.Serie))
	w.el("nNF", fmt.Sprintf("%d", nota.Numero))
	w.el("dhEmi", nota.DataEmissao.Format(formatoDataHora))
	w.el("tpNF", "1") // saída
	if nota.Emitente.UF == nota.Destinatario.UF {
		w.el("idDest", "1")
	} else {
		w.el("idDest", "2")
	}
	w.el("cMunFG", nota.Emitente.CodigoMunicipio)
	w.el("tpImp", "1")
	w.el("tpEmis", nota.TipoEmissao)
	w.el("cDV", nota.ChaveAcesso[43:])
	w.el("tpAmb", d.Ambiente)
	w.el("finNFe", "1")
	w.el("indFinal", "1")
	w.el("indPres", "9")
	w.el("procEmi", "0")
	w.el("verProc", d.VersaoAplicativo)
	w.fecha("ide")
}

func escreverEmit(w *escritorXML, e *entity.Emitente) {
	w.abre("emit")
	w.el("CNPJ", SoDigitos(e.CNPJ))
	w.el("xNome", Sanitizar(e.RazaoSocial, 60))
	w.abre("enderEmit")
	w.el("xLgr", Sanitizar(e.Logradouro, 60))
	w.el("nro", Sanitizar(e.Numero, 60))
	w.el("xBairro", Sanitizar(e.Bairro, 60))
	w.el("cMun", e.CodigoMunicipio)
	w.el("xMun", Sanitizar(e.Municipio, 60))
	w.el("UF", e.UF)
	w.el("CEP", SoDigitos(e.CEP))
	w.fecha("enderEmit")
	w.el("IE", SoDigitos(e.InscricaoEstadual))
	w.el("CRT", e.CRT)
	w.fecha("emit")
}

func escreverDest(w *escritorXML, d *entity.Destinatario, ambiente string) {
	w.abre("dest")
	if doc := SoDigitos(d.Documento()); len(doc) == 14 {
		w.el("CNPJ", doc)
	} else {
		w.el("CPF", doc)
	}
	// Em homologação a SEFAZ exige a razão social de teste.
	if ambiente == pkgnfe.AmbienteHomologacao {
		w.el("xNome", "NF-E EMITIDA EM AMBIENTE DE HOMOLOGACAO - SEM VALOR FISCAL")
	} else {
		w.el("xNome", Sanitizar(d.RazaoSocial, 60))
	}
	w.abre("enderDest")
	w.el("xLgr", Sanitizar(d.Logradouro, 60))
	w.el("nro", Sanitizar(d.Numero, 60))
	w.el("xBairro", Sanitizar(d.Bairro, 60))
	w.el("cMun", d.CodigoMunicipio)
	w.el("xMun", Sanitizar(d.Municipio, 60))
	w.el("UF", d.UF)
	w.el("CEP", SoDigitos(d.CEP))
	w.fecha("enderDest")
	w.el("indIEDest", d.IndIEDest)
	if d.InscricaoEstadual != "" {
		w.el("IE", SoDigitos(d.InscricaoEstadual))
	}
	w.fecha("dest")
}

func escreverDet(w *escritorXML, item *entity.NotaItem, reforma bool) {
	w.abre("det", atributo("nItem", fmt.Sprintf("%d", item.Ordem)))

	gtin := item.GTIN
	if gtin == "" {
		gtin = "SEM GTIN"
	}
	w.abre("prod")
	w.el("cProd", Sanitizar(item.Codigo, 60))
	w.el("cEAN", gtin)
	w.el("xProd", Sanitizar(item.Descricao, 120))
	w.el("NCM", item.NCM)
	w.el("CFOP", item.CFOP)
	w.el("uCom", item.Unidade)
	w.el("qCom", item.Quantidade.StringFixed(4))
	w.el("vUnCom", item.ValorUnitario.StringFixed(4))
	w.el("vProd", item.ValorBruto.StringFixed(2))
	w.el("cEANTrib", gtin)
	w.el("uTrib", item.Unidade)
	w.el("qTrib", item.Quantidade.StringFixed(4))
	w.el("vUnTrib", item.ValorUnitario.StringFixed(4))
	w.elPositivo("vFrete", item.ValorFrete)
	w.elPositivo("vSeg", item.ValorSeguro)
	w.elPositivo("vDesc", item.ValorDesconto)
	w.el("indTot", "1")
	w.fecha("prod")

	w.abre("imposto")
	escreverICMS(w, &item.Tributos)
	if item.Tributos.IPI.Valor.IsPositive() {
		escreverIPI(w, &item.Tributos.IPI)
	}
	escreverPIS(w, &item.Tributos.PIS)
	escreverCOFINS(w, &item.Tributos.COFINS)
	if reforma {
		escreverIBSCBS(w, &item.Tributos)
	}
	w.fecha("imposto")

	w.fecha("det")
}

// escreverICMS escolhe o grupo conforme o regime: CSOSN para Simples Nacional,
// CST para regime normal (com o grupo ST quando houver substituição).
func escreverICMS(w *escritorXML, t *entity.TributosItem) {
	w.abre("ICMS")
	switch {
	case t.CSOSN != "":
		w.abre("ICMSSN102")
		w.el("orig", "0")
		w.el("CSOSN", t.CSOSN)
		w.fecha("ICMSSN102")
	case t.CST == pkgnfe.CSTTributadaComST:
		w.abre("ICMS10")
		w.el("orig", "0")
		w.el("CST", t.CST)
		w.el("modBC", "3")
		w.el("vBC", t.ICMS.Base.StringFixed(2))
		w.el("pICMS", t.ICMS.Aliquota.StringFixed(2))
		w.el("vICMS", t.ICMS.Valor.StringFixed(2))
		w.el("modBCST", "4")
		w.el("vBCST", t.ICMSST.Base.StringFixed(2))
		w.el("pICMSST", t.ICMSST.Aliquota.StringFixed(2))
		w.el("vICMSST", t.ICMSST.Valor.StringFixed(2))
		w.fecha("ICMS10")
	case t.CST == pkgnfe.CSTTributadaIntegralmente:
		w.abre("ICMS00")
		w.el("orig", "0")
		w.el("CST", t.CST)
		w.el("modBC", "3")
		w.el("vBC", t.ICMS.Base.StringFixed(2))
		w.el("pICMS", t.ICMS.Aliquota.StringFixed(2))
		w.el("vICMS", t.ICMS.Valor.StringFixed(2))
		w.fecha("ICMS00")
	case t.CST == pkgnfe.CSTCobradoAnteriormenteST:
		w.abre("ICMS60")
		w.el("orig", "0")
		w.el("CST", t.CST)
		w.fecha("ICMS60")
	default:
		w.abre("ICMS40")
		w.el("orig", "0")
		w.el("CST", t.CST)
		w.fecha("ICMS40")
	}
	w.fecha("ICMS")
}

func escreverIPI(w *escritorXML, ipi *entity.Tributo) {
	w.abre("IPI")
	w.el("cEnq", "999")
	w.abre("IPITrib")
	w.el("CST", "50")
	w.el("vBC", ipi.Base.StringFixed(2))
	w.el("pIPI", ipi.Aliquota.StringFixed(2))
	w.el("vIPI", ipi.Valor.StringFixed(2))
	w.fecha("IPITrib")
	w.fecha("IPI")
}

func escreverPIS(w *escritorXML, pis *entity.Tributo) {
	w.abre("PIS")
	w.abre("PISAliq")
	w.el("CST", "01")
	w.el("vBC", pis.Base.StringFixed(2))
	w.el("pPIS", pis.Aliquota.StringFixed(2))
	w.el("vPIS", pis.Valor.StringFixed(2))
	w.fecha("PISAliq")
	w.fecha("PIS")
}

func escreverCOFINS(w *escritorXML, cofins *entity.Tributo) {
	w.abre("COFINS")
	w.abre("COFINSAliq")
	w.el("CST", "01")
	w.el("vBC", cofins.Base.StringFixed(2))
	w.el("pCOFINS", cofins.Aliquota.StringFixed(2))
	w.el("vCOFINS", cofins.Valor.StringFixed(2))
	w.fecha("COFINSAliq")
	w.fecha("COFINS")
}

// escreverIBSCBS emite o grupo da reforma tributária, sempre por último dentro
// de imposto.
func escreverIBSCBS(w *escritorXML, t *entity.TributosItem) {
	w.abre("IBSCBS")
	w.el("CST", "000")
	w.el("cClassTrib", "000001")
	w.abre("gIBSCBS")
	w.el("vBC", t.IBS.Base.StringFixed(2))
	w.abre("gIBS")
	w.el("pIBS", t.IBS.Aliquota.StringFixed(2))
	w.el("vIBS", t.IBS.Valor.StringFixed(2))
	w.fecha("gIBS")
	w.abre("gCBS")
	w.el("pCBS", t.CBS.Aliquota.StringFixed(2))
	w.el("vCBS", t.CBS.Valor.StringFixed(2))
	w.fecha("gCBS")
	w.fecha("gIBSCBS")
	w.fecha("IBSCBS")
}

func escreverTotal(w *escritorXML, nota *entity.NotaFiscal) {
	zero := decimal.Zero
	w.abre("total")
	w.abre("ICMSTot")
	w.el("vBC", nota.BaseICMS.StringFixed(2))
	w.el("vICMS", nota.ValorICMS.StringFixed(2))
	w.el("vICMSDeson", zero.StringFixed(2))
	w.el("vFCP", nota.ValorFCP.StringFixed(2))
	w.el("vBCST", nota.BaseICMSST.StringFixed(2))
	w.el("vST", nota.ValorICMSST.StringFixed(2))
	w.el("vProd", nota.ValorProdutos.StringFixed(2))
	w.el("vFrete", nota.ValorFrete.StringFixed(2))
	w.el("vSeg", nota.ValorSeguro.StringFixed(2))
	w.el("vDesc", nota.ValorDesconto.StringFixed(2))
	w.el("vII", zero.StringFixed(2))
	w.el("vIPI", nota.ValorIPI.StringFixed(2))
	w.el("vIPIDevol", zero.StringFixed(2))
	w.el("vPIS", nota.ValorPIS.StringFixed(2))
	w.el("vCOFINS", nota.ValorCOFINS.StringFixed(2))
	w.el("vOutro", zero.StringFixed(2))
	w.el("vNF", nota.ValorTotal.StringFixed(2))
	w.fecha("ICMSTot")
	w.fecha("total")
}

func escreverTransp(w *escritorXML, modFrete string) {
	if modFrete == "" {
		modFrete = "9"
	}
	w.abre("transp")
	w.el("modFrete", modFrete)
	w.fecha("transp")
}

// escreverPag emite o pagamento sem indPag: o indicador foi descontinuado e
// autorizadores rejeitam documentos que o carregam.
func escreverPag(w *escritorXML, tPag string, valor decimal.Decimal) {
	if tPag == "" {
		tPag = pkgnfe.PagamentoOutros
	}
	w.abre("pag")
	w.abre("detPag")
	w.el("tPag", tPag)
	w.el("vPag", valor.StringFixed(2))
	w.fecha("detPag")
	w.fecha("pag")
}

// escritorXML emissor sequencial de tokens; acumula o primeiro erro e vira
// no-op depois dele.
type escritorXML struct {
	enc *xml.Encoder
	err error
}

func novoEscritor(buf *bytes.Buffer) *escritorXML {
	return &escritorXML{enc: xml.NewEncoder(buf)}
}

func atributo(nome, valor string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: nome}, Value: valor}
}

func (w *escritorXML) abre(nome string, attrs ...xml.Attr) {
	if w.err != nil {
		return
	}
	w.err = w.enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: nome}, Attr: attrs})
}

func (w *escritorXML) fecha(nome string) {
	if w.err != nil {
		return
	}
	w.err = w.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: nome}})
}

func (w *escritorXML) el(nome, valor string) {
	w.abre(nome)
	if w.err == nil {
		w.err = w.enc.EncodeToken(xml.CharData(valor))
	}
	w.fecha(nome)
}

// elPositivo emite o elemento apenas quando o valor é maior que zero.
func (w *escritorXML) elPositivo(nome string, valor decimal.Decimal) {
	if valor.IsPositive() {
		w.el(nome, valor.StringFixed(2))
	}
}

func (w *escritorXML) encerrar() error {
	if w.err != nil {
		return w.err
	}
	return w.enc.Flush()
}
