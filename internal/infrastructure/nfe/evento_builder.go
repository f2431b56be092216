package nfe

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain/entity"
	pkgnfe "github.com/jovemegidio/zyntra-fiscal/pkg/nfe"
)

const (
	versaoEvento = "1.00"

	condicaoUsoCCe = "A Carta de Correcao e disciplinada pelo paragrafo 1o-A do art. 7o do Convenio S/N, de 15 de dezembro de 1970 e pode ser utilizada para regularizacao de erro ocorrido na emissao de documento fiscal, desde que o erro nao esteja relacionado com: I - as variaveis que determinam o valor do imposto tais como: base de calculo, aliquota, diferenca de preco, quantidade, valor da operacao ou da prestacao; II - a correcao de dados cadastrais que implique mudanca do remetente ou do destinatario; III - a data de emissao ou de saida."
)

// DadosEvento parâmetros de um evento de cancelamento ou carta de correção.
type DadosEvento struct {
	ChaveAcesso string
	CNPJ        string
	UF          string
	Ambiente    string
	Tipo        string // "110111" cancelamento, "110110" carta de correção
	Sequencia   int
	// Justificativa (cancelamento) ou texto da correção (CC-e).
	Texto     string
	Protocolo string // nProt da autorização; obrigatório no cancelamento
	Momento   time.Time
	Lote      int64
}

// MontarXMLEvento serializa o envEvento 1.00. O Id do infEvento é
// "ID" + tpEvento + chave + sequência em 2 dígitos; é esse elemento que
// recebe a assinatura.
func MontarXMLEvento(d DadosEvento) ([]byte, error) {
	if len(d.ChaveAcesso) != 44 {
		return nil, fmt.Errorf("montar evento: chave de acesso inválida (%q)", d.ChaveAcesso)
	}
	cOrgao := pkgnfe.CodigoUF(d.UF)
	if cOrgao == "" {
		return nil, fmt.Errorf("montar evento: UF desconhecida %q", d.UF)
	}
	if d.Sequencia < 1 || d.Sequencia > 20 {
		return nil, fmt.Errorf("montar evento: sequência %d fora de 1..20", d.Sequencia)
	}

	var buf bytes.Buffer
	w := novoEscritor(&buf)

	w.abre("envEvento", atributo("xmlns", NamespaceNFe), atributo("versao", versaoEvento))
	w.el("idLote", fmt.Sprintf("%d", d.Lote))
	w.abre("evento", atributo("versao", versaoEvento))

	id := fmt.Sprintf("ID%s%s%02d", d.Tipo, d.ChaveAcesso, d.Sequencia)
	w.abre("infEvento", atributo("Id", id))
	w.el("cOrgao", cOrgao)
	w.el("tpAmb", d.Ambiente)
	w.el("CNPJ", SoDigitos(d.CNPJ))
	w.el("chNFe", d.ChaveAcesso)
	w.el("dhEvento", d.Momento.Format(formatoDataHora))
	w.el("tpEvento", d.Tipo)
	w.el("nSeqEvento", fmt.Sprintf("%d", d.Sequencia))
	w.el("verEvento", versaoEvento)

	w.abre("detEvento", atributo("versao", versaoEvento))
	switch d.Tipo {
	case entity.EventoCancelamento:
		w.el("descEvento", "Cancelamento")
		w.el("nProt", d.Protocolo)
		w.el("xJust", Sanitizar(d.Texto, 255))
	case entity.EventoCartaCorrecao:
		w.el("descEvento", "Carta de Correcao")
		w.el("xCorrecao", Sanitizar(d.Texto, 1000))
		w.el("xCondUso", condicaoUsoCCe)
	default:
		return nil, fmt.Errorf("montar evento: tipo %q não suportado", d.Tipo)
	}
	w.fecha("detEvento")

	w.fecha("infEvento")
	w.fecha("evento")
	w.fecha("envEvento")

	if err := w.encerrar(); err != nil {
		return nil, fmt.Errorf("montar evento: %w", err)
	}
	return buf.Bytes(), nil
}

// DadosInutilizacao parâmetros do pedido de inutilização de faixa de numeração.
type DadosInutilizacao struct {
	UF            string
	Ambiente      string
	Ano           int // 2 dígitos (ano corrente)
	CNPJ          string
	Modelo        string
	Serie         int
	NumeroInicial int64
	NumeroFinal   int64
	Justificativa string
}

// MontarXMLInutilizacao serializa o inutNFe 4.00. O Id concatena UF, ano,
// CNPJ, modelo, série e a faixa; é o elemento assinado.
func MontarXMLInutilizacao(d DadosInutilizacao) ([]byte, error) {
	cuf := pkgnfe.CodigoUF(d.UF)
	if cuf == "" {
		return nil, fmt.Errorf("montar inutilização: UF desconhecida %q", d.UF)
	}
	if d.NumeroInicial < 1 || d.NumeroFinal < d.NumeroInicial {
		return nil, fmt.Errorf("montar inutilização: faixa inválida %d..%d", d.NumeroInicial, d.NumeroFinal)
	}

	var buf bytes.Buffer
	w := novoEscritor(&buf)

	w.abre("inutNFe", atributo("xmlns", NamespaceNFe), atributo("versao", VersaoLayout))

	id := fmt.Sprintf("ID%s%02d%s%s%03d%09d%09d",
		cuf, d.Ano%100, SoDigitos(d.CNPJ), d.Modelo, d.Serie, d.NumeroInicial, d.NumeroFinal)
	w.abre("infInut", atributo("Id", id))
	w.el("tpAmb", d.Ambiente)
	w.el("xServ", "INUTILIZAR")
	w.el("cUF", cuf)
	w.el("ano", fmt.Sprintf("%02d", d.Ano%100))
	w.el("CNPJ", SoDigitos(d.CNPJ))
	w.el("mod", d.Modelo)
	w.el("serie", fmt.Sprintf("%d", d.Serie))
	w.el("nNFIni", fmt.Sprintf("%d", d.NumeroInicial))
	w.el("nNFFin", fmt.Sprintf("%d", d.NumeroFinal))
	w.el("xJust", Sanitizar(d.Justificativa, 255))
	w.fecha("infInut")

	w.fecha("inutNFe")

	if err := w.encerrar(); err != nil {
		return nil, fmt.Errorf("montar inutilização: %w", err)
	}
	return buf.Bytes(), nil
}
