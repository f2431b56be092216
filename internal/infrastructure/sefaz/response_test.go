package sefaz

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(payload string) []byte {
	return []byte(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">` +
		`<soap:Body><nfeResultMsg xmlns="http://www.portalfiscal.inf.br/nfe/wsdl/NFeAutorizacao4">` +
		payload +
		`</nfeResultMsg></soap:Body></soap:Envelope>`)
}

func TestParseAutorizacao_SincronoComProtocolo(t *testing.T) {
	corpo := envelope(`<retEnviNFe versao="4.00" xmlns="http://www.portalfiscal.inf.br/nfe">` +
		`<tpAmb>2</tpAmb><cStat>104</cStat><xMotivo>Lote processado</xMotivo>` +
		`<protNFe versao="4.00"><infProt>` +
		`<chNFe>35260812345678000195550010000000421314159268</chNFe>` +
		`<dhRecbto>2026-08-10T14:31:02-03:00</dhRecbto>` +
		`<nProt>135260000000123</nProt>` +
		`<cStat>100</cStat><xMotivo>Autorizado o uso da NF-e</xMotivo>` +
		`</infProt></protNFe></retEnviNFe>`)

	r, err := parseAutorizacao(corpo, zerolog.Nop())
	require.NoError(t, err)

	// O cStat 104 do lote cede lugar ao desfecho da nota embutido no protNFe.
	assert.Equal(t, "100", r.CStat)
	assert.Equal(t, "Autorizado o uso da NF-e", r.XMotivo)
	assert.Equal(t, "135260000000123", r.Protocolo)
	assert.Equal(t, "35260812345678000195550010000000421314159268", r.Chave)
	assert.Equal(t, "2026-08-10T14:31:02-03:00", r.DataRecebimento)
	assert.True(t, r.Autorizado())
	assert.Equal(t, corpo, r.XMLBruto, "o XML bruto fica disponível para arquivamento")
}

func TestParseAutorizacao_Rejeicao(t *testing.T) {
	corpo := envelope(`<retEnviNFe versao="4.00" xmlns="http://www.portalfiscal.inf.br/nfe">` +
		`<cStat>104</cStat><xMotivo>Lote processado</xMotivo>` +
		`<protNFe versao="4.00"><infProt>` +
		`<cStat>539</cStat><xMotivo>Rejeicao: Duplicidade de NF-e com diferenca na Chave de Acesso</xMotivo>` +
		`</infProt></protNFe></retEnviNFe>`)

	r, err := parseAutorizacao(corpo, zerolog.Nop())
	require.NoError(t, err, "rejeição é desfecho de negócio, não erro de transporte")
	assert.Equal(t, "539", r.CStat)
	assert.Equal(t, "Rejeicao: Duplicidade de NF-e com diferenca na Chave de Acesso", r.XMotivo)
	assert.False(t, r.Autorizado())
	assert.Empty(t, r.Protocolo)
}

func TestParseAutorizacao_LoteAssincrono(t *testing.T) {
	corpo := envelope(`<retEnviNFe versao="4.00" xmlns="http://www.portalfiscal.inf.br/nfe">` +
		`<cStat>103</cStat><xMotivo>Lote recebido com sucesso</xMotivo>` +
		`<infRec><nRec>351000012345678</nRec><tMed>1</tMed></infRec></retEnviNFe>`)

	r, err := parseAutorizacao(corpo, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, CStatLoteRecebido, r.CStat)
	assert.Equal(t, "351000012345678", r.Recibo)
	assert.True(t, r.EmProcessamento())
}

func TestParseConsultaRecibo(t *testing.T) {
	corpo := envelope(`<retConsReciNFe versao="4.00" xmlns="http://www.portalfiscal.inf.br/nfe">` +
		`<cStat>104</cStat><xMotivo>Lote processado</xMotivo><nRec>351000012345678</nRec>` +
		`<protNFe versao="4.00"><infProt>` +
		`<chNFe>35260812345678000195550010000000421314159268</chNFe>` +
		`<nProt>135260000000124</nProt>` +
		`<cStat>100</cStat><xMotivo>Autorizado o uso da NF-e</xMotivo>` +
		`</infProt></protNFe></retConsReciNFe>`)

	r, err := parseConsultaRecibo(corpo, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "100", r.CStat)
	assert.Equal(t, "135260000000124", r.Protocolo)

	// Lote ainda em processamento: sem protNFe, o cStat do lote prevalece.
	corpo = envelope(`<retConsReciNFe versao="4.00" xmlns="http://www.portalfiscal.inf.br/nfe">` +
		`<cStat>105</cStat><xMotivo>Lote em processamento</xMotivo><nRec>351000012345678</nRec></retConsReciNFe>`)
	r, err = parseConsultaRecibo(corpo, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, r.EmProcessamento())
}

func TestParseEvento(t *testing.T) {
	corpo := envelope(`<retEnvEvento versao="1.00" xmlns="http://www.portalfiscal.inf.br/nfe">` +
		`<cStat>128</cStat><xMotivo>Lote de evento processado</xMotivo>` +
		`<retEvento versao="1.00"><infEvento>` +
		`<cStat>135</cStat><xMotivo>Evento registrado e vinculado a NF-e</xMotivo>` +
		`<chNFe>35260812345678000195550010000000421314159268</chNFe>` +
		`<nProt>135260000000200</nProt>` +
		`<dhRegEvento>2026-08-11T09:01:00-03:00</dhRegEvento>` +
		`</infEvento></retEvento></retEnvEvento>`)

	r, err := parseEvento(corpo, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, CStatEventoRegistrado, r.CStat)
	assert.Equal(t, "135260000000200", r.Protocolo)
	assert.True(t, r.EventoHomologado())

	// 155 (cancelamento fora de prazo) ainda conta como homologado.
	assert.True(t, (&Retorno{CStat: CStatCanceladoForaPrazo}).EventoHomologado())
	assert.False(t, (&Retorno{CStat: "573"}).EventoHomologado())
}

func TestParseInutilizacao(t *testing.T) {
	corpo := envelope(`<retInutNFe versao="4.00" xmlns="http://www.portalfiscal.inf.br/nfe">` +
		`<infInut><tpAmb>1</tpAmb>` +
		`<cStat>102</cStat><xMotivo>Inutilizacao de numero homologado</xMotivo>` +
		`<nProt>135260000000300</nProt>` +
		`<dhRecbto>2026-08-12T10:00:00-03:00</dhRecbto>` +
		`</infInut></retInutNFe>`)

	r, err := parseInutilizacao(corpo, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, CStatInutilizado, r.CStat)
	assert.Equal(t, "135260000000300", r.Protocolo)
}

func TestParseStatusServico(t *testing.T) {
	corpo := envelope(`<retConsStatServ versao="4.00" xmlns="http://www.portalfiscal.inf.br/nfe">` +
		`<cStat>107</cStat><xMotivo>Servico em Operacao</xMotivo>` +
		`<tMed>1</tMed><dhRecbto>2026-08-10T08:00:00-03:00</dhRecbto></retConsStatServ>`)

	r, err := parseStatusServico(corpo, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, CStatServicoEmOperacao, r.CStat)
	assert.Equal(t, "Servico em Operacao", r.XMotivo)
}

// Autorizadores ocasionalmente devolvem XML fora do layout tipado; a varredura
// ainda extrai os campos essenciais.
func TestFallbackEtree(t *testing.T) {
	corpo := []byte(`<resposta><processamento>` +
		`<cStat>100</cStat><xMotivo>Autorizado o uso da NF-e</xMotivo>` +
		`<detalhe><nProt>135260000000400</nProt></detalhe>` +
		`</processamento></resposta>`)

	r, err := fallbackEtree(corpo, "retEnviNFe", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "100", r.CStat)
	assert.Equal(t, "135260000000400", r.Protocolo)
}

func TestFallbackEtree_SemCStat(t *testing.T) {
	_, err := fallbackEtree([]byte(`<resposta><ok/></resposta>`), "retEnviNFe", zerolog.Nop())
	assert.Error(t, err)

	_, err = fallbackEtree([]byte(`não é xml`), "retEnviNFe", zerolog.Nop())
	assert.Error(t, err)
}

func TestPayloadResposta_EnvelopeInvalido(t *testing.T) {
	_, err := payloadResposta([]byte(`<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope"><soap:Body/></soap:Envelope>`))
	assert.Error(t, err, "envelope sem nfeResultMsg")

	_, err = payloadResposta([]byte(`<<<`))
	assert.Error(t, err)
}
