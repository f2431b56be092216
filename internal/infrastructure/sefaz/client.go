// Cliente SOAP 1.2 dos webservices SEFAZ (NFe 4.00). TLS mútuo com o
// certificado A1 do emitente, retry com backoff para falhas transitórias e
// cache curto para a consulta de status de serviço.

package sefaz

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jovemegidio/zyntra-fiscal/pkg/config"
	pkgnfe "github.com/jovemegidio/zyntra-fiscal/pkg/nfe"
	"github.com/jovemegidio/zyntra-fiscal/pkg/ttlcache"
)

const (
	soapNS     = "http://www.w3.org/2003/05/soap-envelope"
	wsdlPrefix = "http://www.portalfiscal.inf.br/nfe/wsdl/"

	maxResposta = 1 << 20 // 1 MB
)

// Submissor porta de saída para a comunicação com a SEFAZ. A implementação
// concreta é o Cliente SOAP; os testes injetam um dublê.
type Submissor interface {
	// Autorizar envia a NFe assinada dentro de um enviNFe síncrono.
	Autorizar(ctx context.Context, xmlAssinado []byte, lote int64) (*Retorno, error)
	// ConsultarRecibo consulta o desfecho de um lote assíncrono (nRec).
	ConsultarRecibo(ctx context.Context, recibo string) (*Retorno, error)
	// EnviarEvento envia um envEvento assinado (cancelamento, carta de correção).
	EnviarEvento(ctx context.Context, xmlAssinado []byte) (*Retorno, error)
	// Inutilizar envia um inutNFe assinado.
	Inutilizar(ctx context.Context, xmlAssinado []byte) (*Retorno, error)
	// StatusServico consulta a disponibilidade do autorizador (com cache).
	StatusServico(ctx context.Context) (*Retorno, error)
}

var _ Submissor = (*Cliente)(nil)

// Cliente implementação SOAP do Submissor.
type Cliente struct {
	http        *http.Client
	log         zerolog.Logger
	uf          string
	ambiente    string
	retry       PoliticaRetry
	cacheStatus *ttlcache.Cache[*Retorno]
}

// NewCliente constrói o cliente com TLS mútuo (certificado A1) e TLS >= 1.2,
// requisito dos autorizadores.
func NewCliente(cfg config.SEFAZConfig, nfeCfg config.NFeConfig, cert tls.Certificate, log zerolog.Logger) *Cliente {
	transporte := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
		},
	}
	return &Cliente{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transporte,
		},
		log:      log,
		uf:       nfeCfg.UF,
		ambiente: nfeCfg.Ambiente,
		retry: PoliticaRetry{
			MaxTentativas:  cfg.MaxTentativas,
			BackoffInicial: cfg.BackoffInicial,
			BackoffMaximo:  cfg.BackoffMaximo,
		},
		cacheStatus: ttlcache.New[*Retorno](cfg.StatusCacheTTL, 8),
	}
}

// Autorizar embrulha a NFe assinada em enviNFe (processamento síncrono,
// indSinc=1) e envia ao autorizador da UF.
func (c *Cliente) Autorizar(ctx context.Context, xmlAssinado []byte, lote int64) (*Retorno, error) {
	var payload bytes.Buffer
	payload.WriteString(`<enviNFe xmlns="` + pkgnfe.NamespacePortal + `" versao="4.00">`)
	payload.WriteString(fmt.Sprintf("<idLote>%d</idLote><indSinc>1</indSinc>", lote))
	payload.Write(xmlAssinado)
	payload.WriteString(`</enviNFe>`)

	corpo, err := c.chamar(ctx, OperacaoAutorizacao, payload.Bytes())
	if err != nil {
		return nil, err
	}
	return parseAutorizacao(corpo, c.log)
}

// ConsultarRecibo consulta o lote pelo nRec devolvido numa autorização
// assíncrona.
func (c *Cliente) ConsultarRecibo(ctx context.Context, recibo string) (*Retorno, error) {
	payload := fmt.Sprintf(
		`<consReciNFe xmlns="%s" versao="4.00"><tpAmb>%s</tpAmb><nRec>%s</nRec></consReciNFe>`,
		pkgnfe.NamespacePortal, c.ambiente, recibo)

	corpo, err := c.chamar(ctx, OperacaoRetAutorizacao, []byte(payload))
	if err != nil {
		return nil, err
	}
	return parseConsultaRecibo(corpo, c.log)
}

// EnviarEvento envia o envEvento já assinado.
func (c *Cliente) EnviarEvento(ctx context.Context, xmlAssinado []byte) (*Retorno, error) {
	corpo, err := c.chamar(ctx, OperacaoRecepcaoEvento, xmlAssinado)
	if err != nil {
		return nil, err
	}
	return parseEvento(corpo, c.log)
}

// Inutilizar envia o inutNFe já assinado.
func (c *Cliente) Inutilizar(ctx context.Context, xmlAssinado []byte) (*Retorno, error) {
	corpo, err := c.chamar(ctx, OperacaoInutilizacao, xmlAssinado)
	if err != nil {
		return nil, err
	}
	return parseInutilizacao(corpo, c.log)
}

// StatusServico consulta a disponibilidade do autorizador. A resposta fica em
// cache pelo TTL configurado para não martelar o webservice.
func (c *Cliente) StatusServico(ctx context.Context) (*Retorno, error) {
	chave := c.uf + ":" + c.ambiente
	if ret, ok := c.cacheStatus.Get(chave); ok {
		return ret, nil
	}

	cuf := pkgnfe.CodigoUF(c.uf)
	payload := fmt.Sprintf(
		`<consStatServ xmlns="%s" versao="4.00"><tpAmb>%s</tpAmb><cUF>%s</cUF><xServ>STATUS</xServ></consStatServ>`,
		pkgnfe.NamespacePortal, c.ambiente, cuf)

	corpo, err := c.chamar(ctx, OperacaoStatusServico, []byte(payload))
	if err != nil {
		return nil, err
	}
	ret, err := parseStatusServico(corpo, c.log)
	if err != nil {
		return nil, err
	}
	c.cacheStatus.Set(chave, ret)
	return ret, nil
}

// chamar resolve o endpoint, monta o envelope SOAP 1.2 e executa o POST sob a
// política de retry. Devolve o corpo bruto da resposta.
func (c *Cliente) chamar(ctx context.Context, operacao string, payload []byte) ([]byte, error) {
	url, err := Endpoint(c.uf, c.ambiente, operacao)
	if err != nil {
		return nil, err
	}
	envelope := montarEnvelope(operacao, payload)
	action := wsdlPrefix + operacao + "/nfeDadosMsg"

	var corpo []byte
	err = c.retry.Executar(ctx, c.log, operacao, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(envelope))
		if err != nil {
			return fmt.Errorf("sefaz: criar request: %w", err)
		}
		req.Header.Set("Content-Type", `application/soap+xml; charset=utf-8; action="`+action+`"`)

		inicio := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("sefaz: chamada %s: %w", operacao, err)
		}
		defer resp.Body.Close()

		bruto, err := io.ReadAll(io.LimitReader(resp.Body, maxResposta))
		if err != nil {
			return fmt.Errorf("sefaz: ler resposta de %s: %w", operacao, err)
		}
		if resp.StatusCode != http.StatusOK {
			return &erroHTTP{status: resp.StatusCode, corpo: resumo(bruto)}
		}

		c.log.Debug().
			Str("operacao", operacao).
			Dur("duracao", time.Since(inicio)).
			Int("bytes", len(bruto)).
			Msg("resposta da SEFAZ")
		corpo = bruto
		return nil
	})
	if err != nil {
		return nil, err
	}
	return corpo, nil
}

// montarEnvelope embrulha o payload fiscal em nfeDadosMsg dentro do envelope
// SOAP 1.2. O payload já é XML válido; a concatenação preserva a assinatura
// byte a byte.
func montarEnvelope(operacao string, payload []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString(`<soap12:Envelope xmlns:soap12="` + soapNS + `">`)
	buf.WriteString(`<soap12:Body>`)
	buf.WriteString(`<nfeDadosMsg xmlns="` + wsdlPrefix + operacao + `">`)
	buf.Write(payload)
	buf.WriteString(`</nfeDadosMsg>`)
	buf.WriteString(`</soap12:Body>`)
	buf.WriteString(`</soap12:Envelope>`)
	return buf.Bytes()
}

func resumo(corpo []byte) string {
	s := strings.TrimSpace(string(corpo))
	if len(s) > 256 {
		return s[:256] + "..."
	}
	return s
}
