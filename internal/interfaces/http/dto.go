package http

import (
	"time"

	"github.com/shopspring/decimal"

	appfiscal "github.com/jovemegidio/zyntra-fiscal/internal/application/fiscal"
	"github.com/jovemegidio/zyntra-fiscal/internal/domain/entity"
)

// ErrorResponse resposta padronizada de erro.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParteRequest emitente ou destinatário no pedido de emissão.
type ParteRequest struct {
	CNPJ              string `json:"cnpj"`
	CPF               string `json:"cpf,omitempty"`
	RazaoSocial       string `json:"razao_social"`
	InscricaoEstadual string `json:"inscricao_estadual"`
	CRT               string `json:"crt,omitempty"`
	IndIEDest         string `json:"ind_ie_dest,omitempty"`
	UF                string `json:"uf"`
	Municipio         string `json:"municipio"`
	CodigoMunicipio   string `json:"codigo_municipio"`
	Logradouro        string `json:"logradouro"`
	Numero            string `json:"numero"`
	Bairro            string `json:"bairro"`
	CEP               string `json:"cep"`
}

// ItemRequest item do pedido de emissão.
type ItemRequest struct {
	Codigo        string          `json:"codigo"`
	Descricao     string          `json:"descricao"`
	NCM           string          `json:"ncm"`
	CFOP          string          `json:"cfop"`
	GTIN          string          `json:"gtin,omitempty"`
	Unidade       string          `json:"unidade,omitempty"`
	Quantidade    decimal.Decimal `json:"quantidade"`
	ValorUnitario decimal.Decimal `json:"valor_unitario"`
	Desconto      decimal.Decimal `json:"desconto,omitempty"`

	AliqICMS   decimal.Decimal `json:"aliq_icms,omitempty"`
	AliqICMSST decimal.Decimal `json:"aliq_icms_st,omitempty"`
	MVAST      decimal.Decimal `json:"mva_st,omitempty"`
	AliqIPI    decimal.Decimal `json:"aliq_ipi,omitempty"`
	AliqPIS    decimal.Decimal `json:"aliq_pis,omitempty"`
	AliqCOFINS decimal.Decimal `json:"aliq_cofins,omitempty"`
	AliqFCP    decimal.Decimal `json:"aliq_fcp,omitempty"`
}

// EmitirNotaRequest pedido de emissão de NFe.
type EmitirNotaRequest struct {
	Emitente     ParteRequest  `json:"emitente"`
	Destinatario ParteRequest  `json:"destinatario"`
	Itens        []ItemRequest `json:"itens"`

	Frete    decimal.Decimal `json:"frete,omitempty"`
	Seguro   decimal.Decimal `json:"seguro,omitempty"`
	Desconto decimal.Decimal `json:"desconto,omitempty"`

	NaturezaOperacao      string `json:"natureza_operacao"`
	FormaPagamento        string `json:"forma_pagamento,omitempty"`
	ModalidadeFrete       string `json:"modalidade_frete,omitempty"`
	InformacoesAdicionais string `json:"informacoes_adicionais,omitempty"`

	AliqIBS decimal.Decimal `json:"aliq_ibs,omitempty"`
	AliqCBS decimal.Decimal `json:"aliq_cbs,omitempty"`
}

// JustificativaRequest corpo de cancelamento, correção e inutilização.
type JustificativaRequest struct {
	Justificativa string `json:"justificativa"`
}

// InutilizarRequest pedido de inutilização de faixa.
type InutilizarRequest struct {
	Serie         int    `json:"serie"`
	NumeroInicial int64  `json:"numero_inicial"`
	NumeroFinal   int64  `json:"numero_final"`
	Justificativa string `json:"justificativa"`
}

// NotaResponse visão externa da nota (sem os XMLs, que têm endpoint próprio).
type NotaResponse struct {
	ID              string     `json:"id"`
	Numero          int64      `json:"numero"`
	Serie           int        `json:"serie"`
	Modelo          string     `json:"modelo"`
	Status          string     `json:"status"`
	ChaveAcesso     string     `json:"chave_acesso"`
	Protocolo       string     `json:"protocolo,omitempty"`
	Recibo          string     `json:"recibo,omitempty"`
	CodigoRejeicao  string     `json:"codigo_rejeicao,omitempty"`
	MotivoRejeicao  string     `json:"motivo_rejeicao,omitempty"`
	ValorTotal      string     `json:"valor_total"`
	DataEmissao     time.Time  `json:"data_emissao"`
	DataAutorizacao *time.Time `json:"data_autorizacao,omitempty"`
}

func notaParaResponse(n *entity.NotaFiscal) NotaResponse {
	return NotaResponse{
		ID:              n.ID,
		Numero:          n.Numero,
		Serie:           n.Serie,
		Modelo:          n.Modelo,
		Status:          n.Status,
		ChaveAcesso:     n.ChaveAcesso,
		Protocolo:       n.Protocolo,
		Recibo:          n.Recibo,
		CodigoRejeicao:  n.CodigoRejeicao,
		MotivoRejeicao:  n.MotivoRejeicao,
		ValorTotal:      n.ValorTotal.StringFixed(2),
		DataEmissao:     n.DataEmissao,
		DataAutorizacao: n.DataAutorizacao,
	}
}

// EventoResponse visão externa de um evento fiscal.
type EventoResponse struct {
	ID            string `json:"id"`
	NotaID        string `json:"nota_id,omitempty"`
	Tipo          string `json:"tipo"`
	Sequencia     int    `json:"sequencia"`
	Situacao      string `json:"situacao"`
	Protocolo     string `json:"protocolo,omitempty"`
	CodigoSefaz   string `json:"codigo_sefaz,omitempty"`
	MotivoSefaz   string `json:"motivo_sefaz,omitempty"`
	Serie         int    `json:"serie,omitempty"`
	NumeroInicial int64  `json:"numero_inicial,omitempty"`
	NumeroFinal   int64  `json:"numero_final,omitempty"`
}

func eventoParaResponse(ev *entity.EventoFiscal) EventoResponse {
	return EventoResponse{
		ID:            ev.ID,
		NotaID:        ev.NotaID,
		Tipo:          ev.Tipo,
		Sequencia:     ev.Sequencia,
		Situacao:      ev.Situacao,
		Protocolo:     ev.Protocolo,
		CodigoSefaz:   ev.CodigoSefaz,
		MotivoSefaz:   ev.MotivoSefaz,
		Serie:         ev.Serie,
		NumeroInicial: ev.NumeroInicial,
		NumeroFinal:   ev.NumeroFinal,
	}
}

func (r EmitirNotaRequest) paraPedido() appfiscal.PedidoEmissao {
	itens := make([]appfiscal.ItemEmissao, len(r.Itens))
	for i, item := range r.Itens {
		itens[i] = appfiscal.ItemEmissao{
			Codigo:        item.Codigo,
			Descricao:     item.Descricao,
			NCM:           item.NCM,
			CFOP:          item.CFOP,
			GTIN:          item.GTIN,
			Unidade:       item.Unidade,
			Quantidade:    item.Quantidade,
			ValorUnitario: item.ValorUnitario,
			Desconto:      item.Desconto,
			AliqICMS:      item.AliqICMS,
			AliqICMSST:    item.AliqICMSST,
			MVAST:         item.MVAST,
			AliqIPI:       item.AliqIPI,
			AliqPIS:       item.AliqPIS,
			AliqCOFINS:    item.AliqCOFINS,
			AliqFCP:       item.AliqFCP,
		}
	}
	return appfiscal.PedidoEmissao{
		Emitente: entity.Emitente{
			CNPJ:              r.Emitente.CNPJ,
			RazaoSocial:       r.Emitente.RazaoSocial,
			InscricaoEstadual: r.Emitente.InscricaoEstadual,
			CRT:               r.Emitente.CRT,
			UF:                r.Emitente.UF,
			Municipio:         r.Emitente.Municipio,
			CodigoMunicipio:   r.Emitente.CodigoMunicipio,
			Logradouro:        r.Emitente.Logradouro,
			Numero:            r.Emitente.Numero,
			Bairro:            r.Emitente.Bairro,
			CEP:               r.Emitente.CEP,
		},
		Destinatario: entity.Destinatario{
			CNPJ:              r.Destinatario.CNPJ,
			CPF:               r.Destinatario.CPF,
			RazaoSocial:       r.Destinatario.RazaoSocial,
			InscricaoEstadual: r.Destinatario.InscricaoEstadual,
			IndIEDest:         r.Destinatario.IndIEDest,
			UF:                r.Destinatario.UF,
			Municipio:         r.Destinatario.Municipio,
			CodigoMunicipio:   r.Destinatario.CodigoMunicipio,
			Logradouro:        r.Destinatario.Logradouro,
			Numero:            r.Destinatario.Numero,
			Bairro:            r.Destinatario.Bairro,
			CEP:               r.Destinatario.CEP,
		},
		Itens:                 itens,
		Frete:                 r.Frete,
		Seguro:                r.Seguro,
		Desconto:              r.Desconto,
		NaturezaOperacao:      r.NaturezaOperacao,
		FormaPagamento:        r.FormaPagamento,
		ModalidadeFrete:       r.ModalidadeFrete,
		InformacoesAdicionais: r.InformacoesAdicionais,
		AliqIBS:               r.AliqIBS,
		AliqCBS:               r.AliqCBS,
	}
}
