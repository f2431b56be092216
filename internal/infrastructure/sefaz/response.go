package sefaz

import (
	"encoding/xml"
	"fmt"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
)

// Códigos cStat relevantes para o ciclo de vida.
const (
	CStatAutorizado          = "100"
	CStatCancelado           = "101"
	CStatInutilizado         = "102"
	CStatLoteRecebido        = "103"
	CStatLoteProcessado      = "104"
	CStatLoteEmProcessamento = "105"
	CStatServicoEmOperacao   = "107"
	CStatEventoRegistrado    = "135"
	CStatEventoVinculado     = "136"
	CStatCanceladoForaPrazo  = "155"
)

// Retorno desfecho normalizado de uma chamada à SEFAZ. CStat e XMotivo vêm
// verbatim da resposta; o XML bruto fica disponível para arquivamento.
type Retorno struct {
	CStat           string
	XMotivo         string
	Protocolo       string // nProt
	Recibo          string // nRec (lote assíncrono)
	Chave           string // chNFe ecoada no protocolo
	DataRecebimento string // dhRecbto
	XMLBruto        []byte
}

// Autorizado informa se a resposta representa autorização de uso.
func (r *Retorno) Autorizado() bool { return r.CStat == CStatAutorizado }

// EmProcessamento informa se o lote ainda não tem desfecho.
func (r *Retorno) EmProcessamento() bool {
	return r.CStat == CStatLoteRecebido || r.CStat == CStatLoteEmProcessamento
}

// EventoHomologado informa se o evento foi registrado (vinculado ou não).
func (r *Retorno) EventoHomologado() bool {
	return r.CStat == CStatEventoRegistrado || r.CStat == CStatEventoVinculado ||
		r.CStat == CStatCancelado || r.CStat == CStatCanceladoForaPrazo
}

// respostaSOAP casca do envelope de resposta; o payload fiscal vem inteiro
// dentro de nfeResultMsg.
type respostaSOAP struct {
	XMLName xml.Name `xml:"Envelope"`
	Corpo   struct {
		Resultado struct {
			Inner []byte `xml:",innerxml"`
		} `xml:"nfeResultMsg"`
	} `xml:"Body"`
}

type infProt struct {
	ChNFe    string `xml:"chNFe"`
	DhRecbto string `xml:"dhRecbto"`
	NProt    string `xml:"nProt"`
	CStat    string `xml:"cStat"`
	XMotivo  string `xml:"xMotivo"`
}

type retEnviNFe struct {
	CStat   string `xml:"cStat"`
	XMotivo string `xml:"xMotivo"`
	InfRec  struct {
		NRec string `xml:"nRec"`
	} `xml:"infRec"`
	ProtNFe struct {
		InfProt infProt `xml:"infProt"`
	} `xml:"protNFe"`
}

type retConsReciNFe struct {
	CStat   string `xml:"cStat"`
	XMotivo string `xml:"xMotivo"`
	NRec    string `xml:"nRec"`
	ProtNFe []struct {
		InfProt infProt `xml:"infProt"`
	} `xml:"protNFe"`
}

type retEvento struct {
	InfEvento struct {
		CStat       string `xml:"cStat"`
		XMotivo     string `xml:"xMotivo"`
		ChNFe       string `xml:"chNFe"`
		NProt       string `xml:"nProt"`
		DhRegEvento string `xml:"dhRegEvento"`
	} `xml:"retEvento>infEvento"`
}

type retInutNFe struct {
	InfInut struct {
		CStat    string `xml:"cStat"`
		XMotivo  string `xml:"xMotivo"`
		NProt    string `xml:"nProt"`
		DhRecbto string `xml:"dhRecbto"`
	} `xml:"infInut"`
}

type retConsStatServ struct {
	CStat    string `xml:"cStat"`
	XMotivo  string `xml:"xMotivo"`
	TMed     string `xml:"tMed"`
	DhRecbto string `xml:"dhRecbto"`
}

// payloadResposta extrai o conteúdo de nfeResultMsg do envelope SOAP.
func payloadResposta(corpo []byte) ([]byte, error) {
	var env respostaSOAP
	if err := xml.Unmarshal(corpo, &env); err != nil {
		return nil, fmt.Errorf("sefaz: resposta SOAP malformada: %w", err)
	}
	if len(env.Corpo.Resultado.Inner) == 0 {
		return nil, fmt.Errorf("sefaz: envelope sem nfeResultMsg")
	}
	return env.Corpo.Resultado.Inner, nil
}

// parseAutorizacao interpreta retEnviNFe (síncrono com protNFe ou recibo de lote).
func parseAutorizacao(corpo []byte, log zerolog.Logger) (*Retorno, error) {
	payload, err := payloadResposta(corpo)
	if err != nil {
		return nil, err
	}
	var ret retEnviNFe
	if err := xml.Unmarshal(payload, &ret); err != nil || ret.CStat == "" {
		return fallbackEtree(corpo, "retEnviNFe", log)
	}
	r := &Retorno{
		CStat:    ret.CStat,
		XMotivo:  ret.XMotivo,
		Recibo:   ret.InfRec.NRec,
		XMLBruto: corpo,
	}
	// Processamento síncrono devolve o protocolo embutido; o cStat do lote
	// (104) cede lugar ao desfecho da nota.
	if p := ret.ProtNFe.InfProt; p.CStat != "" {
		r.CStat = p.CStat
		r.XMotivo = p.XMotivo
		r.Protocolo = p.NProt
		r.Chave = p.ChNFe
		r.DataRecebimento = p.DhRecbto
	}
	return r, nil
}

// parseConsultaRecibo interpreta retConsReciNFe.
func parseConsultaRecibo(corpo []byte, log zerolog.Logger) (*Retorno, error) {
	payload, err := payloadResposta(corpo)
	if err != nil {
		return nil, err
	}
	var ret retConsReciNFe
	if err := xml.Unmarshal(payload, &ret); err != nil || ret.CStat == "" {
		return fallbackEtree(corpo, "retConsReciNFe", log)
	}
	r := &Retorno{
		CStat:    ret.CStat,
		XMotivo:  ret.XMotivo,
		Recibo:   ret.NRec,
		XMLBruto: corpo,
	}
	if len(ret.ProtNFe) > 0 {
		p := ret.ProtNFe[0].InfProt
		r.CStat = p.CStat
		r.XMotivo = p.XMotivo
		r.Protocolo = p.NProt
		r.Chave = p.ChNFe
		r.DataRecebimento = p.DhRecbto
	}
	return r, nil
}

// parseEvento interpreta retEnvEvento.
func parseEvento(corpo []byte, log zerolog.Logger) (*Retorno, error) {
	payload, err := payloadResposta(corpo)
	if err != nil {
		return nil, err
	}
	var ret retEvento
	if err := xml.Unmarshal(payload, &ret); err != nil || ret.InfEvento.CStat == "" {
		return fallbackEtree(corpo, "retEnvEvento", log)
	}
	return &Retorno{
		CStat:           ret.InfEvento.CStat,
		XMotivo:         ret.InfEvento.XMotivo,
		Protocolo:       ret.InfEvento.NProt,
		Chave:           ret.InfEvento.ChNFe,
		DataRecebimento: ret.InfEvento.DhRegEvento,
		XMLBruto:        corpo,
	}, nil
}

// parseInutilizacao interpreta retInutNFe.
func parseInutilizacao(corpo []byte, log zerolog.Logger) (*Retorno, error) {
	payload, err := payloadResposta(corpo)
	if err != nil {
		return nil, err
	}
	var ret retInutNFe
	if err := xml.Unmarshal(payload, &ret); err != nil || ret.InfInut.CStat == "" {
		return fallbackEtree(corpo, "retInutNFe", log)
	}
	return &Retorno{
		CStat:           ret.InfInut.CStat,
		XMotivo:         ret.InfInut.XMotivo,
		Protocolo:       ret.InfInut.NProt,
		DataRecebimento: ret.InfInut.DhRecbto,
		XMLBruto:        corpo,
	}, nil
}

// parseStatusServico interpreta retConsStatServ.
func parseStatusServico(corpo []byte, log zerolog.Logger) (*Retorno, error) {
	payload, err := payloadResposta(corpo)
	if err != nil {
		return nil, err
	}
	var ret retConsStatServ
	if err := xml.Unmarshal(payload, &ret); err != nil || ret.CStat == "" {
		return fallbackEtree(corpo, "retConsStatServ", log)
	}
	return &Retorno{
		CStat:           ret.CStat,
		XMotivo:         ret.XMotivo,
		DataRecebimento: ret.DhRecbto,
		XMLBruto:        corpo,
	}, nil
}

// fallbackEtree varredura recursiva da resposta quando o parse tipado não
// reconhece o layout (autorizadores ocasionalmente divergem do schema). O uso
// do fallback fica registrado no log para investigação.
func fallbackEtree(corpo []byte, esperado string, log zerolog.Logger) (*Retorno, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(corpo); err != nil {
		return nil, fmt.Errorf("sefaz: resposta ilegível (esperado %s): %w", esperado, err)
	}
	r := &Retorno{XMLBruto: corpo}
	varrer(doc.Root(), r)
	if r.CStat == "" {
		return nil, fmt.Errorf("sefaz: resposta sem cStat (esperado %s)", esperado)
	}
	log.Warn().
		Str("esperado", esperado).
		Str("cstat", r.CStat).
		Msg("resposta fora do layout tipado, campos extraídos por varredura")
	return r, nil
}

func varrer(el *etree.Element, r *Retorno) {
	if el == nil {
		return
	}
	switch el.Tag {
	case "cStat":
		if r.CStat == "" {
			r.CStat = el.Text()
		}
	case "xMotivo":
		if r.XMotivo == "" {
			r.XMotivo = el.Text()
		}
	case "nProt":
		if r.Protocolo == "" {
			r.Protocolo = el.Text()
		}
	case "nRec":
		if r.Recibo == "" {
			r.Recibo = el.Text()
		}
	case "chNFe":
		if r.Chave == "" {
			r.Chave = el.Text()
		}
	case "dhRecbto", "dhRegEvento":
		if r.DataRecebimento == "" {
			r.DataRecebimento = el.Text()
		}
	}
	for _, filho := range el.ChildElements() {
		varrer(filho, r)
	}
}
