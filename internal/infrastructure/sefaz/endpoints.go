package sefaz

import (
	"fmt"

	pkgnfe "github.com/jovemegidio/zyntra-fiscal/pkg/nfe"
)

// Operações dos webservices NFe 4.00.
const (
	OperacaoAutorizacao       = "NFeAutorizacao4"
	OperacaoRetAutorizacao    = "NFeRetAutorizacao4"
	OperacaoRecepcaoEvento    = "RecepcaoEvento4"
	OperacaoInutilizacao      = "NFeInutilizacao4"
	OperacaoStatusServico     = "NFeStatusServico4"
	OperacaoConsultaProtocolo = "NFeConsultaProtocolo4"
)

// Autorizadores. UFs sem autorizador próprio são atendidas pela SVRS; o
// Maranhão usa a SVAN.
const (
	autorizadorSVRS = "SVRS"
	autorizadorSVAN = "SVAN"
)

var autorizadorProprio = map[string]bool{
	"SP": true, "MG": true, "PR": true,
}

// Autorizador devolve o autorizador responsável pela UF do emitente.
func Autorizador(uf string) string {
	if autorizadorProprio[uf] {
		return uf
	}
	if uf == "MA" {
		return autorizadorSVAN
	}
	return autorizadorSVRS
}

// endpoints tabela estática autorizador → ambiente → operação → URL.
// Combinação ausente é erro imediato, nunca um palpite de URL.
var endpoints = map[string]map[string]map[string]string{
	autorizadorSVRS: {
		pkgnfe.AmbienteProducao: {
			OperacaoAutorizacao:       "https://nfe.svrs.rs.gov.br/ws/NfeAutorizacao/NFeAutorizacao4.asmx",
			OperacaoRetAutorizacao:    "https://nfe.svrs.rs.gov.br/ws/NfeRetAutorizacao/NFeRetAutorizacao4.asmx",
			OperacaoRecepcaoEvento:    "https://nfe.svrs.rs.gov.br/ws/recepcaoevento/recepcaoevento4.asmx",
			OperacaoInutilizacao:      "https://nfe.svrs.rs.gov.br/ws/nfeinutilizacao/nfeinutilizacao4.asmx",
			OperacaoStatusServico:     "https://nfe.svrs.rs.gov.br/ws/NfeStatusServico/NfeStatusServico4.asmx",
			OperacaoConsultaProtocolo: "https://nfe.svrs.rs.gov.br/ws/NfeConsulta/NfeConsulta4.asmx",
		},
		pkgnfe.AmbienteHomologacao: {
			OperacaoAutorizacao:       "https://nfe-homologacao.svrs.rs.gov.br/ws/NfeAutorizacao/NFeAutorizacao4.asmx",
			OperacaoRetAutorizacao:    "https://nfe-homologacao.svrs.rs.gov.br/ws/NfeRetAutorizacao/NFeRetAutorizacao4.asmx",
			OperacaoRecepcaoEvento:    "https://nfe-homologacao.svrs.rs.gov.br/ws/recepcaoevento/recepcaoevento4.asmx",
			OperacaoInutilizacao:      "https://nfe-homologacao.svrs.rs.gov.br/ws/nfeinutilizacao/nfeinutilizacao4.asmx",
			OperacaoStatusServico:     "https://nfe-homologacao.svrs.rs.gov.br/ws/NfeStatusServico/NfeStatusServico4.asmx",
			OperacaoConsultaProtocolo: "https://nfe-homologacao.svrs.rs.gov.br/ws/NfeConsulta/NfeConsulta4.asmx",
		},
	},
	autorizadorSVAN: {
		pkgnfe.AmbienteProducao: {
			OperacaoAutorizacao:       "https://www.sefazvirtual.fazenda.gov.br/NFeAutorizacao4/NFeAutorizacao4.asmx",
			OperacaoRetAutorizacao:    "https://www.sefazvirtual.fazenda.gov.br/NFeRetAutorizacao4/NFeRetAutorizacao4.asmx",
			OperacaoRecepcaoEvento:    "https://www.sefazvirtual.fazenda.gov.br/NFeRecepcaoEvento4/NFeRecepcaoEvento4.asmx",
			OperacaoInutilizacao:      "https://www.sefazvirtual.fazenda.gov.br/NFeInutilizacao4/NFeInutilizacao4.asmx",
			OperacaoStatusServico:     "https://www.sefazvirtual.fazenda.gov.br/NFeStatusServico4/NFeStatusServico4.asmx",
			OperacaoConsultaProtocolo: "https://www.sefazvirtual.fazenda.gov.br/NFeConsultaProtocolo4/NFeConsultaProtocolo4.asmx",
		},
		pkgnfe.AmbienteHomologacao: {
			OperacaoAutorizacao:       "https://hom.sefazvirtual.fazenda.gov.br/NFeAutorizacao4/NFeAutorizacao4.asmx",
			OperacaoRetAutorizacao:    "https://hom.sefazvirtual.fazenda.gov.br/NFeRetAutorizacao4/NFeRetAutorizacao4.asmx",
			OperacaoRecepcaoEvento:    "https://hom.sefazvirtual.fazenda.gov.br/NFeRecepcaoEvento4/NFeRecepcaoEvento4.asmx",
			OperacaoInutilizacao:      "https://hom.sefazvirtual.fazenda.gov.br/NFeInutilizacao4/NFeInutilizacao4.asmx",
			OperacaoStatusServico:     "https://hom.sefazvirtual.fazenda.gov.br/NFeStatusServico4/NFeStatusServico4.asmx",
			OperacaoConsultaProtocolo: "https://hom.sefazvirtual.fazenda.gov.br/NFeConsultaProtocolo4/NFeConsultaProtocolo4.asmx",
		},
	},
	"SP": {
		pkgnfe.AmbienteProducao: {
			OperacaoAutorizacao:       "https://nfe.fazenda.sp.gov.br/ws/nfeautorizacao4.asmx",
			OperacaoRetAutorizacao:    "https://nfe.fazenda.sp.gov.br/ws/nferetautorizacao4.asmx",
			OperacaoRecepcaoEvento:    "https://nfe.fazenda.sp.gov.br/ws/nferecepcaoevento4.asmx",
			OperacaoInutilizacao:      "https://nfe.fazenda.sp.gov.br/ws/nfeinutilizacao4.asmx",
			OperacaoStatusServico:     "https://nfe.fazenda.sp.gov.br/ws/nfestatusservico4.asmx",
			OperacaoConsultaProtocolo: "https://nfe.fazenda.sp.gov.br/ws/nfeconsultaprotocolo4.asmx",
		},
		pkgnfe.AmbienteHomologacao: {
			OperacaoAutorizacao:       "https://homologacao.nfe.fazenda.sp.gov.br/ws/nfeautorizacao4.asmx",
			OperacaoRetAutorizacao:    "https://homologacao.nfe.fazenda.sp.gov.br/ws/nferetautorizacao4.asmx",
			OperacaoRecepcaoEvento:    "https://homologacao.nfe.fazenda.sp.gov.br/ws/nferecepcaoevento4.asmx",
			OperacaoInutilizacao:      "https://homologacao.nfe.fazenda.sp.gov.br/ws/nfeinutilizacao4.asmx",
			OperacaoStatusServico:     "https://homologacao.nfe.fazenda.sp.gov.br/ws/nfestatusservico4.asmx",
			OperacaoConsultaProtocolo: "https://homologacao.nfe.fazenda.sp.gov.br/ws/nfeconsultaprotocolo4.asmx",
		},
	},
	"MG": {
		pkgnfe.AmbienteProducao: {
			OperacaoAutorizacao:       "https://nfe.fazenda.mg.gov.br/nfe2/services/NFeAutorizacao4",
			OperacaoRetAutorizacao:    "https://nfe.fazenda.mg.gov.br/nfe2/services/NFeRetAutorizacao4",
			OperacaoRecepcaoEvento:    "https://nfe.fazenda.mg.gov.br/nfe2/services/NFeRecepcaoEvento4",
			OperacaoInutilizacao:      "https://nfe.fazenda.mg.gov.br/nfe2/services/NFeInutilizacao4",
			OperacaoStatusServico:     "https://nfe.fazenda.mg.gov.br/nfe2/services/NFeStatusServico4",
			OperacaoConsultaProtocolo: "https://nfe.fazenda.mg.gov.br/nfe2/services/NFeConsultaProtocolo4",
		},
		pkgnfe.AmbienteHomologacao: {
			OperacaoAutorizacao:       "https://hnfe.fazenda.mg.gov.br/nfe2/services/NFeAutorizacao4",
			OperacaoRetAutorizacao:    "https://hnfe.fazenda.mg.gov.br/nfe2/services/NFeRetAutorizacao4",
			OperacaoRecepcaoEvento:    "https://hnfe.fazenda.mg.gov.br/nfe2/services/NFeRecepcaoEvento4",
			OperacaoInutilizacao:      "https://hnfe.fazenda.mg.gov.br/nfe2/services/NFeInutilizacao4",
			OperacaoStatusServico:     "https://hnfe.fazenda.mg.gov.br/nfe2/services/NFeStatusServico4",
			OperacaoConsultaProtocolo: "https://hnfe.fazenda.mg.gov.br/nfe2/services/NFeConsultaProtocolo4",
		},
	},
	"PR": {
		pkgnfe.AmbienteProducao: {
			OperacaoAutorizacao:       "https://nfe.sefa.pr.gov.br/nfe/NFeAutorizacao4",
			OperacaoRetAutorizacao:    "https://nfe.sefa.pr.gov.br/nfe/NFeRetAutorizacao4",
			OperacaoRecepcaoEvento:    "https://nfe.sefa.pr.gov.br/nfe/NFeRecepcaoEvento4",
			OperacaoInutilizacao:      "https://nfe.sefa.pr.gov.br/nfe/NFeInutilizacao4",
			OperacaoStatusServico:     "https://nfe.sefa.pr.gov.br/nfe/NFeStatusServico4",
			OperacaoConsultaProtocolo: "https://nfe.sefa.pr.gov.br/nfe/NFeConsultaProtocolo4",
		},
		pkgnfe.AmbienteHomologacao: {
			OperacaoAutorizacao:       "https://homologacao.nfe.sefa.pr.gov.br/nfe/NFeAutorizacao4",
			OperacaoRetAutorizacao:    "https://homologacao.nfe.sefa.pr.gov.br/nfe/NFeRetAutorizacao4",
			OperacaoRecepcaoEvento:    "https://homologacao.nfe.sefa.pr.gov.br/nfe/NFeRecepcaoEvento4",
			OperacaoInutilizacao:      "https://homologacao.nfe.sefa.pr.gov.br/nfe/NFeInutilizacao4",
			OperacaoStatusServico:     "https://homologacao.nfe.sefa.pr.gov.br/nfe/NFeStatusServico4",
			OperacaoConsultaProtocolo: "https://homologacao.nfe.sefa.pr.gov.br/nfe/NFeConsultaProtocolo4",
		},
	},
}

// Endpoint resolve a URL do webservice para (UF, ambiente, operação). Falta na
// tabela é erro de configuração, devolvido imediatamente sem retry.
func Endpoint(uf, ambiente, operacao string) (string, error) {
	aut := Autorizador(uf)
	porAmbiente, ok := endpoints[aut]
	if !ok {
		return "", fmt.Errorf("sefaz: autorizador %s (UF %s) sem tabela de endpoints", aut, uf)
	}
	porOperacao, ok := porAmbiente[ambiente]
	if !ok {
		return "", fmt.Errorf("sefaz: autorizador %s sem endpoints para ambiente %q", aut, ambiente)
	}
	url, ok := porOperacao[operacao]
	if !ok {
		return "", fmt.Errorf("sefaz: autorizador %s/%s não publica a operação %s", aut, ambiente, operacao)
	}
	return url, nil
}
