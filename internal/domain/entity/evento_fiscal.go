package entity

import "time"

// Tipos de evento fiscal pós-emissão.
const (
	EventoCancelamento  = "110111" // cancelamento de NFe autorizada
	EventoCartaCorrecao = "110110" // carta de correção eletrônica (CC-e)
	EventoInutilizacao  = "INUT"   // inutilização de faixa de numeração (sem nota associada)
)

// Situações de processamento de um evento. FLAGRADO marca o caso em que o
// evento foi enviado mas o desfecho não pôde ser persistido: inconsistência
// recuperável que exige reconciliação, nunca ignorada em silêncio.
const (
	EventoPendente   = "PENDENTE"
	EventoHomologado = "HOMOLOGADO"
	EventoRejeitado  = "REJEITADO"
	EventoFlagrado   = "FLAGRADO"
)

// EventoFiscal registro de cancelamento, carta de correção ou inutilização.
// Cancelamento/correção apontam para uma nota; inutilização para uma faixa.
type EventoFiscal struct {
	ID        string
	NotaID    string // vazio para inutilização
	Tipo      string
	Sequencia int // estritamente crescente por nota e por tipo de evento

	Justificativa string // cancelamento/inutilização: 15..255; CC-e: 15..1000

	// Faixa de inutilização (inclusive). Zerados nos demais tipos.
	Serie         int
	Modelo        string
	NumeroInicial int64
	NumeroFinal   int64

	Situacao    string
	Protocolo   string
	CodigoSefaz string // cStat da resposta
	MotivoSefaz string // xMotivo verbatim
	XMLEnviado  string

	CriadoEm time.Time
}
