package domain

import "errors"

// Erros de domínio (sem dependências externas).
var (
	ErrNaoEncontrado   = errors.New("recurso não encontrado")
	ErrEntradaInvalida = errors.New("entrada inválida")
	ErrDuplicado       = errors.New("recurso duplicado")
	ErrConflito        = errors.New("conflito com o estado atual")

	// ErrValidacao cobre códigos de classificação malformados, justificativas
	// fora de faixa e intervalos de numeração inválidos; rejeitado antes de
	// qualquer chamada de rede.
	ErrValidacao = errors.New("validação fiscal falhou")

	// ErrAssinatura distingue falha de assinatura digital de rejeição da SEFAZ.
	ErrAssinatura = errors.New("falha na assinatura digital")

	// ErrEstadoInvalido indica transição não permitida a partir do estado atual
	// da nota (ex.: cancelar fora da janela de 24 h, corrigir nota pendente).
	ErrEstadoInvalido = errors.New("transição de estado não permitida")

	// ErrPendenciaFiscal marca um desfecho parcialmente persistido (evento
	// enviado sem desfecho registrado) que exige reconciliação posterior.
	ErrPendenciaFiscal = errors.New("pendência fiscal não resolvida")
)
