package sefaz

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// erroHTTP resposta HTTP não-2xx do webservice. 5xx é transitório (o
// autorizador caiu ou está sobrecarregado); 4xx não é.
type erroHTTP struct {
	status int
	corpo  string
}

func (e *erroHTTP) Error() string {
	return fmt.Sprintf("sefaz: HTTP %d: %s", e.status, e.corpo)
}

// Transitorio classifica o erro de transporte: timeouts, falhas de conexão
// (recusada, resetada, DNS) e HTTP 5xx admitem retry; certificado rejeitado,
// 4xx e XML malformado de request falham de vez. Rejeição de negócio nunca
// chega aqui como erro.
//
// A ordem dos testes importa: *url.Error e *net.OpError também implementam
// net.Error, então a classificação de falha de conexão vem antes do teste
// genérico de timeout.
func Transitorio(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var httpErr *erroHTTP
	if errors.As(err, &httpErr) {
		return httpErr.status >= 500
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		// Handshake TLS recusado não melhora com retry.
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// PoliticaRetry retry com backoff exponencial e jitter para erros transitórios.
type PoliticaRetry struct {
	MaxTentativas  int
	BackoffInicial time.Duration
	BackoffMaximo  time.Duration

	// dormir é injetável nos testes; nil usa o relógio real respeitando o ctx.
	dormir func(ctx context.Context, d time.Duration) error
}

func (p PoliticaRetry) esperar(ctx context.Context, d time.Duration) error {
	if p.dormir != nil {
		return p.dormir(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Executar roda fn até MaxTentativas vezes. Só repete quando o erro é
// transitório; erro permanente (ou sucesso) retorna imediatamente. O backoff
// dobra a cada tentativa, limitado a BackoffMaximo, com jitter de até 50%.
func (p PoliticaRetry) Executar(ctx context.Context, log zerolog.Logger, operacao string, fn func() error) error {
	if p.MaxTentativas < 1 {
		p.MaxTentativas = 1
	}
	espera := p.BackoffInicial
	var ultimo error
	for tentativa := 1; tentativa <= p.MaxTentativas; tentativa++ {
		ultimo = fn()
		if ultimo == nil {
			return nil
		}
		if !Transitorio(ultimo) {
			return ultimo
		}
		if tentativa == p.MaxTentativas {
			break
		}
		comJitter := espera + time.Duration(rand.Int63n(int64(espera)/2+1))
		log.Warn().
			Str("operacao", operacao).
			Int("tentativa", tentativa).
			Dur("espera", comJitter).
			Err(ultimo).
			Msg("falha transitória na SEFAZ, aguardando retry")
		if err := p.esperar(ctx, comJitter); err != nil {
			return fmt.Errorf("retry interrompido: %w", err)
		}
		espera *= 2
		if p.BackoffMaximo > 0 && espera > p.BackoffMaximo {
			espera = p.BackoffMaximo
		}
	}
	return fmt.Errorf("sefaz: %s falhou após %d tentativas: %w", operacao, p.MaxTentativas, ultimo)
}
