package sefaz

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// erroTimeout implementa net.Error sem ser *url.Error nem *net.OpError.
type erroTimeout struct{}

func (erroTimeout) Error() string   { return "i/o timeout" }
func (erroTimeout) Timeout() bool   { return true }
func (erroTimeout) Temporary() bool { return true }

func TestTransitorio(t *testing.T) {
	casos := []struct {
		nome        string
		err         error
		transitorio bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"http 500", &erroHTTP{status: 500}, true},
		{"http 503", &erroHTTP{status: 503}, true},
		{"http 400", &erroHTTP{status: 400}, false},
		{"http 403", &erroHTTP{status: 403}, false},
		{"falha de conexao", &url.Error{Op: "Post", URL: "https://x", Err: errors.New("connection refused")}, true},
		{"dns", &url.Error{Op: "Post", URL: "https://x", Err: &net.DNSError{Err: "no such host", Name: "x"}}, true},
		{"op de rede", &net.OpError{Op: "dial", Err: errors.New("no route to host")}, true},
		{"timeout puro", erroTimeout{}, true},
		{"certificado recusado", &url.Error{Op: "Post", URL: "https://x", Err: &tls.CertificateVerificationError{Err: errors.New("x509: certificate expired")}}, false},
		{"erro de negocio", errors.New("certificado expirado"), false},
		{"embrulhado", fmt.Errorf("autorizar: %w", &erroHTTP{status: 502}), true},
	}
	for _, c := range casos {
		t.Run(c.nome, func(t *testing.T) {
			assert.Equal(t, c.transitorio, Transitorio(c.err))
		})
	}
}

func politicaDeTeste(esperas *[]time.Duration) PoliticaRetry {
	return PoliticaRetry{
		MaxTentativas:  4,
		BackoffInicial: 100 * time.Millisecond,
		BackoffMaximo:  300 * time.Millisecond,
		dormir: func(_ context.Context, d time.Duration) error {
			*esperas = append(*esperas, d)
			return nil
		},
	}
}

func TestExecutar_RepeteSoTransitorio(t *testing.T) {
	var esperas []time.Duration
	p := politicaDeTeste(&esperas)

	// Duas falhas transitórias seguidas de sucesso: exatamente duas esperas.
	chamadas := 0
	err := p.Executar(context.Background(), zerolog.Nop(), "teste", func() error {
		chamadas++
		if chamadas <= 2 {
			return &erroHTTP{status: 503}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, chamadas)
	require.Len(t, esperas, 2)

	// Backoff dobra entre tentativas; o jitter soma até 50% da base.
	assert.GreaterOrEqual(t, esperas[0], 100*time.Millisecond)
	assert.LessOrEqual(t, esperas[0], 150*time.Millisecond)
	assert.GreaterOrEqual(t, esperas[1], 200*time.Millisecond)
	assert.LessOrEqual(t, esperas[1], 300*time.Millisecond)
}

func TestExecutar_ErroPermanenteNaoRepete(t *testing.T) {
	var esperas []time.Duration
	p := politicaDeTeste(&esperas)

	permanente := errors.New("schema invalido")
	chamadas := 0
	err := p.Executar(context.Background(), zerolog.Nop(), "teste", func() error {
		chamadas++
		return permanente
	})
	assert.ErrorIs(t, err, permanente)
	assert.Equal(t, 1, chamadas, "erro permanente sai na primeira")
	assert.Empty(t, esperas)
}

func TestExecutar_EsgotaTentativas(t *testing.T) {
	var esperas []time.Duration
	p := politicaDeTeste(&esperas)

	chamadas := 0
	falha := &erroHTTP{status: 500}
	err := p.Executar(context.Background(), zerolog.Nop(), "autorizacao", func() error {
		chamadas++
		return falha
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, error(falha), "o último erro fica embrulhado no desfecho")
	assert.Equal(t, 4, chamadas)
	assert.Len(t, esperas, 3, "não espera depois da última tentativa")
	assert.Contains(t, err.Error(), "4 tentativas")
}

func TestExecutar_BackoffRespeitaTeto(t *testing.T) {
	var esperas []time.Duration
	p := PoliticaRetry{
		MaxTentativas:  6,
		BackoffInicial: 100 * time.Millisecond,
		BackoffMaximo:  200 * time.Millisecond,
		dormir: func(_ context.Context, d time.Duration) error {
			esperas = append(esperas, d)
			return nil
		},
	}
	_ = p.Executar(context.Background(), zerolog.Nop(), "teste", func() error {
		return &erroHTTP{status: 500}
	})
	require.Len(t, esperas, 5)
	// Da terceira espera em diante a base está travada no teto (200ms + jitter).
	for i := 2; i < len(esperas); i++ {
		assert.LessOrEqual(t, esperas[i], 300*time.Millisecond, "espera %d estourou o teto", i)
	}
}

func TestExecutar_ContextoCanceladoInterrompe(t *testing.T) {
	cancelado := errors.New("cancelado")
	p := PoliticaRetry{
		MaxTentativas:  5,
		BackoffInicial: time.Millisecond,
		dormir: func(_ context.Context, _ time.Duration) error {
			return cancelado
		},
	}
	chamadas := 0
	err := p.Executar(context.Background(), zerolog.Nop(), "teste", func() error {
		chamadas++
		return &erroHTTP{status: 500}
	})
	assert.ErrorIs(t, err, cancelado)
	assert.Equal(t, 1, chamadas, "cancelamento durante a espera aborta o laço")
}
