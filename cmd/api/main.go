package main

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	appfiscal "github.com/jovemegidio/zyntra-fiscal/internal/application/fiscal"
	"github.com/jovemegidio/zyntra-fiscal/internal/infrastructure/nfe/signer"
	"github.com/jovemegidio/zyntra-fiscal/internal/infrastructure/postgres"
	"github.com/jovemegidio/zyntra-fiscal/internal/infrastructure/sefaz"
	httpRouter "github.com/jovemegidio/zyntra-fiscal/internal/interfaces/http"
	"github.com/jovemegidio/zyntra-fiscal/pkg/config"
	"github.com/jovemegidio/zyntra-fiscal/pkg/logger"
	pkgnfe "github.com/jovemegidio/zyntra-fiscal/pkg/nfe"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("carregar configuração: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("uf", cfg.NFe.UF).
		Str("ambiente", cfg.NFe.Ambiente).
		Msg("iniciando aplicação")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexão ao PostgreSQL")
	}
	defer pool.Close()

	notaRepo := postgres.NewNotaFiscalRepository(pool)
	eventoRepo := postgres.NewEventoRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Certificado A1: obrigatório em produção; fora dela a ausência degrada
	// para envio sem assinatura (a SEFAZ rejeita, mas o fluxo roda).
	cert, err := signer.CarregarCertificado(cfg.NFe.CertPath, cfg.NFe.CertKeyPath, cfg.NFe.CertPassword)
	if err != nil {
		if cfg.NFe.Ambiente == pkgnfe.AmbienteProducao {
			log.Fatal().Err(err).Msg("certificado A1 obrigatório em produção")
		}
		log.Warn().Err(err).Msg("certificado A1 indisponível, emissão seguirá sem assinatura")
		cert = tls.Certificate{}
	}
	assinador := signer.NewAssinadorDigital(cert)

	sefazCliente := sefaz.NewCliente(cfg.SEFAZ, cfg.NFe, cert, log.Componente("sefaz").Zerolog())

	fiscalSvc := appfiscal.NewService(
		log.Zerolog(), cfg.NFe, cfg.App.Env,
		txRunner, notaRepo, eventoRepo,
		assinador, sefazCliente,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 15,
		WriteTimeout: time.Second * 90, // a SEFAZ pode segurar a autorização
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		FiscalSvc:      fiscalSvc,
		JWTSecret:      cfg.HTTP.JWTSecret,
		ThrottleLimite: cfg.HTTP.ThrottleLimite,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("sinal de desligamento recebido, encerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("encerramento do servidor")
	}

	log.Info().Msg("aplicação encerrada")
}
