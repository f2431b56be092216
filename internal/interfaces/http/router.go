package http

import (
	"github.com/gofiber/fiber/v2"

	appfiscal "github.com/jovemegidio/zyntra-fiscal/internal/application/fiscal"
)

// RouterDeps dependências para o router.
type RouterDeps struct {
	FiscalSvc      *appfiscal.Service
	JWTSecret      string
	ThrottleLimite int
}

// Router registra as rotas da API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Todas as rotas fiscais exigem Bearer Token.
	protegido := api.Group("/", AuthMiddleware(deps.JWTSecret))

	handler := NewNotaHandler(deps.FiscalSvc)

	// Leituras.
	protegido.Get("/notas/:id", handler.GetByID)
	protegido.Get("/notas/:id/xml", handler.XML)
	protegido.Get("/notas/:id/eventos", handler.ListarEventos)
	protegido.Get("/notas/chave/:chave", handler.GetByChave)
	protegido.Get("/eventos/flagrados", handler.ListarFlagrados)
	protegido.Get("/sefaz/status", handler.StatusSefaz)

	// Mutações: perfil fiscal + throttle.
	mutacao := protegido.Group("/", ExigePerfilFiscal(), ThrottleMiddleware(deps.ThrottleLimite))
	mutacao.Post("/notas", handler.Emitir)
	mutacao.Post("/notas/:id/consultar-recibo", handler.ConsultarRecibo)
	mutacao.Post("/notas/:id/cancelamento", handler.Cancelar)
	mutacao.Post("/notas/:id/carta-correcao", handler.Corrigir)
	mutacao.Post("/inutilizacoes", handler.Inutilizar)
}
