package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jovemegidio/zyntra-fiscal/pkg/ttlcache"
)

// ThrottleMiddleware limita requisições por ator por minuto. Emissão dispara
// alocação de número e chamada à SEFAZ; um cliente em loop não pode esgotar a
// série nem martelar o autorizador.
func ThrottleMiddleware(limite int) fiber.Handler {
	contador := ttlcache.New[int](time.Minute, 4096)
	return func(c *fiber.Ctx) error {
		ator := GetAtorID(c)
		if ator == "" {
			ator = c.IP()
		}
		if ttlcache.Incr(contador, ator) > limite {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Code:    "THROTTLED",
				Message: "limite de requisições por minuto excedido",
			})
		}
		return c.Next()
	}
}
