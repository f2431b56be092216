package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jovemegidio/zyntra-fiscal/pkg/jwt"
)

// Locals keys para ator e perfil no Fiber.
const (
	LocalAtorID = "ator_id"
	LocalPerfil = "perfil"
)

// PerfilFiscal autoriza mutações (emitir, cancelar, corrigir, inutilizar);
// PerfilConsulta só leitura.
const (
	PerfilFiscal   = "fiscal"
	PerfilConsulta = "consulta"
)

// AuthMiddleware valida o Bearer Token JWT e coloca ator e perfil em c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "MISSING_TOKEN", Message: "header Authorization obrigatório"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "MISSING_TOKEN", Message: "token vazio"})
		}
		atorID, perfil, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido ou expirado"})
		}
		c.Locals(LocalAtorID, atorID)
		c.Locals(LocalPerfil, perfil)
		return c.Next()
	}
}

// ExigePerfilFiscal barra atores sem perfil fiscal nas rotas de mutação.
func ExigePerfilFiscal() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetPerfil(c) != PerfilFiscal {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Code: "FORBIDDEN", Message: "perfil fiscal obrigatório"})
		}
		return c.Next()
	}
}

// GetAtorID devolve o ator do contexto (depois do middleware de auth).
func GetAtorID(c *fiber.Ctx) string {
	v := c.Locals(LocalAtorID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetPerfil devolve o perfil do contexto.
func GetPerfil(c *fiber.Ctx) string {
	v := c.Locals(LocalPerfil)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
