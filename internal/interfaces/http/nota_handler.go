package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	appfiscal "github.com/jovemegidio/zyntra-fiscal/internal/application/fiscal"
	"github.com/jovemegidio/zyntra-fiscal/internal/domain"
	"github.com/jovemegidio/zyntra-fiscal/internal/domain/entity"
)

// NotaHandler trata as requisições HTTP do ciclo de vida da NFe.
type NotaHandler struct {
	svc *appfiscal.Service
}

// NewNotaHandler constrói o handler.
func NewNotaHandler(svc *appfiscal.Service) *NotaHandler {
	return &NotaHandler{svc: svc}
}

// Emitir emite uma NFe.
// POST /api/notas
func (h *NotaHandler) Emitir(c *fiber.Ctx) error {
	var in EmitirNotaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	nota, err := h.svc.Emitir(c.Context(), in.paraPedido())
	if err != nil {
		// A nota pode existir mesmo com erro (falha de transporte depois do
		// commit): devolve o estado junto com o erro.
		if nota != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"nota":  notaParaResponse(nota),
				"error": ErrorResponse{Code: "SEFAZ_INDISPONIVEL", Message: err.Error()},
			})
		}
		return respostaErro(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(notaParaResponse(nota))
}

// GetByID consulta uma nota com itens e eventos.
// GET /api/notas/:id
func (h *NotaHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "id obrigatório"})
	}
	completa, err := h.svc.ConsultarNota(c.Context(), id)
	if err != nil {
		return respostaErro(c, err)
	}
	return c.JSON(montarNotaCompleta(completa))
}

// GetByChave consulta uma nota pela chave de acesso.
// GET /api/notas/chave/:chave
func (h *NotaHandler) GetByChave(c *fiber.Ctx) error {
	chave := c.Params("chave")
	if len(chave) != 44 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "chave de acesso deve ter 44 dígitos"})
	}
	completa, err := h.svc.ConsultarPorChave(c.Context(), chave)
	if err != nil {
		return respostaErro(c, err)
	}
	return c.JSON(montarNotaCompleta(completa))
}

// XML devolve o XML fiscal da nota: o autorizado (nfeProc) quando houver,
// senão o enviado.
// GET /api/notas/:id/xml
func (h *NotaHandler) XML(c *fiber.Ctx) error {
	completa, err := h.svc.ConsultarNota(c.Context(), c.Params("id"))
	if err != nil {
		return respostaErro(c, err)
	}
	xmlDoc := completa.Nota.XMLAutorizado
	if xmlDoc == "" {
		xmlDoc = completa.Nota.XMLEnviado
	}
	if xmlDoc == "" {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: "nota sem XML registrado"})
	}
	c.Set(fiber.HeaderContentType, "application/xml; charset=utf-8")
	return c.SendString(xmlDoc)
}

// ConsultarRecibo consulta o desfecho de um lote assíncrono pendente.
// POST /api/notas/:id/consultar-recibo
func (h *NotaHandler) ConsultarRecibo(c *fiber.Ctx) error {
	nota, err := h.svc.ConsultarRecibo(c.Context(), c.Params("id"))
	if err != nil {
		return respostaErro(c, err)
	}
	return c.JSON(notaParaResponse(nota))
}

// Cancelar registra o evento de cancelamento de uma nota autorizada.
// POST /api/notas/:id/cancelamento
func (h *NotaHandler) Cancelar(c *fiber.Ctx) error {
	var in JustificativaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	evento, err := h.svc.Cancelar(c.Context(), c.Params("id"), in.Justificativa)
	if err != nil {
		return respostaErroEvento(c, evento, err)
	}
	return c.Status(fiber.StatusCreated).JSON(eventoParaResponse(evento))
}

// Corrigir registra uma carta de correção eletrônica.
// POST /api/notas/:id/carta-correcao
func (h *NotaHandler) Corrigir(c *fiber.Ctx) error {
	var in JustificativaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	evento, err := h.svc.CorrigirNota(c.Context(), c.Params("id"), in.Justificativa)
	if err != nil {
		return respostaErroEvento(c, evento, err)
	}
	return c.Status(fiber.StatusCreated).JSON(eventoParaResponse(evento))
}

// ListarEventos lista os eventos de uma nota.
// GET /api/notas/:id/eventos
func (h *NotaHandler) ListarEventos(c *fiber.Ctx) error {
	eventos, err := h.svc.ListarEventos(c.Context(), c.Params("id"))
	if err != nil {
		return respostaErro(c, err)
	}
	return c.JSON(montarEventos(eventos))
}

// Inutilizar pede a inutilização de uma faixa de numeração.
// POST /api/inutilizacoes
func (h *NotaHandler) Inutilizar(c *fiber.Ctx) error {
	var in InutilizarRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	evento, err := h.svc.Inutilizar(c.Context(), appfiscal.PedidoInutilizacao{
		Serie:         in.Serie,
		NumeroInicial: in.NumeroInicial,
		NumeroFinal:   in.NumeroFinal,
		Justificativa: in.Justificativa,
	})
	if err != nil {
		return respostaErroEvento(c, evento, err)
	}
	return c.Status(fiber.StatusCreated).JSON(eventoParaResponse(evento))
}

// ListarFlagrados lista eventos com desfecho não persistido, para
// reconciliação.
// GET /api/eventos/flagrados
func (h *NotaHandler) ListarFlagrados(c *fiber.Ctx) error {
	eventos, err := h.svc.ListarFlagrados(c.Context())
	if err != nil {
		return respostaErro(c, err)
	}
	return c.JSON(montarEventos(eventos))
}

// StatusSefaz consulta a disponibilidade do autorizador da UF configurada.
// GET /api/sefaz/status
func (h *NotaHandler) StatusSefaz(c *fiber.Ctx) error {
	ret, err := h.svc.StatusServico(c.Context())
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Code: "SEFAZ_INDISPONIVEL", Message: err.Error()})
	}
	return c.JSON(fiber.Map{"cstat": ret.CStat, "motivo": ret.XMotivo})
}

func montarNotaCompleta(completa *appfiscal.NotaCompleta) fiber.Map {
	return fiber.Map{
		"nota":    notaParaResponse(completa.Nota),
		"itens":   completa.Itens,
		"eventos": montarEventos(completa.Eventos),
	}
}

func montarEventos(eventos []entity.EventoFiscal) []EventoResponse {
	out := make([]EventoResponse, len(eventos))
	for i := range eventos {
		out[i] = eventoParaResponse(&eventos[i])
	}
	return out
}

// respostaErro traduz erros de domínio para status HTTP.
func respostaErro(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNaoEncontrado):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrEntradaInvalida), errors.Is(err, domain.ErrValidacao):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrEstadoInvalido):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Code: "INVALID_STATE", Message: err.Error()})
	case errors.Is(err, domain.ErrConflito), errors.Is(err, domain.ErrDuplicado):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrAssinatura):
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "SIGNATURE", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

// respostaErroEvento devolve o evento junto do erro quando ele chegou a ser
// registrado (falha de transporte ou de persistência do desfecho).
func respostaErroEvento(c *fiber.Ctx, evento *entity.EventoFiscal, err error) error {
	if evento != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"evento": eventoParaResponse(evento),
			"error":  ErrorResponse{Code: "SEFAZ_INDISPONIVEL", Message: err.Error()},
		})
	}
	return respostaErro(c, err)
}
