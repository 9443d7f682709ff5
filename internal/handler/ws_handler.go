package handler

import (
	"akasha-chat-be/internal/pkg/logger"
	"akasha-chat-be/internal/pkg/serverutils"
	internalWS "akasha-chat-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WsHandler upgrades authenticated requests to a websocket that receives
// chat updates.
type WsHandler struct {
	hub     *internalWS.Hub
	tokens  *serverutils.TokenIssuer
	revoked serverutils.RevocationChecker
	logger  logger.ILogger
}

func NewWsHandler(hub *internalWS.Hub, tokens *serverutils.TokenIssuer, revoked serverutils.RevocationChecker, log logger.ILogger) *WsHandler {
	return &WsHandler{
		hub:     hub,
		tokens:  tokens,
		revoked: revoked,
		logger:  log,
	}
}

// ServeWs authenticates with the "token" query parameter (browsers cannot
// set headers on a websocket handshake) or a bearer header.
func (h *WsHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := serverutils.BearerToken(c)
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
	}

	userID, err := h.tokens.Parse(tokenStr)
	if err != nil || (h.revoked != nil && h.revoked.IsRevoked(serverutils.HashToken(tokenStr))) {
		h.logger.Warn("WsHandler", "Invalid token in websocket handshake", nil)
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("WsHandler", "WebSocket session started", map[string]interface{}{"user_id": userID})
		internalWS.ServeWs(h.hub, conn, userID)
		h.logger.Info("WsHandler", "WebSocket session ended", map[string]interface{}{"user_id": userID})
	})(c)
}

func (h *WsHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws", h.ServeWs)
}
