package controller

import (
	"errors"
	"net/url"

	"akasha-chat-be/internal/pkg/logger"
	"akasha-chat-be/internal/pkg/serverutils"
	"akasha-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IOAuthController interface {
	RegisterRoutes(r fiber.Router)
	Login(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
}

type oauthController struct {
	service   service.IOAuthService
	clientURL string
	logger    logger.ILogger
}

func NewOAuthController(service service.IOAuthService, clientURL string, log logger.ILogger) IOAuthController {
	return &oauthController{service: service, clientURL: clientURL, logger: log}
}

func (c *oauthController) RegisterRoutes(r fiber.Router) {
	// e.g., /auth/google
	h := r.Group("/auth")
	h.Get("/:provider", c.Login)
	h.Get("/:provider/callback", c.Callback)
}

func (c *oauthController) Login(ctx *fiber.Ctx) error {
	loginURL, err := c.service.GetLoginURL(ctx.Params("provider"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}
	return ctx.Redirect(loginURL, fiber.StatusTemporaryRedirect)
}

func (c *oauthController) Callback(ctx *fiber.Ctx) error {
	provider := ctx.Params("provider")
	code := ctx.Query("code")
	if code == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Missing code"))
	}

	res, err := c.service.HandleCallback(ctx.UserContext(), provider, code, ctx.Query("state"))
	if err != nil {
		c.logger.Warn("OAuthController", "OAuth callback failed", map[string]interface{}{
			"provider": provider,
			"error":    err.Error(),
		})
		status := fiber.StatusInternalServerError
		if errors.Is(err, service.ErrUnsupportedProvider) || errors.Is(err, service.ErrInvalidOAuthState) {
			status = fiber.StatusBadRequest
		} else if errors.Is(err, service.ErrInvalidCredentials) {
			status = fiber.StatusUnauthorized
		}
		return ctx.Status(status).JSON(serverutils.ErrorResponse(status, service.AuthMessage(err)))
	}

	c.logger.Info("OAuthController", "User authenticated", map[string]interface{}{"user_id": res.User.Id})

	// The client picks the token up from the query string.
	return ctx.Redirect(c.clientURL+"/app?token="+url.QueryEscape(res.AccessToken), fiber.StatusTemporaryRedirect)
}
