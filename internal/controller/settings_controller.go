package controller

import (
	"akasha-chat-be/internal/dto"
	"akasha-chat-be/internal/pkg/serverutils"
	"akasha-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISettingsController interface {
	RegisterRoutes(r fiber.Router)
	GetTools(ctx *fiber.Ctx) error
	UpdateTools(ctx *fiber.Ctx) error
}

type settingsController struct {
	service service.ISettingsService
	auth    fiber.Handler
}

func NewSettingsController(service service.ISettingsService, auth fiber.Handler) ISettingsController {
	return &settingsController{service: service, auth: auth}
}

func (c *settingsController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/settings")
	h.Use(c.auth)
	h.Get("/tools", c.GetTools)
	h.Put("/tools", c.UpdateTools)
}

func (c *settingsController) GetTools(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetTools(ctx.UserContext(), userId)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Tool settings", res))
}

func (c *settingsController) UpdateTools(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateToolSettingsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateTools(ctx.UserContext(), userId, &req)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Tool settings updated", res))
}
