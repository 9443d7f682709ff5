package controller

import (
	"akasha-chat-be/internal/dto"
	"akasha-chat-be/internal/pkg/serverutils"
	"akasha-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	ListChats(ctx *fiber.Ctx) error
	StartChat(ctx *fiber.Ctx) error
	GetChat(ctx *fiber.Ctx) error
	RenameChat(ctx *fiber.Ctx) error
	DeleteChat(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
	auth    fiber.Handler
}

func NewChatController(service service.IChatService, auth fiber.Handler) IChatController {
	return &chatController{service: service, auth: auth}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chats")
	h.Use(c.auth)
	h.Get("/", c.ListChats)
	h.Post("/", c.StartChat)
	h.Get("/:id", c.GetChat)
	h.Patch("/:id", c.RenameChat)
	h.Delete("/:id", c.DeleteChat)
	h.Post("/:id/messages", c.SendMessage)
}

func (c *chatController) ListChats(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var q dto.ChatListQuery
	if err := ctx.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}
	if err := serverutils.ValidateRequest(q); err != nil {
		return err
	}

	res, err := c.service.ListChats(ctx.UserContext(), userId, q.Format)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Chats", res))
}

func (c *chatController) StartChat(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.StartChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.StartChat(ctx.UserContext(), userId, &req)
	if err != nil {
		return c.sendError(ctx, res, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Chat started", res))
}

func (c *chatController) GetChat(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	chatId, err := chatIDParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetChat(ctx.UserContext(), userId, chatId, ctx.Query("format"))
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat", res))
}

func (c *chatController) RenameChat(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	chatId, err := chatIDParam(ctx)
	if err != nil {
		return err
	}

	var req dto.RenameChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.RenameChat(ctx.UserContext(), userId, chatId, &req)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat renamed", res))
}

func (c *chatController) DeleteChat(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	chatId, err := chatIDParam(ctx)
	if err != nil {
		return err
	}

	if err := c.service.DeleteChat(ctx.UserContext(), userId, chatId); err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Chat deleted", nil))
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	chatId, err := chatIDParam(ctx)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendMessage(ctx.UserContext(), userId, chatId, &req)
	if err != nil {
		return c.sendError(ctx, res, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Message sent", res))
}

// sendError answers a failed assistant round trip with 502 and the typed
// text, so the client can put it back into the input box.
func (c *chatController) sendError(ctx *fiber.Ctx, res *dto.ChatResponse, err error) error {
	draft, ok := service.IsSendFailure(err)
	if !ok {
		return writeError(ctx, err)
	}
	return ctx.Status(fiber.StatusBadGateway).JSON(serverutils.ErrorResponseWithData(
		fiber.StatusBadGateway,
		"The assistant did not reply. Please try again.",
		dto.SendFailedResponse{Draft: draft, Chat: res},
	))
}
