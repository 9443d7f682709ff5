package controller

import (
	"errors"

	"akasha-chat-be/internal/entity"
	"akasha-chat-be/internal/pkg/serverutils"
	"akasha-chat-be/pkg/chat"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// writeError maps domain errors to a status and a message the client can
// show as is.
func writeError(ctx *fiber.Ctx, err error) error {
	code, msg := fiber.StatusInternalServerError, "Internal server error"

	switch {
	case errors.Is(err, entity.ErrNotFound):
		code, msg = fiber.StatusNotFound, "Not found"
	case errors.Is(err, chat.ErrEmptyMessage):
		code, msg = fiber.StatusBadRequest, "Message is empty"
	case errors.Is(err, chat.ErrSendInProgress):
		code, msg = fiber.StatusConflict, "A reply is still on its way"
	case errors.Is(err, entity.ErrDecode):
		msg = "Stored data could not be read"
	case errors.Is(err, entity.ErrStore):
		msg = "Could not reach the data store"
	default:
		var ferr *fiber.Error
		var verr *serverutils.ValidationError
		if errors.As(err, &ferr) || errors.As(err, &verr) {
			return serverutils.WriteError(ctx, err)
		}
	}

	return ctx.Status(code).JSON(serverutils.ErrorResponse(code, msg))
}

func chatIDParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid chat id")
	}
	return id, nil
}
