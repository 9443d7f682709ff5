package controller

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"akasha-chat-be/internal/dto"
	"akasha-chat-be/internal/pkg/serverutils"
	"akasha-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const maxAvatarBytes = 5 << 20

type IUserController interface {
	RegisterRoutes(r fiber.Router)
	GetProfile(ctx *fiber.Ctx) error
	UpdateProfile(ctx *fiber.Ctx) error
}

type userController struct {
	service service.IUserService
	auth    fiber.Handler
}

func NewUserController(service service.IUserService, auth fiber.Handler) IUserController {
	return &userController{service: service, auth: auth}
}

func (c *userController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/user")
	h.Use(c.auth)
	h.Get("/profile", c.GetProfile)
	h.Put("/profile", c.UpdateProfile)
}

func (c *userController) GetProfile(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetProfile(ctx.UserContext(), userId)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("User profile", res))
}

// UpdateProfile takes a multipart form with an optional "name" field and
// an optional "avatar" file.
func (c *userController) UpdateProfile(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateProfileRequest
	if form, err := ctx.MultipartForm(); err == nil {
		if names := form.Value["name"]; len(names) > 0 {
			name := strings.TrimSpace(names[0])
			req.Name = &name
		}
		if files := form.File["avatar"]; len(files) > 0 {
			avatar, err := readAvatar(files[0])
			if err != nil {
				return err
			}
			req.Avatar = avatar
		}
	} else if name := ctx.FormValue("name"); name != "" {
		trimmed := strings.TrimSpace(name)
		req.Name = &trimmed
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateProfile(ctx.UserContext(), userId, &req)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Profile updated", res))
}

func readAvatar(fh *multipart.FileHeader) (*dto.AvatarUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Could not read avatar")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxAvatarBytes+1))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Could not read avatar")
	}
	if len(data) > maxAvatarBytes {
		return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge, "Avatar is too large")
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Avatar must be an image")
	}
	return &dto.AvatarUpload{Bytes: data, MimeType: mimeType}, nil
}
