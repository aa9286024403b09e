package controller

import (
	"strconv"

	"docgen-selection-be/internal/dto"
	"docgen-selection-be/internal/pkg/serverutils"
	"docgen-selection-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IFormController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	TabStatus(ctx *fiber.Ctx) error
	Mount(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	SaveFavorite(ctx *fiber.Ctx) error
	SelectFavorite(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx) error
}

type formController struct {
	service service.IFormService
}

func NewFormController(service service.IFormService) IFormController {
	return &formController{service: service}
}

func (c *formController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/forms/v1")
	h.Use(auth, serverutils.TabSessionMiddleware)
	h.Get("", c.TabStatus)
	h.Post(":docType/sections/:index/mount", c.Mount)
	h.Put(":docType/sections/:index/state", c.Update)
	h.Get(":docType/sections/:index", c.Show)
	h.Post(":docType/sections/:index/favorite", c.SaveFavorite)
	h.Post(":docType/favorite", c.SelectFavorite)
	h.Post(":docType/clear", c.Clear)
}

// Restores outlive the request when async, so services get UserContext
// rather than the pooled fasthttp context.

func (c *formController) TabStatus(ctx *fiber.Ctx) error {
	userId, tab := identity(ctx)

	res, err := c.service.TabStatus(ctx.UserContext(), userId, tab)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get tab status", res))
}

func (c *formController) Mount(ctx *fiber.Ctx) error {
	userId, tab := identity(ctx)
	index, err := sectionIndex(ctx)
	if err != nil {
		return err
	}

	var req dto.MountSectionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Mount(ctx.UserContext(), userId, tab, ctx.Params("docType"), index, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success mount section", res))
}

func (c *formController) Update(ctx *fiber.Ctx) error {
	userId, tab := identity(ctx)
	index, err := sectionIndex(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateSectionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.UserContext(), userId, tab, ctx.Params("docType"), index, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update section", res))
}

func (c *formController) Show(ctx *fiber.Ctx) error {
	userId, tab := identity(ctx)
	index, err := sectionIndex(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.SectionStatus(ctx.UserContext(), userId, tab, ctx.Params("docType"), index)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show section", res))
}

func (c *formController) SaveFavorite(ctx *fiber.Ctx) error {
	userId, tab := identity(ctx)
	index, err := sectionIndex(ctx)
	if err != nil {
		return err
	}

	var req dto.SaveSectionFavoriteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SaveSectionFavorite(ctx.UserContext(), userId, tab, ctx.Params("docType"), index, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success save favorite", res))
}

func (c *formController) SelectFavorite(ctx *fiber.Ctx) error {
	userId, tab := identity(ctx)

	var req dto.SelectFavoriteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SelectFavorite(ctx.UserContext(), userId, tab, ctx.Params("docType"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success select favorite", res))
}

func (c *formController) Clear(ctx *fiber.Ctx) error {
	userId, tab := identity(ctx)

	if err := c.service.ClearTab(ctx.UserContext(), userId, tab, ctx.Params("docType")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success clear tab", nil))
}

func identity(ctx *fiber.Ctx) (uuid.UUID, uuid.UUID) {
	userId, _ := uuid.Parse(ctx.Locals("user_id").(string))
	tab, _ := ctx.Locals("tab_session").(uuid.UUID)
	return userId, tab
}

func sectionIndex(ctx *fiber.Ctx) (int, error) {
	index, err := strconv.Atoi(ctx.Params("index"))
	if err != nil || index < 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid section index")
	}
	return index, nil
}
