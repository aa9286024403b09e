package controller

import (
	"context"

	"docgen-selection-be/internal/pkg/serverutils"
	"docgen-selection-be/internal/service"
	ws "docgen-selection-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type IWsController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Upgrade(ctx *fiber.Ctx) error
}

type wsController struct {
	hub   *ws.Hub
	forms service.IFormService
}

func NewWsController(hub *ws.Hub, forms service.IFormService) IWsController {
	return &wsController{hub: hub, forms: forms}
}

func (c *wsController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/ws")
	h.Use(auth, serverutils.TabSessionMiddleware)
	h.Get("/tabs", c.Upgrade, websocket.New(c.serve))
}

func (c *wsController) serve(conn *websocket.Conn) {
	tab := conn.Locals("tab_session").(uuid.UUID)
	userId, _ := uuid.Parse(conn.Locals("user_id").(string))

	var hello *ws.Message
	if status, err := c.forms.TabStatus(context.Background(), userId, tab); err == nil {
		hello = &ws.Message{Type: service.MessageTabStatus, Data: status}
	}
	ws.ServeWs(c.hub, conn, tab, hello)
}

// Upgrade rejects plain requests and tabs owned by someone else before the
// handshake.
func (c *wsController) Upgrade(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	userId, tab := identity(ctx)
	if err := c.forms.Authorize(userId, tab); err != nil {
		return err
	}
	return ctx.Next()
}
