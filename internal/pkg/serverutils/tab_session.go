package serverutils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// TabSessionHeader carries the browser tab's session id. The client keeps it
// in sessionStorage so it survives reloads but not new tabs.
const TabSessionHeader = "X-Tab-Session"

// TabSessionMiddleware requires a tab session id, from the header or the
// "tab" query parameter, and stores it in ctx.Locals("tab_session").
func TabSessionMiddleware(ctx *fiber.Ctx) error {
	raw := ctx.Get(TabSessionHeader)
	if raw == "" {
		raw = ctx.Query("tab")
	}
	if raw == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing tab session")
	}
	tab, err := uuid.Parse(raw)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid tab session")
	}

	ctx.Locals("tab_session", tab)
	return ctx.Next()
}
