// Package http provides the management API handlers.
package http

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/ioa2205/email-support-agent/core/port/in"
	"github.com/ioa2205/email-support-agent/pkg/apperr"
)

// AccountHandler exposes the account connection flow over HTTP.
type AccountHandler struct {
	connect in.ConnectService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(connect in.ConnectService) *AccountHandler {
	return &AccountHandler{connect: connect}
}

// Register mounts the routes.
func (h *AccountHandler) Register(app fiber.Router) {
	app.Get("/health", h.Health)
	app.Get("/accounts", h.ListAccounts)
	app.Get("/connect", h.Connect)
	app.Get("/oauth2callback", h.Callback)
	app.Delete("/accounts/:email", h.Disconnect)
}

// Health reports liveness.
func (h *AccountHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// ListAccounts returns all connected mailboxes.
func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	accounts, err := h.connect.ListAccounts(c.Context())
	if err != nil {
		return apperr.DatabaseError("list accounts", err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"accounts": accounts,
	})
}

// Connect redirects the mailbox owner to the consent page.
func (h *AccountHandler) Connect(c *fiber.Ctx) error {
	return c.Redirect(h.connect.BeginConnect(), fiber.StatusTemporaryRedirect)
}

// Callback completes the authorization-code flow.
func (h *AccountHandler) Callback(c *fiber.Ctx) error {
	if errMsg := c.Query("error"); errMsg != "" {
		return apperr.BadRequest("consent denied: " + errMsg)
	}

	email, err := h.connect.CompleteConnect(c.Context(), c.Query("state"), c.Query("code"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"email":   email,
	})
}

// Disconnect removes a connected mailbox.
func (h *AccountHandler) Disconnect(c *fiber.Ctx) error {
	email, err := url.PathUnescape(c.Params("email"))
	if err != nil {
		return apperr.BadRequest("invalid email parameter")
	}

	if err := h.connect.Disconnect(c.Context(), email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"email":   email,
	})
}
