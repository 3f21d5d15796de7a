package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/helioshop/concierge-backend/internal/models"
	"github.com/helioshop/concierge-backend/internal/services"
)

// WhatsAppHandler receives inbound webhook deliveries, feeds them through
// the dialogue router and forwards the response to the transport.
type WhatsAppHandler struct {
	router    *services.DialogueRouter
	transport services.Transport
}

// NewWhatsAppHandler creates the webhook handler. A nil transport is
// allowed in development: responses are logged instead of sent.
func NewWhatsAppHandler(router *services.DialogueRouter, transport services.Transport) *WhatsAppHandler {
	return &WhatsAppHandler{router: router, transport: transport}
}

// TwilioWebhookPayload is the form-encoded body Twilio posts for inbound
// WhatsApp messages. ButtonPayload/ButtonText carry interactive replies for
// both quick-reply buttons and list selections.
type TwilioWebhookPayload struct {
	MessageSid    string `form:"MessageSid"`
	AccountSid    string `form:"AccountSid"`
	From          string `form:"From"`
	To            string `form:"To"`
	Body          string `form:"Body"`
	ButtonPayload string `form:"ButtonPayload"`
	ButtonText    string `form:"ButtonText"`
	NumMedia      string `form:"NumMedia"`
}

// HandleWebhook processes one inbound WhatsApp message. Store failures
// return 500 so the gateway redelivers; delivery failures are logged and
// acknowledged, since the session has already advanced.
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	userID := strings.TrimPrefix(payload.From, "whatsapp:")
	event, ok := eventFromPayload(payload)
	if userID == "" || !ok {
		// Status callbacks and media-only messages carry no actionable
		// input; acknowledge without touching the engine.
		return c.SendStatus(fiber.StatusOK)
	}

	log.Printf("whatsapp message: from=%s text=%q reply=%q", userID, payload.Body, payload.ButtonPayload)

	resp, err := h.router.Handle(userID, event)
	if err != nil {
		log.Printf("error handling event for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Event not processed",
		})
	}

	if h.transport == nil {
		log.Printf("response not sent (transport not configured): kind=%s", resp.Kind())
		return c.SendStatus(fiber.StatusOK)
	}
	if err := h.transport.Send(userID, resp); err != nil {
		log.Printf("failed to deliver response to %s: %v", userID, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// eventFromPayload maps the provider payload to an inbound event. A
// structured reply wins over free text.
func eventFromPayload(p TwilioWebhookPayload) (models.InboundEvent, bool) {
	if p.ButtonPayload != "" {
		return models.ReplyEvent(p.ButtonPayload, p.ButtonText), true
	}
	if strings.TrimSpace(p.Body) != "" {
		return models.TextEvent(p.Body), true
	}
	return models.InboundEvent{}, false
}

// TestWebhookPayload drives the dialogue without Twilio, for development.
type TestWebhookPayload struct {
	From       string `json:"from"`
	Message    string `json:"message"`
	ReplyID    string `json:"reply_id"`
	ReplyTitle string `json:"reply_title"`
}

// HandleTestWebhook processes a JSON test message and returns the response
// inline instead of sending it.
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}
	if payload.From == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing sender",
		})
	}

	var event models.InboundEvent
	switch {
	case payload.ReplyID != "":
		event = models.ReplyEvent(payload.ReplyID, payload.ReplyTitle)
	case strings.TrimSpace(payload.Message) != "":
		event = models.TextEvent(payload.Message)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing message or reply",
		})
	}

	resp, err := h.router.Handle(payload.From, event)
	if err != nil {
		log.Printf("error handling test event for %s: %v", payload.From, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Event not processed",
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"kind":     resp.Kind(),
		"response": resp,
	})
}
