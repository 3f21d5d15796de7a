package services

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/helioshop/concierge-backend/internal/models"
)

// Menu reply ids. Structured replies carry these back from the provider.
const (
	replyMenuProductInfo = "menu_product_info"
	replyMenuSupport     = "menu_support"
	replyMenuOrder       = "menu_order"
	replyOrderConfirm    = "prod_order_yes"
	replyOrderDecline    = "prod_order_no"
)

// Engine is the conversation state machine. Handle is deterministic and
// performs no I/O: all mutation flows through the session the router owns,
// so the router can persist (and retry persisting) without re-running the
// transition.
type Engine struct {
	catalog Catalog
}

// NewEngine creates an engine over the given catalog. A nil catalog gets
// the default product range.
func NewEngine(catalog Catalog) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Engine{catalog: catalog}
}

// Handle advances the session by one inbound event and returns the response
// to send. Structured replies take precedence over free text; free text is
// only parsed in states that expect it.
func (e *Engine) Handle(sess *models.Session, event models.InboundEvent) models.Response {
	switch sess.State {
	case models.StateGreeting:
		return e.handleGreeting(sess)
	case models.StateMenu:
		return e.handleMenu(sess, event)
	case models.StateProductList:
		return e.handleProductList(sess, event)
	case models.StateProductFollowup:
		return e.handleProductFollowup(sess, event)
	case models.StateSupportRequest:
		return e.handleSupportRequest(sess, event)
	case models.StateOrderStart:
		return e.handleOrderStart(sess, event)
	case models.StateOrderQuantity:
		return e.handleOrderQuantity(sess, event)
	case models.StateOrderAddress:
		return e.handleOrderAddress(sess, event)
	}

	// Unknown or resting state (support_processing, corrupted data, stale
	// session from an older build): reset rather than fail.
	log.Printf("unhandled state %q for user=%s session=%s, resetting to greeting",
		sess.State, sess.UserID, sess.SessionID)
	sess.State = models.StateGreeting
	return models.Text{Body: "Sorry, something went wrong. Let's start over. How can I help?"}
}

// handleGreeting turns any input into the option menu. First contact lands
// here because new sessions start in the greeting state, so the menu body
// doubles as the welcome.
func (e *Engine) handleGreeting(sess *models.Session) models.Response {
	sess.State = models.StateMenu
	return models.NewButtonMenu("",
		"Hello! Welcome to our service. How can I help you today?\n\nPlease choose an option:",
		e.menuButtons()...)
}

func (e *Engine) handleMenu(sess *models.Session, event models.InboundEvent) models.Response {
	switch event.ReplyID() {
	case replyMenuProductInfo:
		sess.State = models.StateProductList
		return e.productListMenu()
	case replyMenuSupport:
		sess.State = models.StateSupportRequest
		return models.Text{Body: "Please describe the issue you're experiencing."}
	case replyMenuOrder:
		sess.State = models.StateOrderStart
		return models.Text{Body: "Which product would you like to order and the quantity? (e.g., 'Model A 2')"}
	}
	return models.NewButtonMenu("", "Invalid selection. Please choose an option:", e.menuButtons()...)
}

func (e *Engine) handleProductList(sess *models.Session, event models.InboundEvent) models.Response {
	product, ok := e.catalog.ByID(event.ReplyID())
	if !ok {
		sess.State = models.StateGreeting
		return models.Text{Body: "Sorry, I didn't understand that selection. Let's start over."}
	}

	title := product.Title
	if event.Reply != nil && event.Reply.Title != "" {
		title = event.Reply.Title
	}
	sess.Context.ProductInterest = product.ID
	sess.Context.ProductInterestTitle = title
	sess.State = models.StateProductFollowup

	body := fmt.Sprintf("%s\n\nWould you like to place an order for %s?", product.Summary(), title)
	return models.NewButtonMenu("", body, e.followupButtons()...)
}

func (e *Engine) handleProductFollowup(sess *models.Session, event models.InboundEvent) models.Response {
	switch event.ReplyID() {
	case replyOrderConfirm:
		sess.State = models.StateOrderQuantity
		return models.Text{Body: fmt.Sprintf("Great! How many units of %s would you like?", e.interestTitle(sess))}
	case replyOrderDecline:
		sess.State = models.StateMenu
		return models.NewButtonMenu("", "Okay. How else can I help you?", e.menuButtons()...)
	}
	return models.NewButtonMenu("", "Please choose 'Place Order' or 'Back to Menu'.", e.followupButtons()...)
}

func (e *Engine) handleSupportRequest(sess *models.Session, event models.InboundEvent) models.Response {
	issue := event.TrimmedText()
	if issue == "" {
		return models.Text{Body: "Please describe the issue you are facing."}
	}

	sess.Context.SupportIssue = issue
	sess.State = models.StateSupportProcessing
	log.Printf("support request: user=%s session=%s issue=%q", sess.UserID, sess.SessionID, issue)
	return models.Text{Body: "Thank you. Our support team has received your request and will review the issue. We'll get back to you soon."}
}

func (e *Engine) handleOrderStart(sess *models.Session, event models.InboundEvent) models.Response {
	text := event.TrimmedText()
	if text == "" {
		return models.Text{Body: "Please tell me the product and quantity you want to order."}
	}

	product, quantity, ok := parseProductQuantity(text)
	if !ok {
		return models.Text{Body: "Sorry, I couldn't understand that. Please provide the product name and quantity (e.g., 'Model B 3')."}
	}

	sess.Context.OrderProduct = product
	sess.Context.OrderQuantity = quantity
	sess.State = models.StateOrderAddress
	return models.Text{Body: fmt.Sprintf("Okay, %d of %s. Please provide your delivery address.", quantity, product)}
}

func (e *Engine) handleOrderQuantity(sess *models.Session, event models.InboundEvent) models.Response {
	quantity, err := strconv.Atoi(event.TrimmedText())
	if err != nil || quantity <= 0 {
		return models.Text{Body: "Please enter a valid number for the quantity."}
	}

	sess.Context.OrderQuantity = quantity
	sess.State = models.StateOrderAddress
	return models.Text{Body: fmt.Sprintf("Okay, %d of %s. Please provide your delivery address.", quantity, e.interestTitle(sess))}
}

// handleOrderAddress completes the order. This is the one-way edge back to
// the menu: completion is logged once here and the order context is cleared,
// so a replayed address text lands in the menu state and cannot place the
// order twice.
func (e *Engine) handleOrderAddress(sess *models.Session, event models.InboundEvent) models.Response {
	address := event.TrimmedText()
	if address == "" {
		return models.Text{Body: "Please provide the delivery address."}
	}

	product := sess.Context.ProductInterestTitle
	if product == "" {
		product = sess.Context.OrderProduct
	}
	if product == "" {
		product = "Unknown Product"
	}
	quantity := sess.Context.OrderQuantity

	sess.Context.DeliveryAddress = address
	log.Printf("order placed: user=%s session=%s product=%q quantity=%d address=%q",
		sess.UserID, sess.SessionID, product, quantity, address)

	sess.Context.ClearOrder()
	sess.State = models.StateMenu

	body := fmt.Sprintf("Thank you! Your order for %d x %s has been placed.\n\nIs there anything else?", quantity, product)
	return models.NewButtonMenu("Order Confirmed!", body, e.menuButtons()...)
}

func (e *Engine) menuButtons() []models.Button {
	return []models.Button{
		{ID: replyMenuProductInfo, Title: "Product Information"},
		{ID: replyMenuSupport, Title: "Customer Support"},
		{ID: replyMenuOrder, Title: "Place an Order"},
	}
}

func (e *Engine) followupButtons() []models.Button {
	return []models.Button{
		{ID: replyOrderConfirm, Title: "Place Order"},
		{ID: replyOrderDecline, Title: "Back to Menu"},
	}
}

func (e *Engine) productListMenu() models.Response {
	rows := make([]models.ListRow, 0, len(e.catalog))
	for _, p := range e.catalog {
		rows = append(rows, models.ListRow{ID: p.ID, Title: p.Title, Description: p.ListDescription()})
	}
	return models.NewListMenu(
		"Product Catalog",
		"Select a product to learn more.",
		"View Products",
		models.ListSection{Title: "Our Products", Rows: rows},
	)
}

func (e *Engine) interestTitle(sess *models.Session) string {
	if sess.Context.ProductInterestTitle != "" {
		return sess.Context.ProductInterestTitle
	}
	return "the selected product"
}

// parseProductQuantity splits "<product> <quantity>" on whitespace, taking
// the quantity from the final token. If the final token is not a positive
// integer the whole input is treated as a product name with the quantity
// missing and the parse is rejected; a quantity is never guessed.
func parseProductQuantity(text string) (product string, quantity int, ok bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return "", 0, false
	}

	last := fields[len(fields)-1]
	quantity, err := strconv.Atoi(last)
	if err != nil || quantity <= 0 {
		return "", 0, false
	}

	return strings.Join(fields[:len(fields)-1], " "), quantity, true
}
