package services

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/helioshop/concierge-backend/internal/config"
	"github.com/helioshop/concierge-backend/internal/models"
)

// TwilioService sends responses over WhatsApp via Twilio. Interactive
// messages ride a pre-approved content template carrying the buttons or
// list as a persistent action; when no template SID is configured the
// message degrades to a plain-text rendering so the dialogue keeps moving.
type TwilioService struct {
	client            *twilio.RestClient
	from              string
	buttonTemplateSID string
	listTemplateSID   string
}

// NewTwilioService creates the Twilio transport from config.
func NewTwilioService(cfg config.TwilioConfig) (*TwilioService, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.WhatsAppFrom == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioService{
		client:            client,
		from:              cfg.WhatsAppFrom,
		buttonTemplateSID: cfg.ButtonTemplateSID,
		listTemplateSID:   cfg.ListTemplateSID,
	}, nil
}

// Send serializes the response into Twilio's wire format and performs the
// network call.
func (t *TwilioService) Send(to string, resp models.Response) error {
	switch r := resp.(type) {
	case models.Text:
		return t.sendText(to, r.Body)
	case models.ButtonMenu:
		return t.sendButtonMenu(to, r)
	case models.ListMenu:
		return t.sendListMenu(to, r)
	case models.ContactCard:
		return t.sendContactCard(to, r)
	default:
		return fmt.Errorf("unknown response kind %q", resp.Kind())
	}
}

func (t *TwilioService) sendText(to string, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", to))
	params.SetBody(body)

	msg, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("failed to send WhatsApp text to %s: %v", to, err)
		return err
	}
	log.Printf("WhatsApp text sent to %s, SID: %s", to, *msg.Sid)
	return nil
}

func (t *TwilioService) sendButtonMenu(to string, menu models.ButtonMenu) error {
	if t.buttonTemplateSID == "" {
		return t.sendText(to, renderButtonMenuText(menu))
	}

	buttons := make([]map[string]interface{}, 0, len(menu.Buttons))
	for _, b := range menu.Buttons {
		buttons = append(buttons, map[string]interface{}{
			"type": "reply",
			"reply": map[string]string{
				"id":    b.ID,
				"title": b.Title,
			},
		})
	}

	variables := map[string]string{
		"1": menu.Header,
		"2": menu.Body,
	}

	return t.sendInteractive(to, t.buttonTemplateSID, variables, map[string]interface{}{
		"buttons": buttons,
	})
}

func (t *TwilioService) sendListMenu(to string, menu models.ListMenu) error {
	if t.listTemplateSID == "" {
		return t.sendText(to, renderListMenuText(menu))
	}

	sections := make([]map[string]interface{}, 0, len(menu.Sections))
	for _, sec := range menu.Sections {
		rows := make([]map[string]string, 0, len(sec.Rows))
		for _, row := range sec.Rows {
			rows = append(rows, map[string]string{
				"id":          row.ID,
				"title":       row.Title,
				"description": row.Description,
			})
		}
		sections = append(sections, map[string]interface{}{
			"title": sec.Title,
			"rows":  rows,
		})
	}

	variables := map[string]string{
		"1": menu.Header,
		"2": menu.Body,
	}

	return t.sendInteractive(to, t.listTemplateSID, variables, map[string]interface{}{
		"button":   menu.ButtonLabel,
		"sections": sections,
	})
}

func (t *TwilioService) sendContactCard(to string, card models.ContactCard) error {
	// Twilio has no contact message on the WhatsApp channel outside
	// content templates, so the card goes out as text the user can tap.
	name := card.FormattedName
	if card.Prefix != "" {
		name = card.Prefix + " " + name
	}
	return t.sendText(to, fmt.Sprintf("You can reach %s directly on WhatsApp: %s", name, card.PhoneID))
}

func (t *TwilioService) sendInteractive(to, templateSID string, variables map[string]string, action map[string]interface{}) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", to))
	params.SetContentSid(templateSID)

	if len(variables) > 0 {
		variablesJSON, err := json.Marshal(variables)
		if err != nil {
			return fmt.Errorf("marshal content variables: %w", err)
		}
		params.SetContentVariables(string(variablesJSON))
	}

	actionJSON, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("marshal persistent action: %w", err)
	}
	params.SetPersistentAction([]string{string(actionJSON)})

	msg, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("send interactive message: %w", err)
	}
	if msg.ErrorCode != nil && *msg.ErrorCode != 0 {
		return fmt.Errorf("twilio error %d: %s", *msg.ErrorCode, *msg.ErrorMessage)
	}

	log.Printf("WhatsApp interactive message sent to %s, SID: %s", to, *msg.Sid)
	return nil
}

// renderButtonMenuText is the template-less fallback: the menu as numbered
// options the user can still read, even though taps are lost.
func renderButtonMenuText(menu models.ButtonMenu) string {
	var sb strings.Builder
	if menu.Header != "" {
		sb.WriteString("*" + menu.Header + "*\n\n")
	}
	sb.WriteString(menu.Body)
	for i, b := range menu.Buttons {
		sb.WriteString(fmt.Sprintf("\n%d. %s", i+1, b.Title))
	}
	return sb.String()
}

func renderListMenuText(menu models.ListMenu) string {
	var sb strings.Builder
	sb.WriteString("*" + menu.Header + "*\n\n")
	sb.WriteString(menu.Body)
	for _, sec := range menu.Sections {
		if sec.Title != "" {
			sb.WriteString("\n\n*" + sec.Title + "*")
		}
		for _, row := range sec.Rows {
			sb.WriteString(fmt.Sprintf("\n- %s (%s)", row.Title, row.Description))
		}
	}
	return sb.String()
}
