package models

import "log"

// Response describes the next outbound message independent of the provider
// wire format. The transport decides how each kind goes over the wire.
type Response interface {
	Kind() string
}

// Text is a plain text message.
type Text struct {
	Body string `json:"body"`
}

func (Text) Kind() string { return "text" }

// Button is one tappable reply option on a ButtonMenu.
type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ButtonMenu is a message with up to a handful of quick-reply buttons.
type ButtonMenu struct {
	Header  string   `json:"header,omitempty"`
	Body    string   `json:"body"`
	Buttons []Button `json:"buttons"`
}

func (ButtonMenu) Kind() string { return "button" }

// ListRow is one selectable row in a ListMenu section.
type ListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ListSection groups rows under a title.
type ListSection struct {
	Title string    `json:"title"`
	Rows  []ListRow `json:"rows"`
}

// ListMenu is a message opening a scrollable list of options.
type ListMenu struct {
	Header      string        `json:"header"`
	Body        string        `json:"body"`
	ButtonLabel string        `json:"button_label"`
	Sections    []ListSection `json:"sections"`
}

func (ListMenu) Kind() string { return "list" }

// ContactCard shares a contact the user can save or message directly.
type ContactCard struct {
	FormattedName string `json:"formatted_name"`
	PhoneID       string `json:"phone_id"`
	Prefix        string `json:"prefix,omitempty"`
}

func (ContactCard) Kind() string { return "contact" }

// NewButtonMenu builds a button menu, dropping buttons whose id repeats an
// earlier one. A menu left with no buttons degrades to plain text so the
// provider never sees an empty interactive message.
func NewButtonMenu(header, body string, buttons ...Button) Response {
	seen := make(map[string]bool, len(buttons))
	kept := make([]Button, 0, len(buttons))
	for _, b := range buttons {
		if b.ID == "" || seen[b.ID] {
			log.Printf("duplicate or empty button id %q dropped", b.ID)
			continue
		}
		seen[b.ID] = true
		kept = append(kept, b)
	}
	if len(kept) == 0 {
		return Text{Body: body}
	}
	return ButtonMenu{Header: header, Body: body, Buttons: kept}
}

// NewListMenu builds a list menu. Row ids must be unique across the whole
// message, so duplicates after the first occurrence are dropped, then empty
// sections are removed. If nothing valid remains the menu degrades to a
// text response describing the failure.
func NewListMenu(header, body, buttonLabel string, sections ...ListSection) Response {
	seen := make(map[string]bool)
	kept := make([]ListSection, 0, len(sections))
	for _, sec := range sections {
		rows := make([]ListRow, 0, len(sec.Rows))
		for _, row := range sec.Rows {
			if row.ID == "" || seen[row.ID] {
				log.Printf("duplicate or empty list row id %q dropped", row.ID)
				continue
			}
			seen[row.ID] = true
			rows = append(rows, row)
		}
		if len(rows) > 0 {
			kept = append(kept, ListSection{Title: sec.Title, Rows: rows})
		}
	}
	if len(kept) == 0 {
		log.Printf("list menu %q had no valid rows, degrading to text", header)
		return Text{Body: "Sorry, there was an error preparing the list."}
	}
	return ListMenu{Header: header, Body: body, ButtonLabel: buttonLabel, Sections: kept}
}
