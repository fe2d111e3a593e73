package domain

import "time"

// Page is a single record from the upstream page source. Properties is a
// typed key-value map; Content, when present, is body text the exporter
// already flattened. Meta, when present, is a pre-computed scalar metadata
// map that takes precedence over property scanning during chunking.
type Page struct {
	ID             string              `json:"id"`
	Properties     map[string]Property `json:"properties,omitempty"`
	Content        string              `json:"content,omitempty"`
	Meta           map[string]string   `json:"meta,omitempty"`
	CreatedTime    time.Time           `json:"created_time,omitzero"`
	LastEditedTime time.Time           `json:"last_edited_time,omitzero"`
	URL            string              `json:"url,omitempty"`
}

// Property is one typed page property. Exactly one value field is set,
// matching Type.
type Property struct {
	Type        string         `json:"type"`
	Title       []RichText     `json:"title,omitempty"`
	RichText    []RichText     `json:"rich_text,omitempty"`
	Select      *SelectOption  `json:"select,omitempty"`
	MultiSelect []SelectOption `json:"multi_select,omitempty"`
	Date        *DateValue     `json:"date,omitempty"`
	Number      *float64       `json:"number,omitempty"`
	Checkbox    *bool          `json:"checkbox,omitempty"`
	URL         string         `json:"url,omitempty"`
	Email       string         `json:"email,omitempty"`
	PhoneNumber string         `json:"phone_number,omitempty"`
}

// RichText is a fragment of formatted text; only the plain rendering matters here.
type RichText struct {
	PlainText string `json:"plain_text"`
}

// SelectOption is a select or multi-select label.
type SelectOption struct {
	Name string `json:"name"`
}

// DateValue is a date property value with an optional end of range.
type DateValue struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

// Title returns the plain text of the page's title property, or "" if the
// page has none.
func (p Page) Title() string {
	for _, prop := range p.Properties {
		if prop.Type == "title" {
			return JoinRichText(prop.Title)
		}
	}
	return ""
}

// JoinRichText concatenates the plain text of all fragments.
func JoinRichText(parts []RichText) string {
	out := ""
	for _, rt := range parts {
		out += rt.PlainText
	}
	return out
}
