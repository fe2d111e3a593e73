package extractor

import (
	"sort"
	"strconv"
	"strings"

	"notionrag/internal/domain"
)

const displayTimeFormat = "2006-01-02 15:04"

// Extract flattens a page into a single labeled text blob for chunking.
// If the exporter already flattened the body, that text is returned as is.
// Missing fields produce no line; extraction never fails.
func Extract(page domain.Page) string {
	if page.Content != "" {
		return page.Content
	}

	var b strings.Builder
	if title := page.Title(); title != "" {
		b.WriteString("Title: " + title + "\n")
	}

	names := make([]string, 0, len(page.Properties))
	for name, prop := range page.Properties {
		if prop.Type == "title" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if value := renderProperty(page.Properties[name]); value != "" {
			b.WriteString(name + ": " + value + "\n")
		}
	}

	if !page.CreatedTime.IsZero() {
		b.WriteString("Created: " + page.CreatedTime.Format(displayTimeFormat) + "\n")
	}
	if !page.LastEditedTime.IsZero() {
		b.WriteString("Last modified: " + page.LastEditedTime.Format(displayTimeFormat) + "\n")
	}
	return b.String()
}

// renderProperty renders one typed property value as plain text.
// Unrecognized types render empty and are skipped by the caller.
func renderProperty(prop domain.Property) string {
	switch prop.Type {
	case "rich_text":
		return domain.JoinRichText(prop.RichText)
	case "select":
		if prop.Select == nil {
			return ""
		}
		return prop.Select.Name
	case "multi_select":
		labels := make([]string, 0, len(prop.MultiSelect))
		for _, opt := range prop.MultiSelect {
			labels = append(labels, opt.Name)
		}
		return strings.Join(labels, ", ")
	case "date":
		if prop.Date == nil || prop.Date.Start == "" {
			return ""
		}
		if prop.Date.End != "" {
			return prop.Date.Start + " ~ " + prop.Date.End
		}
		return prop.Date.Start
	case "number":
		if prop.Number == nil {
			return ""
		}
		return strconv.FormatFloat(*prop.Number, 'f', -1, 64)
	case "checkbox":
		if prop.Checkbox == nil {
			return ""
		}
		if *prop.Checkbox {
			return "Yes"
		}
		return "No"
	case "url":
		return prop.URL
	case "email":
		return prop.Email
	case "phone_number":
		return prop.PhoneNumber
	default:
		return ""
	}
}
