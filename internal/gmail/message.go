package gmail

import (
	"encoding/base64"
	"net/mail"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	gmail "google.golang.org/api/gmail/v1"
)

// dateLayouts are fallbacks for Date headers that net/mail rejects.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"2 Jan 2006 15:04:05 -0700",
}

// parseMessage reduces a full Gmail API message to a Message.
func parseMessage(msg *gmail.Message) Message {
	m := Message{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Link:     MessageLink(msg.Id),
	}

	m.Subject = HeaderValue(msg, "Subject")
	m.Sender = HeaderValue(msg, "From")

	if ts, err := parseDate(HeaderValue(msg, "Date")); err == nil {
		m.DateSent = ts
	} else if msg.InternalDate > 0 {
		m.DateSent = time.UnixMilli(msg.InternalDate)
	} else {
		m.DateSent = time.Now()
	}

	if msg.Payload != nil {
		m.Content = extractText(msg.Payload)
	}
	return m
}

// HeaderValue extracts a header value from a Gmail message. Header
// names are matched case-insensitively.
func HeaderValue(m *gmail.Message, header string) string {
	if m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, header) {
			return h.Value
		}
	}
	return ""
}

// parseDate parses an RFC 5322 Date header, trying common deviations
// that net/mail rejects.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	ts, err := mail.ParseDate(s)
	if err == nil {
		return ts, nil
	}

	// Some senders append a "(TZ)" comment that trips the parser.
	if open := strings.LastIndex(s, " ("); open != -1 {
		if end := strings.LastIndex(s, ")"); end > open {
			trimmed := strings.TrimSpace(s[:open] + s[end+1:])
			if ts, err2 := mail.ParseDate(trimmed); err2 == nil {
				return ts, nil
			}
			s = trimmed
		}
	}

	for _, layout := range dateLayouts {
		if ts, err2 := time.Parse(layout, s); err2 == nil {
			return ts, nil
		}
	}
	return time.Time{}, err
}

// extractText pulls plain text content out of a message payload.
// Simple messages carry data directly in the body; multipart messages
// are walked depth-first preferring text/plain, with a text/html
// fallback stripped to text.
func extractText(p *gmail.MessagePart) string {
	if p == nil {
		return ""
	}

	if p.Body != nil && p.Body.Data != "" && p.MimeType != "text/html" {
		if text := decodeBody(p.Body.Data); text != "" {
			return text
		}
	}

	if text := findPart(p.Parts, "text/plain"); text != "" {
		return text
	}
	if html := findPart(p.Parts, "text/html"); html != "" {
		return htmlToText(html)
	}
	if p.MimeType == "text/html" && p.Body != nil && p.Body.Data != "" {
		return htmlToText(decodeBody(p.Body.Data))
	}
	return ""
}

// findPart returns the decoded body of the first part (depth-first)
// with the given MIME type.
func findPart(parts []*gmail.MessagePart, mimeType string) string {
	for _, part := range parts {
		if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
			if text := decodeBody(part.Body.Data); text != "" {
				return text
			}
		}
		if nested := findPart(part.Parts, mimeType); nested != "" {
			return nested
		}
	}
	return ""
}

// decodeBody decodes Gmail's base64url body data, tolerating both
// padded and unpadded input.
func decodeBody(data string) string {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	return ""
}

// htmlToText strips HTML markup, returning the visible text.
func htmlToText(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script,style").Remove()
	return strings.TrimSpace(doc.Text())
}
