package gmail

import "time"

// Message is a fetched Gmail message reduced to the fields the
// pipeline needs.
type Message struct {
	ID       string
	ThreadID string
	Subject  string
	Sender   string
	Content  string
	DateSent time.Time
	Link     string
}

// MessageLink returns the Gmail deep link for a message ID.
func MessageLink(id string) string {
	return "https://mail.google.com/mail/u/0/#inbox/" + id
}
