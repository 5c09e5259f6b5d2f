package domain

import "time"

// Mail is an indexed email message. ID.ListID is the folder.
type Mail struct {
	ID         IdTuple   `json:"id"`
	Subject    string    `json:"subject"`
	Sender     string    `json:"sender"`
	Recipients []string  `json:"recipients"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

// Mail search fields accepted in SearchRestriction.Field.
const (
	MailFieldSubject    = "subject"
	MailFieldBody       = "body"
	MailFieldSender     = "sender"
	MailFieldRecipients = "recipients"
)

// MailFields lists the searchable mail fields in index order.
var MailFields = []string{MailFieldSubject, MailFieldBody, MailFieldSender, MailFieldRecipients}
