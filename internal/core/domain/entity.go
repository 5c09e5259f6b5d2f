package domain

// EntityKind identifies which kind of entity a search targets.
type EntityKind int

// Known entity kinds.
const (
	KindUnknown EntityKind = iota
	KindMail
	KindCalendarEvent
	KindContact
)

// String returns the string representation.
func (k EntityKind) String() string {
	switch k {
	case KindMail:
		return "mail"
	case KindCalendarEvent:
		return "calendar"
	case KindContact:
		return "contact"
	default:
		return "unknown"
	}
}

// ParseEntityKind maps a user-facing name to an EntityKind.
func ParseEntityKind(s string) (EntityKind, error) {
	switch s {
	case "mail", "mails", "email":
		return KindMail, nil
	case "calendar", "event", "events":
		return KindCalendarEvent, nil
	case "contact", "contacts":
		return KindContact, nil
	default:
		return KindUnknown, ErrUnsupportedType
	}
}

// IdTuple addresses an entity by its list (folder, calendar) and element id.
//
//nolint:revive // IdTuple mirrors the storage key naming.
type IdTuple struct {
	ListID    string `json:"list_id"`
	ElementID string `json:"element_id"`
}

// Key joins both parts with a slash.
func (id IdTuple) Key() string {
	return id.ListID + "/" + id.ElementID
}

// String implements fmt.Stringer.
func (id IdTuple) String() string {
	return id.Key()
}
