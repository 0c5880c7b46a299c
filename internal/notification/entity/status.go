package entity

import "strings"

// InboxFilter narrows the inbox listing by read state.
type InboxFilter string

const (
	InboxFilterAll    InboxFilter = "all"
	InboxFilterUnread InboxFilter = "unread"
	InboxFilterRead   InboxFilter = "read"
)

func InboxFilterFromString(raw string) InboxFilter {
	switch InboxFilter(strings.ToLower(strings.TrimSpace(raw))) {
	case InboxFilterUnread:
		return InboxFilterUnread
	case InboxFilterRead:
		return InboxFilterRead
	default:
		return InboxFilterAll
	}
}
