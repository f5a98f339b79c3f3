package feedback

// InboxView is a read-only projection of an inbox. Messages is non-nil
// (possibly empty) for the owner and nil for everyone else.
type InboxView struct {
	Inbox    *Inbox
	Messages []Message
}

// IsOwnerView reports whether the view carries the message list.
func (v *InboxView) IsOwnerView() bool {
	return v.Messages != nil
}
