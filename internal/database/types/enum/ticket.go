package enum

// TicketStatus is the lifecycle state of a ticket. Closed is terminal.
type TicketStatus string

const (
	// TicketStatusOpen means the ticket channel is live.
	TicketStatusOpen TicketStatus = "open"
	// TicketStatusClosed means the ticket has been archived.
	TicketStatusClosed TicketStatus = "closed"
)

// String returns the stored status value.
func (s TicketStatus) String() string {
	return string(s)
}
