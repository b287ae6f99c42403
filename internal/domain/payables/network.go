package payables

import (
	"time"

	"github.com/google/uuid"
)

// NetworkStatus is the status of a document exchanged over the supplier network
type NetworkStatus string

const (
	NetworkStatusReceived NetworkStatus = "RECEIVED"
	NetworkStatusAccepted NetworkStatus = "ACCEPTED"
	NetworkStatusDisputed NetworkStatus = "DISPUTED"
	NetworkStatusRejected NetworkStatus = "REJECTED"
	NetworkStatusPaid     NetworkStatus = "PAID"
)

var networkTransitions = map[NetworkStatus][]NetworkStatus{
	NetworkStatusReceived: {NetworkStatusAccepted, NetworkStatusDisputed, NetworkStatusRejected},
	NetworkStatusAccepted: {NetworkStatusDisputed, NetworkStatusPaid},
	NetworkStatusDisputed: {NetworkStatusAccepted, NetworkStatusRejected},
	NetworkStatusRejected: {},
	NetworkStatusPaid:     {},
}

// CanTransitionTo reports whether moving to next is allowed
func (s NetworkStatus) CanTransitionTo(next NetworkStatus) bool {
	for _, allowed := range networkTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NetworkDocument mirrors a bill received from a vendor over the supplier network
type NetworkDocument struct {
	ID         uuid.UUID     `json:"id"`
	TenantID   uuid.UUID     `json:"tenant_id"`
	DocumentID uuid.UUID     `json:"document_id"`
	Status     NetworkStatus `json:"status"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// TryTransition moves to next when allowed and reports whether it did
func (n *NetworkDocument) TryTransition(next NetworkStatus) bool {
	if n.Status == next || !n.Status.CanTransitionTo(next) {
		return false
	}
	n.Status = next
	n.UpdatedAt = time.Now()
	return true
}
