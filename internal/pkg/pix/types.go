package pix

// Provider is the identifier stored on audit rows for this payment rail.
const Provider = "pix"

// EventKind classifies a provider webhook delivery.
type EventKind string

const (
	EventPaid     EventKind = "billing.paid"
	EventExpired  EventKind = "billing.expired"
	EventRefunded EventKind = "billing.refunded"
	EventUnknown  EventKind = "unknown"
)

// Metadata is the business context echoed back by the provider from charge
// creation. Every field is untrusted and may be absent.
type Metadata struct {
	PlanID string `json:"planId"`
	Email  string `json:"email"`
	Photos string `json:"photos"`
	Name   string `json:"name"`
}

// PaymentEvent is the normalized shape the reconciler consumes, derived from
// a raw webhook payload.
type PaymentEvent struct {
	// Name is the event string exactly as the provider sent it, echoed back
	// in the acknowledgement body.
	Name              string
	Kind              EventKind
	ProviderPaymentID string
	AmountCents       int
	FeeCents          int
	Method            string
	Status            string
	Metadata          Metadata
	DevMode           bool
}

// AmountBRL converts the minor-unit amount to currency major units.
func (e *PaymentEvent) AmountBRL() float64 {
	return float64(e.AmountCents) / 100
}
