package domain

// Actor is the authenticated identity performing an operation. It is provided
// by the identity boundary; the core never provisions sessions itself.
type Actor struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}
