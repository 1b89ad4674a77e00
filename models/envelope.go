package models

import "encoding/json"

// LedgerSuccessStatus is the envelope status that marks success. Any other
// value is an application failure even when the HTTP status was 200.
const LedgerSuccessStatus = 200

// LedgerEnvelope is the {status, message?, data?} shape returned by the ledger.
type LedgerEnvelope struct {
	Status  *int            `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e LedgerEnvelope) OK() bool {
	return e.Status != nil && *e.Status == LedgerSuccessStatus
}

// GatewayError is the fixed error body produced by the gateway itself.
type GatewayError struct {
	Error string `json:"error"`
}
