package telemetry

import "time"

// Event types emitted by the credential service and the transports.
const (
	EventUserRegistered   = "user_registered"
	EventRegisterConflict = "register_conflict"
	EventLoginSuccess     = "login_success"
	EventLoginFailure     = "login_failure"
	EventTokenRefreshed   = "token_refreshed"
	EventTokenRejected    = "token_rejected"
	EventInternalError    = "internal_error"
	EventGRPCRequest      = "grpc_request"
	EventBusRequest       = "bus_request"
)

// Event is a single auth event. It never carries passwords, password hashes, or raw tokens;
// tokens are referenced by fingerprint in Metadata.
type Event struct {
	Type      string            `json:"eventType"`
	UserID    string            `json:"userId,omitempty"`
	Email     string            `json:"email,omitempty"`
	Source    string            `json:"source,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}
