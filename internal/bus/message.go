package bus

import (
	"encoding/json"

	"auth-ms/internal/identity/domain"
)

// Request patterns served by the listener.
const (
	PatternRegister = "auth.register.user"
	PatternLogin    = "auth.login.user"
	PatternVerify   = "auth.verify.user"
)

// ReplyToHeader names the topic a reply is written to.
const ReplyToHeader = "reply-to"

// Request is the value of a request message.
type Request struct {
	ID      string          `json:"id"`
	Pattern string          `json:"pattern"`
	Data    json.RawMessage `json:"data"`
}

// Reply is the value of a reply message. Exactly one of Response and Err is set.
type Reply struct {
	ID         string             `json:"id"`
	Response   *domain.AuthResult `json:"response,omitempty"`
	Err        *ReplyError        `json:"err,omitempty"`
	IsDisposed bool               `json:"isDisposed,omitempty"`
}

// ReplyError is the error shape carried in a failed Reply.
type ReplyError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type registerPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyPayload struct {
	Token string `json:"token"`
}

// UnmarshalJSON accepts {"token": "..."} or a bare JSON string.
func (p *verifyPayload) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		p.Token = s
		return nil
	}
	type plain verifyPayload
	return json.Unmarshal(b, (*plain)(p))
}
