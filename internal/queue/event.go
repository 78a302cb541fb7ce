// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "time"

    "github.com/iliyamo/streaming-catalog/internal/model"
)

// PasswordResetQueue is the durable queue carrying reset notices to the mail
// consumer.
const PasswordResetQueue = "password.reset.requested"

// PasswordResetRequestedEvent is published when a reset ticket was stored.
// It contains everything the consumer needs to send the email without
// querying the primary database.
type PasswordResetRequestedEvent struct {
    Email       string    `json:"email"`
    Name        string    `json:"name"`
    ResetURL    string    `json:"reset_url"`
    ExpiresAt   time.Time `json:"expires_at"`
    RequestedAt time.Time `json:"requested_at"`
}

// Notice converts the event back into the notice handed to mailers.
func (e PasswordResetRequestedEvent) Notice() model.ResetNotice {
    return model.ResetNotice{Email: e.Email, Name: e.Name, ResetURL: e.ResetURL, ExpiresAt: e.ExpiresAt}
}
