package notifsvc

import (
	"context"
	"errors"
)

var (
	ErrValidation = errors.New("validation error")

	// ErrNoWebhook means neither a type-specific nor a general webhook is
	// configured for the notification type.
	ErrNoWebhook = errors.New("no webhook configured")
)

// Service delivers operational notifications (schema upgrades for now) to
// configured webhook endpoints.
type Service interface {
	Notify(ctx context.Context, in InputNotify) (out OutNotify, err error)
}

type InputNotify struct {
	Type    string      `validate:"required,lowercase"`
	Payload interface{} `validate:"required"`
}

type OutNotify struct {
	NotificationID string
	QueueID        uint64
	URL            string
}

// Envelope is the JSON body posted to the webhook.
type Envelope struct {
	NotificationID string      `json:"notification_id"`
	Type           string      `json:"type"`
	CreatedAt      int64       `json:"created_at"` // unix microsecond UTC
	Payload        interface{} `json:"payload"`
}
