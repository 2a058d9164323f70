package providers

import (
	"context"

	"mentichat/internal/models"
)

// Client abstracts one upstream text-generation vendor's wire contract.
type Client interface {
	// Kind returns the provider this client serves.
	Kind() models.ProviderKind

	// Send performs exactly one outbound request for text. Any failure is
	// returned as a *ClientError; the raw payload is returned unmodified.
	Send(ctx context.Context, text string, sel models.ProviderSelection) (RawPayload, error)
}
