package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mentichat/internal/models"
	"mentichat/internal/normalizer"
	"mentichat/internal/providers"
	"mentichat/pkg/logger"
)

// NotSelectedMessage is returned when no usable provider was chosen.
const NotSelectedMessage = "⚠️ Error: Model provider or model not selected!"

// ChatRouter directs a single user turn to the client registered for the
// selected provider and turns the outcome into a bot Turn.
type ChatRouter interface {
	Route(ctx context.Context, text string, sel models.ProviderSelection) models.Turn
}

type defaultRouter struct {
	clients    map[models.ProviderKind]providers.Client
	normalizer *normalizer.Normalizer
}

// New builds a router over the given clients. A nil normalizer is replaced
// by one without configured extractors.
func New(n *normalizer.Normalizer, clients ...providers.Client) ChatRouter {
	if n == nil {
		n = normalizer.New(nil)
	}
	m := make(map[models.ProviderKind]providers.Client, len(clients))
	for _, c := range clients {
		m[c.Kind()] = c
	}
	return &defaultRouter{clients: m, normalizer: n}
}

func (r *defaultRouter) Route(ctx context.Context, text string, sel models.ProviderSelection) models.Turn {
	client, ok := r.clients[sel.Provider]
	if !ok {
		logger.Warn("Router has no client for selection", "provider", string(sel.Provider))
		return botTurn(NotSelectedMessage)
	}
	if !sel.Valid() {
		logger.Warn("Router rejected incomplete selection", "provider", string(sel.Provider), "model", sel.Model)
		return botTurn(Warning(providers.NewError(providers.KindMissingCredential, sel.Provider, "", nil)))
	}

	start := time.Now()
	payload, err := r.send(ctx, client, text, sel)
	if err != nil {
		ce := providers.AsClientError(err, sel.Provider)
		logger.Warn("Router provider call failed",
			"provider", string(sel.Provider), "model", sel.Model,
			"kind", ce.Kind.String(), "duration", time.Since(start))
		return botTurn(Warning(ce))
	}

	res := r.normalizer.Normalize(payload)
	logger.Info("Router provider call completed",
		"provider", string(sel.Provider), "model", sel.Model,
		"duration", time.Since(start), "normalized", !res.IsError)
	return botTurn(res.Text)
}

// send shields the router from panicking clients.
func (r *defaultRouter) send(ctx context.Context, c providers.Client, text string, sel models.ProviderSelection) (payload providers.RawPayload, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = providers.NewError(providers.KindProviderFailure, sel.Provider, fmt.Sprintf("panic: %v", rec), nil)
		}
	}()
	return c.Send(ctx, text, sel)
}

// Warning renders a client error as the user-visible bot text.
func Warning(ce *providers.ClientError) string {
	switch {
	case errors.Is(ce, providers.ErrMissingCredential):
		if ce.Provider == models.ProviderManaged {
			return "⚠️ Error: Google API key is missing!"
		}
		return "⚠️ Error: Hugging Face API key or model is missing!"
	case errors.Is(ce, providers.ErrNetwork):
		return fmt.Sprintf("Error connecting to %s API: %s", ce.Provider.DisplayName(), ce.Detail)
	case errors.Is(ce, providers.ErrUnexpectedShape):
		return fmt.Sprintf("Unexpected response format from %s API: %s", ce.Provider.DisplayName(), ce.Detail)
	}
	return fmt.Sprintf("An error occurred with API : %s", ce.Detail)
}

func botTurn(text string) models.Turn {
	return models.Turn{Role: models.RoleBot, Text: text}
}
