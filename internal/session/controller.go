// Package session orchestrates user submissions against a conversation.
package session

import (
	"context"
	"strings"
	"sync"

	"mentichat/internal/conversation"
	"mentichat/internal/models"
	"mentichat/internal/router"
	"mentichat/pkg/logger"
)

// Controller owns one conversation and feeds submissions through a router.
// Submissions are serialized: one completes before the next starts.
type Controller struct {
	mu     sync.Mutex
	id     string
	router router.ChatRouter
	state  *conversation.State
}

// NewController creates a controller with an empty conversation.
func NewController(id string, r router.ChatRouter) *Controller {
	return &Controller{
		id:     id,
		router: r,
		state:  conversation.New(),
	}
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// Submit appends the user turn, routes it, and appends the bot reply.
// Whitespace-only input is ignored and ok is false.
func (c *Controller) Submit(ctx context.Context, text string, sel models.ProviderSelection) (user, bot models.Turn, ok bool) {
	if strings.TrimSpace(text) == "" {
		return models.Turn{}, models.Turn{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	user = c.state.Append(models.Turn{Role: models.RoleUser, Text: text})
	reply := c.router.Route(ctx, text, sel)
	reply.Role = models.RoleBot
	bot = c.state.Append(reply)

	logger.Debug("Session turn completed", "session", c.id, "user_seq", user.Sequence, "bot_seq", bot.Sequence)
	return user, bot, true
}

// Transcript returns the turns in chronological order.
func (c *Controller) Transcript() []models.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.All()
}

// Len returns the number of turns recorded.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Len()
}

// Reset clears the conversation. Safe to call on an empty session.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.state.Reset()
	c.mu.Unlock()
	logger.Info("Session reset", "session", c.id)
}
