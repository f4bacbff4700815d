// Package notify fans enrichment events out to the live channels of an account.
package notify

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/octobees/anycrm/internal/metrics"
)

// Channel is one live connection that can receive pushed events.
// Implementations must be comparable; Unregister matches by identity.
type Channel interface {
	Send(ctx context.Context, v any) error
}

// Registry maps account ids to their open channels in registration order.
type Registry struct {
	mu       sync.RWMutex
	channels map[string][]Channel
	logger   *slog.Logger
}

// NewRegistry creates an empty registry. Pass nil logger for default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		channels: make(map[string][]Channel),
		logger:   logger.With("component", "notify"),
	}
}

func key(accountID int64) string {
	return strconv.FormatInt(accountID, 10)
}

// Register appends ch to the account's channel list.
func (r *Registry) Register(ch Channel, accountID int64) {
	k := key(accountID)

	r.mu.Lock()
	r.channels[k] = append(r.channels[k], ch)
	n := len(r.channels[k])
	r.mu.Unlock()

	r.logger.Debug("channel registered", "account_id", k, "channels", n)
}

// Unregister removes ch from the account's list and drops the entry once it is empty.
// Removing a channel that is not registered is a no-op.
func (r *Registry) Unregister(ch Channel, accountID int64) {
	k := key(accountID)

	r.mu.Lock()
	defer r.mu.Unlock()

	list, ok := r.channels[k]
	if !ok {
		return
	}
	for i, registered := range list {
		if registered != ch {
			continue
		}
		remaining := make([]Channel, 0, len(list)-1)
		remaining = append(remaining, list[:i]...)
		remaining = append(remaining, list[i+1:]...)
		if len(remaining) == 0 {
			delete(r.channels, k)
		} else {
			r.channels[k] = remaining
		}
		r.logger.Debug("channel unregistered", "account_id", k, "channels", len(remaining))
		return
	}
}

// Broadcast delivers msg to every channel registered for the account at the time
// of the call, in registration order. Delivery errors are logged and skipped;
// the failing channel stays registered until it unregisters itself.
func (r *Registry) Broadcast(ctx context.Context, accountID int64, msg any) {
	k := key(accountID)

	r.mu.RLock()
	list := r.channels[k]
	targets := make([]Channel, len(list))
	copy(targets, list)
	r.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	delivered := 0
	for _, ch := range targets {
		if err := ch.Send(ctx, msg); err != nil {
			metrics.RecordDelivery(false)
			r.logger.Warn("delivery failed", "account_id", k, "error", err)
			continue
		}
		metrics.RecordDelivery(true)
		delivered++
	}
	r.logger.Debug("broadcast", "account_id", k, "delivered", delivered, "targets", len(targets))
}

// Len returns the number of accounts with at least one registered channel.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// Count returns the number of channels registered for an account.
func (r *Registry) Count(accountID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[key(accountID)])
}
