// Package resource implements the resource registry (spec §4.6):
// registration, listing, reads (static or dynamic), and the
// subscribe/unsubscribe/notify lifecycle. Grounded in the teacher's
// ResourceProvider.ListResources/ReadResource pattern, reshaped around
// direct registration per spec §4.5, with subscriptions added as a new
// capability the teacher's provider interface didn't expose.
package resource

// file: internal/registry/resource/registry.go

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcpcore/mcpcore/internal/arena"
	"github.com/mcpcore/mcpcore/internal/logging"
	"github.com/mcpcore/mcpcore/internal/mcp"
	"github.com/mcpcore/mcpcore/internal/mcperr"
)

// Registry holds the resources a server exposes and their subscribers.
// Safe for concurrent use.
//
// Subscriptions are stored as (uri, callback_id) pairs rather than bare
// closures appended to a list: callbacks live in their own ownership
// table keyed by id, and subscribers just name which ids are
// subscribed to which uri (spec §9 Design Notes — "implement with
// indirection ... registry fan-out looks up callbacks by id"). This is
// what makes Subscribe idempotent per (uri, callback_id) and lets
// Unsubscribe remove exactly one callback instead of every subscriber
// on a uri.
type Registry struct {
	mu                   sync.RWMutex
	byURI                map[string]mcp.Resource
	order                []string
	callbacks            map[string]mcp.SubscriptionCallback // callback_id -> callback
	subscriberOrder      map[string][]string                 // uri -> ordered callback_ids
	subscriptionsAllowed bool
	arenaPool            *arena.Pool
	logger               logging.Logger
}

// New builds an empty Registry. subscriptionsAllowed mirrors the
// server's advertised ResourcesCapability.Subscribe (spec §4.9) — when
// false, Subscribe always fails with mcperr.ErrSubsDisabled.
func New(subscriptionsAllowed bool, arenaPool *arena.Pool, logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &Registry{
		byURI:                make(map[string]mcp.Resource),
		callbacks:            make(map[string]mcp.SubscriptionCallback),
		subscriberOrder:      make(map[string][]string),
		subscriptionsAllowed: subscriptionsAllowed,
		arenaPool:            arenaPool,
		logger:               logger,
	}
}

// Register adds res to the registry, keyed by URI.
func (r *Registry) Register(res mcp.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byURI[res.URI]; exists {
		return mcperr.Wrap(mcperr.ErrDuplicateName, mcperr.CategoryResource, mcperr.CodeInvalidParams,
			fmt.Sprintf("resource %q already registered", res.URI))
	}
	r.byURI[res.URI] = res
	r.order = append(r.order, res.URI)
	return nil
}

// List returns descriptors for every registered resource, in
// registration order, as a freshly allocated slice the caller owns
// (spec §10's "always-owned" resolution of the resources/list Open
// Question).
func (r *Registry) List() []mcp.ResourceDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]mcp.ResourceDescriptor, 0, len(r.order))
	for _, uri := range r.order {
		res := r.byURI[uri]
		out = append(out, mcp.ResourceDescriptor{
			URI:         res.URI,
			Name:        res.Name,
			Description: res.Description,
			MimeType:    res.MimeType,
		})
	}
	return out
}

// Count reports the number of registered resources.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Read returns uri's content, invoking its handler if dynamic or
// returning its static content otherwise.
func (r *Registry) Read(ctx context.Context, a *arena.Arena, uri string) (*mcp.ResourceContent, error) {
	r.mu.RLock()
	res, ok := r.byURI[uri]
	r.mu.RUnlock()
	if !ok {
		return nil, mcperr.Wrap(mcperr.ErrResourceNotFound, mcperr.CategoryResource, mcperr.CodeNotInitialized,
			fmt.Sprintf("resource %q not found", uri))
	}
	if res.Handler != nil {
		return res.Handler(ctx, a, uri)
	}
	return res.Static, nil
}

// callbackKey builds the compound (uri, callback_id) key the
// callbacks ownership table is indexed by.
func callbackKey(uri, callbackID string) string {
	return uri + "\x00" + callbackID
}

// Subscribe registers cb under callbackID to be invoked on every
// NotifyUpdate(uri). Re-subscribing the same callbackID to the same
// uri is a no-op — it does not add a second entry or change
// SubscriptionCount (spec §3/§4.6/§8: "an individual callback may
// appear at most once per resource"). Fails with mcperr.ErrSubsDisabled
// if the registry was built with subscriptionsAllowed=false, and with
// mcperr.ErrResourceNotFound for an unregistered uri.
func (r *Registry) Subscribe(uri, callbackID string, cb mcp.SubscriptionCallback) error {
	if !r.subscriptionsAllowed {
		return mcperr.Wrap(mcperr.ErrSubsDisabled, mcperr.CategoryResource, mcperr.CodeInvalidRequest,
			"server does not support resource subscriptions")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byURI[uri]; !ok {
		return mcperr.Wrap(mcperr.ErrResourceNotFound, mcperr.CategoryResource, mcperr.CodeNotInitialized,
			fmt.Sprintf("resource %q not found", uri))
	}

	key := callbackKey(uri, callbackID)
	if _, already := r.callbacks[key]; already {
		return nil
	}
	r.callbacks[key] = cb
	r.subscriberOrder[uri] = append(r.subscriberOrder[uri], callbackID)
	return nil
}

// Unsubscribe removes callbackID's subscription to uri. An unknown
// callbackID or uri is a no-op (spec §4.6).
func (r *Registry) Unsubscribe(uri, callbackID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.callbacks, callbackKey(uri, callbackID))
	ids := r.subscriberOrder[uri]
	for i, id := range ids {
		if id == callbackID {
			r.subscriberOrder[uri] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

// SubscriptionCount reports how many distinct callbacks uri currently
// has subscribed.
func (r *Registry) SubscriptionCount(uri string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscriberOrder[uri])
}

// NotifyUpdate fans a resource-changed event out to uri's subscribers,
// in subscription order (spec §4.6). Each callback runs under its own
// arena, acquired from the registry's pool and released when the
// callback returns, so one slow or misbehaving subscriber cannot hold
// another's scratch memory. A callback that panics is logged, not
// propagated — subscriber failures must not break notification
// delivery to the rest.
func (r *Registry) NotifyUpdate(ctx context.Context, uri string) {
	r.mu.RLock()
	ids := append([]string(nil), r.subscriberOrder[uri]...)
	cbs := make([]mcp.SubscriptionCallback, 0, len(ids))
	for _, id := range ids {
		cbs = append(cbs, r.callbacks[callbackKey(uri, id)])
	}
	r.mu.RUnlock()

	for _, cb := range cbs {
		r.runSubscriber(ctx, uri, cb)
	}
}

func (r *Registry) runSubscriber(ctx context.Context, uri string, cb mcp.SubscriptionCallback) {
	a := r.arenaPool.Acquire()
	defer r.arenaPool.Release(a)
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("resource subscription callback panicked", "uri", uri, "recovered", rec)
		}
	}()
	cb(ctx, a, uri)
}
