// Package chat implements the relay core: the session registry mapping
// usernames to live outbound channels, the append-only conversation store,
// and the event router that mutates both and drives fan-out.
//
// None of the types here lock internally. All access is serialized by the
// hub's single event loop, which also guarantees that broadcasts observe a
// consistent snapshot of registry and conversations.
package chat

// Sender is the outbound channel handle for one connected client. The
// transport layer owns the handle; the registry only references it. Send is
// fire-and-forget: it must not block, and a false return (closed or
// saturated channel) carries no delivery guarantee either way.
type Sender interface {
	Send(data []byte) bool
}

// Registry is the single source of truth for who is online. At most one
// channel is registered per username at any instant.
type Registry struct {
	sessions map[string]Sender
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Sender)}
}

// Register maps name to ch, overwriting any existing mapping. When a mapping
// for name already existed under a different channel, the superseded channel
// is returned with replaced=true so the caller can force-close it.
func (r *Registry) Register(name string, ch Sender) (prev Sender, replaced bool) {
	prev, ok := r.sessions[name]
	r.sessions[name] = ch
	if ok && prev != ch {
		return prev, true
	}
	return nil, false
}

// Unregister removes the mapping for name. Removing an absent name is a
// no-op; the return reports whether anything changed.
func (r *Registry) Unregister(name string) bool {
	if _, ok := r.sessions[name]; !ok {
		return false
	}
	delete(r.sessions, name)
	return true
}

// UnregisterChannel removes the mapping for name only if it still points at
// ch. A close arriving from a superseded channel therefore cannot evict the
// session that replaced it.
func (r *Registry) UnregisterChannel(name string, ch Sender) bool {
	if current, ok := r.sessions[name]; !ok || current != ch {
		return false
	}
	delete(r.sessions, name)
	return true
}

// Lookup returns the channel registered for name, if any.
func (r *Registry) Lookup(name string) (Sender, bool) {
	ch, ok := r.sessions[name]
	return ch, ok
}

// ActiveUsernames returns the currently registered usernames. Order is map
// iteration order and must not be relied upon.
func (r *Registry) ActiveUsernames() []string {
	names := make([]string, 0, len(r.sessions))
	for name := range r.sessions {
		names = append(names, name)
	}
	return names
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}
