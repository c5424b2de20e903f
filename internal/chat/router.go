package chat

import (
	"log"

	"github.com/samber/lo"

	"github.com/tidechat/relay/internal/protocol"
)

// Router dispatches one inbound event per invocation against the registry
// and conversation store, then fans out the resulting view updates. It holds
// no state of its own; the caller (the hub event loop) serializes
// invocations so every broadcast sees a consistent snapshot of both stores.
type Router struct {
	registry      *Registry
	conversations *ConversationStore
}

// NewRouter wires a router to its two stores.
func NewRouter(registry *Registry, conversations *ConversationStore) *Router {
	return &Router{registry: registry, conversations: conversations}
}

// HandleConnect registers name on ch and broadcasts a fresh personalized
// update to every session, including the new one. When the name was already
// registered on another channel that channel is returned so the caller can
// force-close it; the old registration is silently overwritten either way.
func (rt *Router) HandleConnect(name string, ch Sender) (prev Sender, replaced bool) {
	prev, replaced = rt.registry.Register(name, ch)
	rt.broadcastUpdates()
	return prev, replaced
}

// HandleMessage appends one message keyed by (sender, target), echoes the
// message frame to whichever of the two participants is still registered,
// and broadcasts updated views to everyone. The target never needs to be
// online, or even to exist: the conversation entry is created regardless and
// no delivery error surfaces.
func (rt *Router) HandleMessage(sender, target, content string) protocol.Message {
	msg := rt.conversations.Append(sender, target, content)

	frame, err := protocol.NewMessageEvent(msg)
	if err != nil {
		log.Printf("router: failed to encode message event from=%s: %v", sender, err)
	} else {
		if ch, ok := rt.registry.Lookup(sender); ok {
			ch.Send(frame)
		}
		if target != sender {
			if ch, ok := rt.registry.Lookup(target); ok {
				ch.Send(frame)
			}
		}
	}

	rt.broadcastUpdates()
	return msg
}

// HandleClose drops the registration for name, provided it still belongs to
// ch, and broadcasts updated views to the remaining sessions. A close for an
// unknown name, or from a channel that has since been superseded, changes
// nothing and triggers no broadcast.
func (rt *Router) HandleClose(name string, ch Sender) bool {
	if !rt.registry.UnregisterChannel(name, ch) {
		return false
	}
	rt.broadcastUpdates()
	return true
}

// SessionCount reports how many usernames are currently registered.
func (rt *Router) SessionCount() int {
	return rt.registry.Len()
}

// ConversationCount reports how many distinct conversations exist.
func (rt *Router) ConversationCount() int {
	return rt.conversations.Len()
}

// PreviewsFor builds the personalized update payload for one viewer: every
// other registered username paired with the latest message the viewer has
// exchanged with them, or nil when the pair has no history yet.
func (rt *Router) PreviewsFor(viewer string) []protocol.ChatPreview {
	others := lo.Filter(rt.registry.ActiveUsernames(), func(name string, _ int) bool {
		return name != viewer
	})

	previews := make([]protocol.ChatPreview, 0, len(others))
	for _, other := range others {
		preview := protocol.ChatPreview{Username: other}
		if latest, ok := rt.conversations.LatestBetween(viewer, other); ok {
			m := latest
			preview.Message = &m
		}
		previews = append(previews, preview)
	}
	return previews
}

// broadcastUpdates recomputes and sends a personalized update_users frame to
// every registered session. One failed send never aborts delivery to the
// rest; dead channels are reaped by the transport, not here. Cost is O(U²)
// per triggering event, which is the accepted ceiling for this design.
func (rt *Router) broadcastUpdates() {
	for _, viewer := range rt.registry.ActiveUsernames() {
		frame, err := protocol.NewUpdateUsers(rt.PreviewsFor(viewer))
		if err != nil {
			log.Printf("router: failed to encode update_users for %s: %v", viewer, err)
			continue
		}
		if ch, ok := rt.registry.Lookup(viewer); ok {
			ch.Send(frame)
		}
	}
}
