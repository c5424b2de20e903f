package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeSender captures frames sent to a session. When full is set every send
// fails, mimicking a saturated or closed outbound queue.
type fakeSender struct {
	frames [][]byte
	full   bool
}

func (f *fakeSender) Send(data []byte) bool {
	if f.full {
		return false
	}
	f.frames = append(f.frames, data)
	return true
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	alice := &fakeSender{}

	prev, replaced := r.Register("alice", alice)
	req.Nil(prev)
	req.False(replaced)

	ch, ok := r.Lookup("alice")
	req.True(ok)
	req.Same(alice, ch)

	_, ok = r.Lookup("bob")
	req.False(ok)
}

func TestRegistryOverwriteReturnsSuperseded(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	first := &fakeSender{}
	second := &fakeSender{}

	r.Register("alice", first)
	prev, replaced := r.Register("alice", second)

	req.True(replaced)
	req.Same(first, prev)
	req.Equal(1, r.Len())

	ch, ok := r.Lookup("alice")
	req.True(ok)
	req.Same(second, ch)
}

func TestRegistryReregisterSameChannel(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	alice := &fakeSender{}

	r.Register("alice", alice)
	prev, replaced := r.Register("alice", alice)

	req.False(replaced)
	req.Nil(prev)
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	r.Register("alice", &fakeSender{})

	req.True(r.Unregister("alice"))
	req.False(r.Unregister("alice"))
	req.False(r.Unregister("never-connected"))
	req.Equal(0, r.Len())
}

func TestRegistryUnregisterChannelGuardsIdentity(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	old := &fakeSender{}
	fresh := &fakeSender{}

	r.Register("alice", old)
	r.Register("alice", fresh)

	// A stale close from the superseded channel must not evict the
	// replacement session.
	req.False(r.UnregisterChannel("alice", old))
	ch, ok := r.Lookup("alice")
	req.True(ok)
	req.Same(fresh, ch)

	req.True(r.UnregisterChannel("alice", fresh))
	_, ok = r.Lookup("alice")
	req.False(ok)
}

func TestRegistryActiveUsernames(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()

	req.Empty(r.ActiveUsernames())

	r.Register("alice", &fakeSender{})
	r.Register("bob", &fakeSender{})
	r.Register("carol", &fakeSender{})
	r.Unregister("bob")

	req.ElementsMatch([]string{"alice", "carol"}, r.ActiveUsernames())
	req.Equal(2, r.Len())
}
