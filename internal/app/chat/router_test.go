package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvent(t *testing.T, payload string) Event {
	t.Helper()
	evt, err := NewEvent(TypeMessage, Message{Body: payload})
	require.NoError(t, err)
	return evt
}

func TestRouterTargets(t *testing.T) {
	r := NewRouter()
	a, b, c := &recorder{}, &recorder{}, &recorder{}
	r.Add("a", a)
	r.Add("b", b)
	r.Add("c", c)

	r.Deliver(newTestEvent(t, "everyone"), All())
	r.Deliver(newTestEvent(t, "not b"), AllExcept("b"))
	r.Deliver(newTestEvent(t, "only c"), Only("c"))
	r.Deliver(newTestEvent(t, "nobody"), Only("missing"))

	bodies := func(rc *recorder) []string {
		var out []string
		for _, msg := range messages(t, rc) {
			out = append(out, msg.Body)
		}
		return out
	}

	assert.Equal(t, []string{"everyone", "not b"}, bodies(a))
	assert.Equal(t, []string{"everyone"}, bodies(b))
	assert.Equal(t, []string{"everyone", "not b", "only c"}, bodies(c))
}

func TestRouterRemoveReleases(t *testing.T) {
	r := NewRouter()
	a := &recorder{}
	r.Add("a", a)

	assert.True(t, r.Has("a"))
	assert.True(t, r.Remove("a"))
	assert.False(t, r.Remove("a"))
	assert.False(t, r.Has("a"))
	assert.True(t, a.isReleased())

	r.Deliver(newTestEvent(t, "late"), All())
	assert.Empty(t, a.all())
}

func TestRouterEvictsFullRecipient(t *testing.T) {
	r := NewRouter()
	slow, fast := &recorder{}, &recorder{}
	slow.setFull(true)
	r.Add("slow", slow)
	r.Add("fast", fast)

	r.Deliver(newTestEvent(t, "one"), All())
	r.Deliver(newTestEvent(t, "two"), All())

	assert.Len(t, messages(t, fast), 2)
	assert.Eventually(t, slow.isClosed, time.Second, 5*time.Millisecond)

	slow.setFull(false)
	r.Deliver(newTestEvent(t, "three"), All())
	assert.Empty(t, slow.all(), "an evicted recipient gets nothing more")
	assert.True(t, r.Has("slow"), "eviction is finished by the transport's disconnect")
}

func TestRouterRemoveAll(t *testing.T) {
	r := NewRouter()
	a, b := &recorder{}, &recorder{}
	r.Add("a", a)
	r.Add("b", b)

	r.RemoveAll()

	assert.Equal(t, 0, r.Len())
	assert.True(t, a.isReleased())
	assert.True(t, b.isReleased())
}
