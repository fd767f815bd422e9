package kafka

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingHandler struct {
	got []string
	err error
}

func (h *recordingHandler) Handle(_ context.Context, msg *Message) error {
	h.got = append(h.got, string(msg.Key))
	return h.err
}

func TestRouter(t *testing.T) {
	history := &recordingHandler{}
	broken := &recordingHandler{err: errors.New("db down")}
	r := NewRouter(slog.Default(), nil)
	r.Register("parcours.history", history)
	r.Register("parcours.broken", broken)

	assert.NoError(t, r.Handle(context.Background(), &Message{Topic: "parcours.history", Key: []byte("d1")}))
	assert.Error(t, r.Handle(context.Background(), &Message{Topic: "parcours.broken", Key: []byte("d2")}))
	assert.NoError(t, r.Handle(context.Background(), &Message{Topic: "elsewhere", Key: []byte("d3")}))

	assert.Equal(t, []string{"d1"}, history.got)
	assert.ElementsMatch(t, []string{"parcours.history", "parcours.broken"}, r.Topics())
}

func TestRouterFallback(t *testing.T) {
	fallback := &recordingHandler{}
	r := NewRouter(slog.Default(), fallback)
	assert.NoError(t, r.Handle(context.Background(), &Message{Topic: "other", Key: []byte("k")}))
	assert.Equal(t, []string{"k"}, fallback.got)
}
