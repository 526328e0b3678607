package platform

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturingTransport records every REST call and answers 200 with an empty
// JSON body, so the responder's protocol can be observed without a gateway.
type capturingTransport struct {
	mu       sync.Mutex
	requests []*http.Request
}

func (t *capturingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	t.requests = append(t.requests, req)
	t.mu.Unlock()
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader("{}")),
	}, nil
}

func (t *capturingTransport) calls() []*http.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*http.Request(nil), t.requests...)
}

func testResponder(t *testing.T) (*InteractionResponder, *capturingTransport) {
	t.Helper()
	session, err := discordgo.New("Bot test-token")
	require.NoError(t, err)
	transport := &capturingTransport{}
	session.Client = &http.Client{Transport: transport}

	interaction := &discordgo.Interaction{ID: "interaction-1", AppID: "app-1", Token: "tok"}
	return NewInteractionResponder(session, interaction, NewSelectionRouter()), transport
}

func TestFinishWithoutDeferralRespondsDirectly(t *testing.T) {
	responder, transport := testResponder(t)

	require.NoError(t, responder.Finish(context.Background(), "guard message"))

	calls := transport.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Contains(t, calls[0].URL.Path, "/interactions/interaction-1/tok/callback")
}

func TestFinishAfterDeferralEditsTheDeferredResponse(t *testing.T) {
	responder, transport := testResponder(t)

	require.NoError(t, responder.Defer(context.Background()))
	require.NoError(t, responder.Finish(context.Background(), "all done"))

	calls := transport.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodPost, calls[0].Method, "the deferral consumes the initial response")
	assert.Equal(t, http.MethodPatch, calls[1].Method, "a deferred interaction is finished by edit")
	assert.Contains(t, calls[1].URL.Path, "/webhooks/app-1/tok/messages/@original")
}

func TestDeferIsIdempotent(t *testing.T) {
	responder, transport := testResponder(t)

	require.NoError(t, responder.Defer(context.Background()))
	require.NoError(t, responder.Defer(context.Background()))

	assert.Len(t, transport.calls(), 1)
}
