package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jshumphrey/full-course-yellow/internal/models"
)

// countingFetcher records every remote lookup so tests can assert that
// resolution short-circuits where it should.
type countingFetcher struct {
	calls int
	users map[string]*models.Actor
}

func (f *countingFetcher) FetchUser(_ context.Context, userID string) (*models.Actor, error) {
	f.calls++
	if a, ok := f.users[userID]; ok {
		return a, nil
	}
	return nil, ErrActorNotFound
}

func TestResolveAlreadyResolvedActor(t *testing.T) {
	fetcher := &countingFetcher{}
	r := New(fetcher)

	actor := &models.Actor{ID: "123", Username: "lux"}
	got, err := r.Resolve(context.Background(), Resolved(actor))

	require.NoError(t, err)
	assert.Same(t, actor, got, "a resolved actor passes through unchanged")
	assert.Zero(t, fetcher.calls, "no remote call for an already-resolved actor")
}

func TestResolveNumeric(t *testing.T) {
	fetcher := &countingFetcher{users: map[string]*models.Actor{
		"123456": {ID: "123456", Username: "driver"},
	}}
	r := New(fetcher)

	got, err := r.Resolve(context.Background(), Numeric(123456))
	require.NoError(t, err)
	assert.Equal(t, "driver", got.Username)
	assert.Equal(t, 1, fetcher.calls)
}

func TestResolveTextual(t *testing.T) {
	fetcher := &countingFetcher{users: map[string]*models.Actor{
		"123456": {ID: "123456", Username: "driver"},
	}}
	r := New(fetcher)

	got, err := r.Resolve(context.Background(), Textual("123456"))
	require.NoError(t, err)
	assert.Equal(t, "123456", got.ID)
}

func TestResolveNonDigitTextualFailsBeforeRemoteCall(t *testing.T) {
	fetcher := &countingFetcher{}
	r := New(fetcher)

	_, err := r.Resolve(context.Background(), Textual("lux#0001"))

	assert.ErrorIs(t, err, ErrInvalidIdentifier)
	assert.Zero(t, fetcher.calls, "format validation must precede the lookup")
}

func TestResolveOutOfRangeIDFailsBeforeRemoteCall(t *testing.T) {
	fetcher := &countingFetcher{}
	r := New(fetcher)

	_, err := r.Resolve(context.Background(), Textual("99999999999999999999999999"))

	assert.ErrorIs(t, err, ErrActorNotFound)
	assert.Zero(t, fetcher.calls, "an ID beyond the snowflake range skips the lookup")
}

func TestResolveUnknownUser(t *testing.T) {
	fetcher := &countingFetcher{}
	r := New(fetcher)

	_, err := r.Resolve(context.Background(), Textual("999999"))
	assert.ErrorIs(t, err, ErrActorNotFound)
}

func TestResolveAbsent(t *testing.T) {
	r := New(&countingFetcher{})

	_, err := r.Resolve(context.Background(), Absent())
	assert.ErrorIs(t, err, ErrMissingIdentifier)
}
