// Package resolver turns actor "abstracts" - a resolved actor, a numeric
// ID, or a digit string - into concrete Actor records.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jshumphrey/full-course-yellow/internal/models"
	"github.com/jshumphrey/full-course-yellow/pkg/util"
)

var (
	// ErrMissingIdentifier means no identifier was provided at all.
	ErrMissingIdentifier = errors.New("no actor identifier provided")
	// ErrInvalidIdentifier means a textual identifier contained
	// non-digit characters. Detected before any remote call.
	ErrInvalidIdentifier = errors.New("actor identifier is not a digit string")
	// ErrActorNotFound means the identifier was well-formed but no such
	// user exists, or the ID is outside the valid snowflake range.
	ErrActorNotFound = errors.New("no actor found for identifier")
)

// UserFetcher is the remote user lookup, implemented by the platform
// adapter. A missing user is reported as ErrActorNotFound.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) (*models.Actor, error)
}

type abstractKind uint8

const (
	kindAbsent abstractKind = iota
	kindResolved
	kindNumeric
	kindTextual
)

// Abstract is the tagged union of actor identifier forms accepted by
// Resolve: an already-resolved Actor, a numeric ID, a digit string, or
// nothing.
type Abstract struct {
	kind  abstractKind
	actor *models.Actor
	id    string
}

// Resolved wraps an actor that needs no further resolution.
func Resolved(a *models.Actor) Abstract {
	return Abstract{kind: kindResolved, actor: a}
}

// Numeric wraps an integer user ID.
func Numeric(id int64) Abstract {
	return Abstract{kind: kindNumeric, id: strconv.FormatInt(id, 10)}
}

// Textual wraps a string user ID, validated at resolution time.
func Textual(id string) Abstract {
	return Abstract{kind: kindTextual, id: id}
}

// Absent is the missing-identifier case.
func Absent() Abstract {
	return Abstract{kind: kindAbsent}
}

// Resolver solidifies abstracts into Actors via remote lookup.
type Resolver struct {
	fetcher UserFetcher
}

func New(fetcher UserFetcher) *Resolver {
	return &Resolver{fetcher: fetcher}
}

// Resolve solidifies the abstract into an Actor. Resolving an
// already-resolved Actor returns it unchanged and performs no remote call;
// format validation likewise happens before any remote work. The lookup is
// a remote call and may be slow - callers holding an Actor must not resolve
// it again.
func (r *Resolver) Resolve(ctx context.Context, a Abstract) (*models.Actor, error) {
	switch a.kind {
	case kindResolved:
		return a.actor, nil

	case kindNumeric:
		return r.fetch(ctx, a.id)

	case kindTextual:
		if !util.IsDigits(a.id) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, a.id)
		}
		// A digit run too long for a snowflake can never name a user;
		// don't bother the API with it.
		if _, err := util.StringToUint64(a.id); err != nil {
			return nil, fmt.Errorf("%w: %q is out of range", ErrActorNotFound, a.id)
		}
		return r.fetch(ctx, a.id)

	default:
		return nil, ErrMissingIdentifier
	}
}

func (r *Resolver) fetch(ctx context.Context, userID string) (*models.Actor, error) {
	actor, err := r.fetcher.FetchUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching user %s: %w", userID, err)
	}
	return actor, nil
}
