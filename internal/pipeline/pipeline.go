// Package pipeline orders the guard checks ahead of alert composition and
// dispatch, and owns the deferred-vs-direct interaction response protocol.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/jshumphrey/full-course-yellow/internal/alert"
	"github.com/jshumphrey/full-course-yellow/internal/logging"
	"github.com/jshumphrey/full-course-yellow/internal/membership"
	"github.com/jshumphrey/full-course-yellow/internal/models"
	"github.com/jshumphrey/full-course-yellow/internal/origin"
	"github.com/jshumphrey/full-course-yellow/internal/registry"
	"github.com/jshumphrey/full-course-yellow/internal/resolver"
	"github.com/jshumphrey/full-course-yellow/pkg/util"
)

// Responder is the interaction response surface for one invocation. The
// deferred flag lives behind it: Defer marks the interaction deferred
// exactly once, and Finish picks the edit path iff a deferral (or an
// interactive prompt, which consumes the response the same way) happened.
type Responder interface {
	Defer(ctx context.Context) error
	Finish(ctx context.Context, content string) error
	Followup(ctx context.Context, msg *alert.DecoratedAlert) error
}

// AttachmentFetcher downloads a command attachment for re-upload with the
// outgoing alerts.
type AttachmentFetcher interface {
	FetchAttachment(ctx context.Context, url, filename string, spoiler bool) (*models.Attachment, error)
}

// Request carries everything the pipeline needs from one /alert invocation.
type Request struct {
	GuildID           string
	Invoker           *models.Actor
	InvokerRoleIDs    []string
	UserID            string
	Reason            string
	AttachmentURL     string
	AttachmentName    string
	AttachmentSpoiler bool
}

// User-facing guard messages, matching the deployed bot's wording.
const (
	msgInvalidLocation = "Sorry, this command can only be used from a server the bot is installed in."

	msgNonIDUserID = "Sorry, it looks like the `user_id` you gave me isn't an actual Discord User ID.\n" +
		"Remember that this needs to be a user ***ID*** - a big number, not text."

	msgModeratorUserID = "The provided user ID belongs to a server moderator.\n" +
		"Please don't ping a bunch of roles just to make a joke.\n\n" +
		"If you just want to test out the bot, send an alert against **your own User ID**.\n" +
		"The bot will detect that it's a \"self-alert\" and send an alert that only you can see."

	msgSelectionAbandoned = "No server was selected, so no alert was sent."

	msgSelfAlertNotice = "Since this alert is against yourself, it's visible only to you."

	msgSuccess = "Successfully raised an alert."
)

// Pipeline wires the guards to the composer and dispatcher.
type Pipeline struct {
	Registry       *registry.Registry
	Index          *membership.Index
	Resolver       *resolver.Resolver
	Origin         *origin.Resolver
	Composer       *alert.Composer
	Dispatcher     *alert.Dispatcher
	Attachments    AttachmentFetcher
	TestingUserIDs map[string]struct{}
}

// HandleAlert runs the /alert flow: environment validity, identifier
// format, self-alert branch, moderator exclusion, actor resolution, then
// deferral, origin resolution, composition and dispatch. Guard failures
// are surfaced to the user and swallowed; only unexpected failures return
// an error for the boundary's last-resort handler.
func (p *Pipeline) HandleAlert(ctx context.Context, req Request, resp Responder, prompter origin.SelectPrompter) error {
	// Cheap guards first; nothing remote happens until they all pass.
	g, ok := p.Registry.Installed(req.GuildID)
	if !ok {
		return resp.Finish(ctx, msgInvalidLocation)
	}

	if !util.IsDigits(req.UserID) {
		return resp.Finish(ctx, msgNonIDUserID)
	}

	// Self-alerts skip the moderator-exclusion guard: a moderator testing
	// the bot against themselves must never be blocked.
	if req.UserID == req.Invoker.ID {
		return p.handleSelfAlert(ctx, req, resp, prompter)
	}

	if _, testUser := p.TestingUserIDs[req.UserID]; !testUser && p.Index.Contains(req.UserID) {
		logging.Info("Rejected alert from %s against moderator user ID %s", req.Invoker.PrettyName(), req.UserID)
		return resp.Finish(ctx, msgModeratorUserID)
	}

	subject, err := p.Resolver.Resolve(ctx, resolver.Textual(req.UserID))
	if err != nil {
		if errors.Is(err, resolver.ErrActorNotFound) || errors.Is(err, resolver.ErrInvalidIdentifier) {
			return resp.Finish(ctx, p.userNotFoundMessage(req.UserID))
		}
		return fmt.Errorf("resolving user %s: %w", req.UserID, err)
	}

	// Origin disambiguation and the presence probe can blow through the
	// interactive-response deadline, so the deferral happens now.
	if err := resp.Defer(ctx); err != nil {
		return fmt.Errorf("deferring response: %w", err)
	}

	originLabel, err := p.resolveOrigin(ctx, req, prompter)
	if err != nil {
		return p.finishOriginFailure(ctx, resp, err)
	}

	env := p.Composer.ComposeEnvelope(ctx, subject, originLabel, req.Reason,
		fmt.Sprintf("New alert raised by %s!", req.Invoker.PrettyName()),
		p.fetchAttachment(ctx, req))

	p.Dispatcher.Dispatch(ctx, env, g.Testing)

	return resp.Finish(ctx, msgSuccess)
}

// handleSelfAlert runs the self-alert branch: the alert is composed and
// decorated normally, but it is shown only to the invoker and pings no one.
func (p *Pipeline) handleSelfAlert(ctx context.Context, req Request, resp Responder, prompter origin.SelectPrompter) error {
	if err := resp.Defer(ctx); err != nil {
		return fmt.Errorf("deferring response: %w", err)
	}

	originLabel, err := p.resolveOrigin(ctx, req, prompter)
	if err != nil {
		return p.finishOriginFailure(ctx, resp, err)
	}

	env := p.Composer.ComposeEnvelope(ctx, req.Invoker, originLabel, req.Reason,
		fmt.Sprintf("New alert raised by %s!", req.Invoker.PrettyName()),
		p.fetchAttachment(ctx, req))

	// Decorated for the invoking alert guild when there is one, so the
	// preview matches what a real alert would look like there.
	dest, _ := p.Registry.AlertGuild(req.GuildID)
	decorated := p.Composer.Decorate(env, dest)

	if err := resp.Finish(ctx, msgSelfAlertNotice); err != nil {
		return fmt.Errorf("acknowledging self-alert: %w", err)
	}
	return resp.Followup(ctx, decorated)
}

func (p *Pipeline) resolveOrigin(ctx context.Context, req Request, prompter origin.SelectPrompter) (string, error) {
	return p.Origin.Resolve(ctx, origin.Invocation{
		GuildID:       req.GuildID,
		MemberRoleIDs: req.InvokerRoleIDs,
	}, prompter)
}

func (p *Pipeline) finishOriginFailure(ctx context.Context, resp Responder, err error) error {
	switch {
	case errors.Is(err, origin.ErrSelectionAbandoned):
		return resp.Finish(ctx, msgSelectionAbandoned)
	case errors.Is(err, origin.ErrUnknownContext):
		return resp.Finish(ctx, msgInvalidLocation)
	default:
		return fmt.Errorf("resolving alert origin: %w", err)
	}
}

// fetchAttachment downloads the command attachment, if any. A failed
// download degrades to an alert without the attachment.
func (p *Pipeline) fetchAttachment(ctx context.Context, req Request) *models.Attachment {
	if req.AttachmentURL == "" || p.Attachments == nil {
		return nil
	}
	att, err := p.Attachments.FetchAttachment(ctx, req.AttachmentURL, req.AttachmentName, req.AttachmentSpoiler)
	if err != nil {
		logging.Warn("Failed to download attachment %s; sending alert without it: %v", req.AttachmentURL, err)
		return nil
	}
	return att
}

func (p *Pipeline) userNotFoundMessage(userID string) string {
	return fmt.Sprintf(
		"Sorry, I looked, but I couldn't find any Discord user with the User ID `%s`.\n"+
			"Please double-check that you typed or pasted it correctly.", userID)
}
