package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/jshumphrey/full-course-yellow/internal/alert"
	"github.com/jshumphrey/full-course-yellow/internal/logging"
	"github.com/jshumphrey/full-course-yellow/internal/origin"
)

// Discord string-select menus cap out at 25 options.
const maxSelectOptions = 25

const selectPlaceholder = "Which server should this alert come from?"

// SelectionRouter routes component interactions back to the invocation
// waiting on them. Select menus are registered under a unique custom ID
// for exactly the lifetime of one disambiguation exchange.
type SelectionRouter struct {
	mu      sync.Mutex
	pending map[string]chan string
}

func NewSelectionRouter() *SelectionRouter {
	return &SelectionRouter{pending: make(map[string]chan string)}
}

func (sr *SelectionRouter) register(customID string) chan string {
	ch := make(chan string, 1)
	sr.mu.Lock()
	sr.pending[customID] = ch
	sr.mu.Unlock()
	return ch
}

func (sr *SelectionRouter) unregister(customID string) {
	sr.mu.Lock()
	delete(sr.pending, customID)
	sr.mu.Unlock()
}

// Dispatch delivers a component selection to its waiting exchange.
// Returns false when nothing is waiting (a stale or foreign component).
func (sr *SelectionRouter) Dispatch(customID, value string) bool {
	sr.mu.Lock()
	ch, ok := sr.pending[customID]
	sr.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- value:
	default: // already satisfied; a second click on the same menu
	}
	return true
}

// InteractionResponder owns the response protocol for one interaction. The
// deferred flag is set exactly once - by Defer, or by PromptSelect when the
// select prompt consumes the initial response - and consulted exactly once,
// by Finish.
type InteractionResponder struct {
	s          *discordgo.Session
	i          *discordgo.Interaction
	selections *SelectionRouter
	deferred   bool
}

func NewInteractionResponder(s *discordgo.Session, i *discordgo.Interaction, selections *SelectionRouter) *InteractionResponder {
	return &InteractionResponder{s: s, i: i, selections: selections}
}

// Defer marks the interaction deferred, reserving the response for a later
// edit. Idempotent: a second call changes nothing.
func (r *InteractionResponder) Defer(ctx context.Context) error {
	if r.deferred {
		return nil
	}
	err := r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("deferring interaction response: %w", err)
	}
	r.deferred = true
	return nil
}

// Finish acknowledges the interaction: an edit of the deferred response
// when a deferral happened, a direct ephemeral response otherwise.
func (r *InteractionResponder) Finish(ctx context.Context, content string) error {
	if r.deferred {
		noComponents := []discordgo.MessageComponent{}
		_, err := r.s.InteractionResponseEdit(r.i, &discordgo.WebhookEdit{
			Content:    &content,
			Components: &noComponents,
		}, discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("editing deferred response: %w", err)
		}
		return nil
	}

	err := r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("responding to interaction: %w", err)
	}
	return nil
}

// Followup sends an additional ephemeral message after the acknowledgment.
func (r *InteractionResponder) Followup(ctx context.Context, msg *alert.DecoratedAlert) error {
	params := &discordgo.WebhookParams{
		Content: msg.Content,
		Embeds:  []*discordgo.MessageEmbed{msg.Embed},
		Flags:   discordgo.MessageFlagsEphemeral,
	}
	if msg.Attachment != nil {
		params.Files = []*discordgo.File{attachmentFile(msg.Attachment)}
	}

	if _, err := r.s.FollowupMessageCreate(r.i, true, params, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("sending followup message: %w", err)
	}
	return nil
}

// PromptSelect dispatches an ephemeral single-choice dropdown and blocks
// until the user picks an option or ctx expires. When the interaction has
// not been responded to yet, the prompt is the initial response and the
// final acknowledgment will edit it away; otherwise the prompt goes out as
// a followup message that is deleted once the exchange concludes.
func (r *InteractionResponder) PromptSelect(ctx context.Context, prompt string, options []string) (string, error) {
	if len(options) > maxSelectOptions {
		logging.Warn("Select prompt has %d options; truncating to %d", len(options), maxSelectOptions)
		options = options[:maxSelectOptions]
	}

	customID := uuid.NewString()
	ch := r.selections.register(customID)
	defer r.selections.unregister(customID)

	selectOptions := make([]discordgo.SelectMenuOption, len(options))
	for i, opt := range options {
		selectOptions[i] = discordgo.SelectMenuOption{Label: opt, Value: opt}
	}
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    customID,
					Placeholder: selectPlaceholder,
					Options:     selectOptions,
				},
			},
		},
	}

	if !r.deferred {
		err := r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content:    prompt,
				Components: components,
				Flags:      discordgo.MessageFlagsEphemeral,
			},
		}, discordgo.WithContext(ctx))
		if err != nil {
			return "", fmt.Errorf("dispatching selection prompt: %w", err)
		}
		r.deferred = true
	} else {
		followup, err := r.s.FollowupMessageCreate(r.i, true, &discordgo.WebhookParams{
			Content:    prompt,
			Components: components,
			Flags:      discordgo.MessageFlagsEphemeral,
		}, discordgo.WithContext(ctx))
		if err != nil {
			return "", fmt.Errorf("dispatching selection prompt: %w", err)
		}
		defer func() {
			if err := r.s.FollowupMessageDelete(r.i, followup.ID); err != nil {
				logging.Warn("Failed to delete selection prompt message: %v", err)
			}
		}()
	}

	select {
	case value := <-ch:
		return value, nil
	case <-ctx.Done():
		return "", origin.ErrSelectionAbandoned
	}
}
