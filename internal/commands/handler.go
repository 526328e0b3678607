package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/jshumphrey/full-course-yellow/internal/bot"
	"github.com/jshumphrey/full-course-yellow/internal/logging"
	"github.com/jshumphrey/full-course-yellow/internal/membership"
	"github.com/jshumphrey/full-course-yellow/internal/pipeline"
	"github.com/jshumphrey/full-course-yellow/internal/platform"
	"github.com/jshumphrey/full-course-yellow/internal/registry"
	"github.com/jshumphrey/full-course-yellow/internal/resolver"
)

// Deps carries the components the command handlers drive.
type Deps struct {
	Registry   *registry.Registry
	Index      *membership.Index
	Resolver   *resolver.Resolver
	Pipeline   *pipeline.Pipeline
	Selections *platform.SelectionRouter
}

// Handler manages all command interactions
type Handler struct {
	session *bot.Session
	deps    Deps
}

var globalHandler *Handler

// Initialize creates and initializes the command handler
func Initialize(session *bot.Session, deps Deps) error {
	globalHandler = &Handler{
		session: session,
		deps:    deps,
	}

	session.AddHandler(globalHandler.handleInteraction)

	commands := GetAllCommands()
	if err := session.RegisterCommands(commands); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	logging.Info("Command handler initialized with %d commands", len(commands))
	return nil
}

// GetHandler returns the global command handler
func GetHandler() *Handler {
	return globalHandler
}

// handleInteraction routes all interactions (commands and select menus)
func (h *Handler) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		go h.handleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		h.handleComponent(s, i)
	}
}

// handleCommand routes slash commands to their handlers. This is also the
// last-resort error boundary: anything a handler could not deal with is
// logged with full invocation context and answered with a generic
// ephemeral message.
func (h *Handler) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	invoker := interactionUser(i)

	// One responder per invocation: it owns the deferred flag, so the
	// error paths below answer through whichever response channel the
	// handler left the interaction in.
	responder := platform.NewInteractionResponder(s, i.Interaction, h.deps.Selections)

	defer func() {
		if r := recover(); r != nil {
			logging.Error("Panic during /%s invoked by %s (%s): %v", data.Name, invoker.Username, invoker.ID, r)
			respondGenericError(responder)
		}
	}()

	logging.Info("/%s invoked by %s (%s) in guild %s", data.Name,
		platform.ActorFromUser(invoker).PrettyName(), invoker.ID, i.GuildID)

	var err error
	switch data.Name {
	case "alert":
		err = h.handleAlert(i, responder)
	case "recent-bans":
		err = h.handleRecentBans(s, i, responder)
	case "status":
		err = h.handleStatus(s, i, responder)
	case "ping":
		err = h.handlePing(s, i, responder)
	default:
		err = fmt.Errorf("unknown command: %s", data.Name)
	}

	if err != nil {
		logging.Error("Command error [/%s] invoked by %s (%s): %v", data.Name, invoker.Username, invoker.ID, err)
		respondGenericError(responder)
	}
}

// handleComponent routes select-menu interactions to the exchange waiting
// on them.
func (h *Handler) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()

	// Acknowledge without altering the prompt message; the waiting
	// exchange owns the rest of the conversation.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		logging.Warn("Failed to acknowledge component interaction %s: %v", data.CustomID, err)
	}

	if len(data.Values) == 0 {
		return
	}
	if !h.deps.Selections.Dispatch(data.CustomID, data.Values[0]) {
		logging.Warn("Received selection for unknown component %s", data.CustomID)
	}
}

// interactionUser returns the invoking user for guild and DM invocations.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

// respondGenericError answers an interaction whose handler failed
// unexpectedly. The responder knows whether the interaction was deferred,
// so Finish picks the direct or edit path from that state.
func respondGenericError(responder *platform.InteractionResponder) {
	const content = "Your slash command was received, but an unknown error occurred while working on it."
	if err := responder.Finish(context.Background(), content); err != nil {
		logging.Warn("Failed to deliver the generic error response: %v", err)
	}
}
