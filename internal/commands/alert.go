package commands

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jshumphrey/full-course-yellow/internal/pipeline"
	"github.com/jshumphrey/full-course-yellow/internal/platform"
)

// handleAlert adapts the /alert interaction into a pipeline request.
func (h *Handler) handleAlert(i *discordgo.InteractionCreate, responder *platform.InteractionResponder) error {
	data := i.ApplicationCommandData()

	req := pipeline.Request{
		GuildID: i.GuildID,
		Invoker: platform.ActorFromUser(interactionUser(i)),
	}
	if i.Member != nil {
		req.InvokerRoleIDs = i.Member.Roles
	}

	for _, opt := range data.Options {
		switch opt.Name {
		case "user_id":
			req.UserID = strings.TrimSpace(opt.StringValue())
		case "reason":
			req.Reason = opt.StringValue()
		case "attachment":
			if att, ok := data.Resolved.Attachments[opt.Value.(string)]; ok {
				req.AttachmentURL = att.URL
				// The spoiler state rides on the filename convention; the
				// fetcher re-applies the prefix on the re-upload.
				req.AttachmentName = strings.TrimPrefix(att.Filename, "SPOILER_")
				req.AttachmentSpoiler = strings.HasPrefix(att.Filename, "SPOILER_")
			}
		}
	}

	return h.deps.Pipeline.HandleAlert(context.Background(), req, responder, responder)
}
