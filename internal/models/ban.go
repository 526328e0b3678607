package models

// BanEvent describes a user ban observed in a monitored guild, assembled
// from the gateway ban event plus the matching audit log entry.
type BanEvent struct {
	GuildID      string
	TargetUserID string
	ModeratorID  string
	Reason       string
}

// Attachment is a downloaded file to be re-uploaded with outgoing alerts,
// typically a screenshot supporting the alert.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
	Spoiler     bool
}
