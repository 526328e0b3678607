package models

// Actor is a resolved Discord user: the subject of an alert, or the user
// invoking a command. Immutable once resolved.
type Actor struct {
	ID         string
	Username   string
	GlobalName string
	AvatarURL  string
}

// PrettyName returns a human-recognizable name for the actor:
// "GlobalName (username)", collapsing to just the username when the global
// name is absent or identical.
func (a *Actor) PrettyName() string {
	if a.GlobalName == "" || a.GlobalName == a.Username {
		return a.Username
	}
	return a.GlobalName + " (" + a.Username + ")"
}
