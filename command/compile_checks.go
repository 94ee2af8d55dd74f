package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[SetNotesMessage]      = (*SetNotesCommand)(nil)
	_ gocmd.Commander[CreateVersionMessage] = (*CreateVersionCommand)(nil)
)
