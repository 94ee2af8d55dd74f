package sqlstore

import "github.com/andersonfds/freitool/core"

var (
	_ core.RunJournal = (*JournalStore)(nil)
	_ core.RunReader  = (*JournalStore)(nil)
	_ core.RunJournal = (*Journal)(nil)
	_ core.RunReader  = (*Journal)(nil)
)
