package domain

import "time"

// ModStatus is the moderation state of a statement.
type ModStatus int16

const (
	ModBanned      ModStatus = -1
	ModUnmoderated ModStatus = 0
	ModApproved    ModStatus = 1
)

func (m ModStatus) IsValid() bool {
	switch m {
	case ModBanned, ModUnmoderated, ModApproved:
		return true
	}
	return false
}

// Statement is a short participant-submitted text ("comment") that others
// vote on. Statements are never physically deleted; moderation flips Mod.
type Statement struct {
	ConversationID int64
	Tid            int64
	Pid            int64
	Text           string
	Active         bool
	Mod            ModStatus
	Velocity       int
	Lang           string
	IsSeed         bool
	Created        time.Time
}

// Servable reports whether the statement may ever be shown to participants,
// independent of any per-participant exclusions. strictModeration requires
// explicit approval; otherwise anything not banned is servable.
func (s *Statement) Servable(strictModeration bool) bool {
	if !s.Active || s.Velocity <= 0 {
		return false
	}
	if strictModeration {
		return s.Mod == ModApproved
	}
	return s.Mod != ModBanned
}

// Translation is a persisted statement translation keyed by
// (ConversationID, Tid, Lang).
type Translation struct {
	ConversationID int64
	Tid            int64
	Lang           string
	Text           string
	Source         string
	Created        time.Time
}

// LangMatches reports whether the statement's detected language satisfies a
// requested language, comparing primary subtags ("en" matches "en-US").
func LangMatches(have, want string) bool {
	if have == "" || want == "" {
		return false
	}
	return LangPrefix(have) == LangPrefix(want)
}

// LangPrefix returns the primary subtag of a language tag ("en" for
// "en-US"). Translations are keyed by prefix so region variants share
// one stored row.
func LangPrefix(lang string) string {
	for i := 0; i < len(lang); i++ {
		if lang[i] == '-' || lang[i] == '_' {
			return lang[:i]
		}
	}
	return lang
}
