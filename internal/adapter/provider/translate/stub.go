package translate

import "context"

// Stub echoes the source text back with a language tag. Used when no
// translation API key is configured.
type Stub struct{}

func NewStub() *Stub {
	return &Stub{}
}

func (s *Stub) Translate(_ context.Context, text, targetLang string) (string, error) {
	return "[" + targetLang + "] " + text, nil
}
