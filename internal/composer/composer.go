// Package composer turns funnel skeleton replies into natural-language text.
// Implementations may call an external model; callers must treat every error
// as "use the skeleton verbatim" and never surface it to the chat.
package composer

import (
	"context"

	"github.com/aerocl/aerobot/internal/funnel"
)

// Prompt carries everything a composer may use to rephrase one reply.
type Prompt struct {
	Channel  string
	State    funnel.State
	UserText string
	Skeleton string
}

// Composer rewrites the skeleton reply. On error the caller sends the
// skeleton unchanged.
type Composer interface {
	Compose(ctx context.Context, p Prompt) (string, error)
}

// Template is the no-op composer: the skeleton is the reply. It is the
// default when no AI key is configured and the implementation used in tests.
type Template struct{}

func (Template) Compose(_ context.Context, p Prompt) (string, error) {
	return p.Skeleton, nil
}
