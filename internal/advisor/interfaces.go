// Package advisor generates spending advice from the month's cash flow and
// budget standing.
package advisor

import "context"

// Client defines the interface for advice-generating model providers.
type Client interface {
	// Advise returns free-form advice text for the prompt.
	Advise(ctx context.Context, prompt string) (string, error)
}
