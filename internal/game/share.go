package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ShareUnavailableNotice is shown to the user when nothing can take the share.
const ShareUnavailableNotice = "Sharing is not available right now"

// Sharer hands text to the host's generic "share text" facility.
// It returns ErrNoShareHandler when no such facility is available.
type Sharer interface {
	ShareText(ctx context.Context, text string) error
}

// ShareResult describes what happened to a share request.
type ShareResult struct {
	Text   string `json:"text"`
	Shared bool   `json:"shared"`
	Notice string `json:"notice,omitempty"`
}

// ShareText formats the human-readable sales summary.
// The template receives units sold, then revenue.
func ShareText(template string, s Snapshot) string {
	if template == "" {
		template = DefaultShareText
	}
	return fmt.Sprintf(template, s.UnitsSold, s.Revenue)
}

// ValidateShareTemplate rejects templates that fmt cannot fill with two
// int64 values, such as a %s verb or a missing verb.
func ValidateShareTemplate(template string) error {
	out := ShareText(template, Snapshot{UnitsSold: 1, Revenue: 2})
	if strings.Contains(out, "%!") {
		return fmt.Errorf("%q renders %q: %w", template, out, ErrShareTemplate)
	}
	return nil
}

// Share formats the summary for snap and hands it to sharer.
// A missing handler is not an error: the result carries a transient notice instead.
func Share(ctx context.Context, sharer Sharer, template string, snap Snapshot) (ShareResult, error) {
	res := ShareResult{Text: ShareText(template, snap)}

	err := sharer.ShareText(ctx, res.Text)
	switch {
	case err == nil:
		res.Shared = true
		return res, nil
	case errors.Is(err, ErrNoShareHandler):
		res.Notice = ShareUnavailableNotice
		return res, nil
	default:
		return res, fmt.Errorf("share: %w", err)
	}
}
