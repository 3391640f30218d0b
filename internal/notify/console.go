package notify

import (
	"fmt"
	"io"
	"strings"

	"github.com/centsible/centsible/internal/cli"
)

// ConsoleNotifier prints notifications to a terminal. Reminder actions are
// rendered as the commands that perform them.
type ConsoleNotifier struct {
	out io.Writer
}

// NewConsoleNotifier creates a notifier writing to out.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

// Send renders the notification.
func (n *ConsoleNotifier) Send(notification Notification) error {
	var b strings.Builder
	b.WriteString(cli.BoldStyle.Render(notification.Title))
	b.WriteString("\n")
	b.WriteString(notification.Body)

	for _, action := range notification.Actions {
		b.WriteString("\n")
		b.WriteString(cli.SubtleStyle.Render(
			fmt.Sprintf("  %s: centsible %s %d", action.Label, action.Kind, action.ScheduledID)))
	}

	if _, err := fmt.Fprintln(n.out, cli.BoxStyle.Render(b.String())); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}
	return nil
}

var _ Notifier = (*ConsoleNotifier)(nil)
