package protolog

import (
	"context"
	"log/slog"
)

// SlogAdapter writes diagnostic events to an slog.Logger.
// Useful during bring-up when protocol traces should show up on the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("source", event.Source),
		slog.String("category", event.Category.String()),
	}

	switch {
	case event.HealthChange != nil:
		attrs = append(attrs,
			slog.String("old_status", event.HealthChange.OldStatus),
			slog.String("new_status", event.HealthChange.NewStatus),
		)
		if event.HealthChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.HealthChange.Reason))
		}
	case event.RunChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.RunChange.OldState),
			slog.String("new_state", event.RunChange.NewState),
		)
		if event.RunChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.RunChange.Reason))
		}
	case event.Fieldbus != nil:
		attrs = append(attrs,
			slog.Int("slave", int(event.Fieldbus.Slave)),
			slog.String("kind", event.Fieldbus.Kind),
			slog.Bool("success", event.Fieldbus.Success),
		)
	case event.Command != nil:
		attrs = append(attrs,
			slog.String("topic", event.Command.Topic),
			slog.Uint64("cmd_id", uint64(event.Command.CmdID)),
			slog.Bool("ok", event.Command.OK),
		)
		if event.Command.Err != "" {
			attrs = append(attrs, slog.String("err", event.Command.Err))
		}
	case event.Error != nil:
		attrs = append(attrs, slog.String("error_msg", event.Error.Message))
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "diag", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
