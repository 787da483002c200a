package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/flowgrid/flowgrid/pkg/channels/gochannel"
	"github.com/flowgrid/flowgrid/pkg/eventbus"
)

// NewEventBus builds the in-process event bus carrying run lifecycle events.
func NewEventBus(logger *slog.Logger) (eventbus.EventBus, error) {
	pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create event channel: %w", err)
	}

	return eventbus.NewWatermillEventBus(pub, sub), nil
}
