package tools

import (
	"context"
	"strings"
)

// registerDefaultBuiltins installs the resolver functions that ship with
// the platform. Marketplace deployments register more at startup.
func registerDefaultBuiltins(s *Service) {
	s.RegisterBuiltin("echo", func(ctx context.Context, inputs map[string]any) (any, error) {
		return inputs, nil
	})

	s.RegisterBuiltin("word_count", func(ctx context.Context, inputs map[string]any) (any, error) {
		text, _ := inputs["text"].(string)

		return map[string]any{
			"words":      len(strings.Fields(text)),
			"characters": len(text),
		}, nil
	})

	s.RegisterBuiltin("join", func(ctx context.Context, inputs map[string]any) (any, error) {
		items, _ := inputs["items"].([]any)
		separator, _ := inputs["separator"].(string)

		if separator == "" {
			separator = ", "
		}

		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, toText(item))
		}

		return map[string]any{"joined": strings.Join(parts, separator)}, nil
	})
}
