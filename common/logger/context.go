package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within
// a context. Fields flow through context enrichment so every log statement in
// a pipeline run carries the trigger and conversation it belongs to.
type LogFields struct {
	TriggerID      *string // claimed trigger being processed
	ConversationID *string // Missive conversation the trigger points at
	Component      string  // component name, e.g. "agent.processor"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.TriggerID != nil {
		result.TriggerID = next.TriggerID
	}
	if next.ConversationID != nil {
		result.ConversationID = next.ConversationID
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Str is a convenience for building pointer fields.
func Str(s string) *string {
	return &s
}
