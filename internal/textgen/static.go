package textgen

import "context"

// StaticBackend always returns a fixed JSON payload. Placed last in a chain
// it turns total backend failure into a degraded-but-valid result instead
// of an error, so callers never special-case the fallback.
type StaticBackend struct {
	payload string
}

// NewStatic creates a StaticBackend returning the given JSON payload.
func NewStatic(payload string) *StaticBackend {
	return &StaticBackend{payload: payload}
}

func (s *StaticBackend) Name() string { return "static" }

func (s *StaticBackend) GenerateJSON(_ context.Context, _ string) (string, error) {
	return s.payload, nil
}
