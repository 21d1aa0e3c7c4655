package ai

import (
	"context"
	"sync"
)

// MockBackend returns canned responses without touching the network.
// Used when no API key is configured and throughout the test suite.
type MockBackend struct {
	// Respond, when set, maps each call to a response. Otherwise Response
	// and Err are returned as-is.
	Respond  func(prompt string, temperature float64) (string, error)
	Response string
	Err      error

	mu      sync.Mutex
	calls   int
	prompts []string
	temps   []float64
}

func (m *MockBackend) Generate(_ context.Context, prompt string, temperature float64) (string, error) {
	m.mu.Lock()
	m.calls++
	m.prompts = append(m.prompts, prompt)
	m.temps = append(m.temps, temperature)
	m.mu.Unlock()

	if m.Respond != nil {
		return m.Respond(prompt, temperature)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func (m *MockBackend) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockBackend) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

func (m *MockBackend) Temperatures() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float64, len(m.temps))
	copy(out, m.temps)
	return out
}
