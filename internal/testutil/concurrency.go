package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/handlers"
	"github.com/zclconf/go-cty/cty"
)

// MockSleeperModule is a shared, self-contained module for concurrency tests.
// Its "Sleep" body records when it ran, keyed by the "id" field of the
// walker executing it.
type MockSleeperModule struct {
	ExecutionTimes map[string]*ExecutionRecord
	mu             sync.Mutex
	sleepDuration  time.Duration
	completionChan chan<- string
}

// NewMockSleeperModule creates a new sleeper module for testing.
func NewMockSleeperModule(completionChan chan<- string, sleep time.Duration) *MockSleeperModule {
	return &MockSleeperModule{
		ExecutionTimes: make(map[string]*ExecutionRecord),
		sleepDuration:  sleep,
		completionChan: completionChan,
	}
}

// Register registers the "Sleep" native body.
func (m *MockSleeperModule) Register(h *handlers.Handlers) {
	h.Register("Sleep", arch.BodyFunc(m.sleep))
}

// Records returns a copy of the execution records.
func (m *MockSleeperModule) Records() map[string]ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]ExecutionRecord, len(m.ExecutionTimes))
	for id, rec := range m.ExecutionTimes {
		out[id] = *rec
	}
	return out
}

func (m *MockSleeperModule) sleep(ctx context.Context, env arch.Env) error {
	id := env.HereHandle().String()
	if v, err := env.Visitor().Fields().Get("id"); err == nil && v.Type().Equals(cty.String) && v.IsKnown() && !v.IsNull() {
		id = v.AsString()
	}

	startTime := time.Now()
	select {
	case <-time.After(m.sleepDuration):
	case <-ctx.Done():
		return ctx.Err()
	}
	endTime := time.Now()

	m.mu.Lock()
	m.ExecutionTimes[id] = &ExecutionRecord{Start: startTime, End: endTime}
	m.mu.Unlock()

	if m.completionChan != nil {
		m.completionChan <- id
	}
	return nil
}
