package testutil

import (
	"context"
	"sync"
	"time"

	"coronabot/internal/dispatch"
	"coronabot/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were recorded at the given level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Logs {
		if e.Level == level {
			n++
		}
	}
	return n
}

// MockDispatcher implements dispatch.Dispatcher and records deliveries.
type MockDispatcher struct {
	mu       sync.Mutex
	Sends    []SentMessage
	SendErr  error
	SendFn   func(channelID int64, msg *dispatch.Message) error
	PromptFn func(channelID, userID int64, accept func(string) bool) (string, error)
}

type SentMessage struct {
	ChannelID int64
	Message   *dispatch.Message
}

func (m *MockDispatcher) Send(_ context.Context, channelID int64, msg *dispatch.Message) error {
	if m.SendFn != nil {
		if err := m.SendFn(channelID, msg); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sends = append(m.Sends, SentMessage{ChannelID: channelID, Message: msg})
	return nil
}

func (m *MockDispatcher) Prompt(_ context.Context, channelID, userID int64, accept func(string) bool, _ time.Duration) (string, error) {
	if m.PromptFn != nil {
		return m.PromptFn(channelID, userID, accept)
	}
	return "", context.DeadlineExceeded
}

// Sent returns a copy of the recorded deliveries.
func (m *MockDispatcher) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.Sends))
	copy(out, m.Sends)
	return out
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

// MockCompressor implements storage.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {}

// MockMetrics implements providers.MetricsProviderInterface and counts the
// calls tests care about.
type MockMetrics struct {
	mu                 sync.Mutex
	RequestsTotal      int
	CacheHits          int
	CacheMisses        int
	RemoteQueries      map[string]int
	FeedCycles         map[string]int
	NotificationsSent  int
	LockForcedReleases int
	SubscriptionsTotal int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		RemoteQueries: make(map[string]int),
		FeedCycles:    make(map[string]int),
	}
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestsTotal++
}

func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}

func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

func (m *MockMetrics) IncRemoteQueries(table string, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemoteQueries[table+":"+outcome]++
}

func (m *MockMetrics) ObserveRemoteQueryDuration(_ string, _ time.Duration) {}

func (m *MockMetrics) IncFeedCycles(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedCycles[outcome]++
}

func (m *MockMetrics) IncNotificationsSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotificationsSent++
}

func (m *MockMetrics) IncLockForcedReleases() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LockForcedReleases++
}

func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {}

func (m *MockMetrics) SetSubscriptionsTotal(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubscriptionsTotal = count
}
