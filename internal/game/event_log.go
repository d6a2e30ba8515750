package game

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	EventBufferSize      = 1024                   // Ring buffer size
	MaxEventsPerSec      = 10000                  // Global rate limit
	MaxEventsPerPlayer   = 100                    // Per-player rate limit per second
	BatchFlushSize       = 64                     // Events per batch write
	BatchFlushInterval   = 100 * time.Millisecond // How often to flush
	PlayerLimiterCleanup = 5 * time.Minute        // Cleanup interval for player limiters
)

// EventLog is a bounded, rate-limited match journal. Events stay in a ring
// buffer for Recent queries and are appended as JSON lines to the sink by a
// background writer.
type EventLog struct {
	mu       sync.Mutex
	buffer   [EventBufferSize]Event
	head     uint64 // next sequence to assign
	flushed  uint64 // last sequence written to the sink
	sequence uint64

	globalLimiter  *rate.Limiter
	playerLimiters sync.Map // map[string]*playerLimiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	sink   io.Writer
	closer io.Closer
	logger zerolog.Logger

	droppedCount atomic.Uint64
	totalCount   atomic.Uint64
}

// playerLimiterEntry tracks per-player rate limiting
type playerLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64
}

// NewEventLog creates a new bounded event log
func NewEventLog(logger zerolog.Logger) *EventLog {
	return &EventLog{
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		stopChan:      make(chan struct{}),
		logger:        logger.With().Str("component", "eventlog").Logger(),
	}
}

// Start opens filePath for append (empty keeps events in memory only) and
// starts the writer.
func (el *EventLog) Start(filePath string) error {
	if filePath == "" {
		return el.StartWriter(nil)
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open event log %s: %w", filePath, err)
	}
	el.closer = file
	return el.StartWriter(file)
}

// StartWriter starts the background writer with w as the sink (nil for none)
func (el *EventLog) StartWriter(w io.Writer) error {
	if el.running.Load() {
		return nil
	}
	el.sink = w
	el.running.Store(true)
	el.writerWg.Add(2)
	go el.writerLoop()
	go el.cleanupLoop()
	return nil
}

// Stop flushes pending events and closes the sink
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		if !el.running.Load() {
			return
		}
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		if el.closer != nil {
			if err := el.closer.Close(); err != nil {
				el.logger.Warn().Err(err).Msg("close event log")
			}
		}
	})
}

// Emit adds an event. Returns false if rate limited or the log is stopped.
// When the ring is full the oldest unflushed event is dropped.
func (el *EventLog) Emit(event Event) bool {
	if !el.running.Load() {
		return false
	}

	if !el.globalLimiter.Allow() {
		el.droppedCount.Add(1)
		return false
	}

	if event.PlayerID != "" {
		if !el.getPlayerLimiter(event.PlayerID).Allow() {
			el.droppedCount.Add(1)
			return false
		}
	}

	el.mu.Lock()
	el.sequence++
	event.Sequence = el.sequence
	el.buffer[el.sequence%EventBufferSize] = event
	if el.sequence-el.flushed > EventBufferSize {
		el.flushed = el.sequence - EventBufferSize
		el.droppedCount.Add(1)
	}
	el.mu.Unlock()

	el.totalCount.Add(1)
	return true
}

// EmitSimple is a convenience method to emit an event with automatic creation
func (el *EventLog) EmitSimple(eventType EventType, tick, matchTime int64, playerID string, payload interface{}) bool {
	return el.Emit(NewEvent(eventType, tick, matchTime, playerID, payload))
}

// Recent returns up to n of the latest events, oldest first
func (el *EventLog) Recent(n int) []Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	available := el.sequence
	if available > EventBufferSize {
		available = EventBufferSize
	}
	if n <= 0 || uint64(n) > available {
		n = int(available)
	}

	out := make([]Event, 0, n)
	for seq := el.sequence - uint64(n) + 1; seq <= el.sequence; seq++ {
		out = append(out, el.buffer[seq%EventBufferSize])
	}
	return out
}

// getPlayerLimiter returns/creates a per-player rate limiter
func (el *EventLog) getPlayerLimiter(playerID string) *rate.Limiter {
	now := time.Now().UnixNano()
	if entry, ok := el.playerLimiters.Load(playerID); ok {
		e := entry.(*playerLimiterEntry)
		e.lastUsed.Store(now)
		return e.limiter
	}

	entry := &playerLimiterEntry{
		limiter: rate.NewLimiter(MaxEventsPerPlayer, MaxEventsPerPlayer/10),
	}
	entry.lastUsed.Store(now)
	actual, _ := el.playerLimiters.LoadOrStore(playerID, entry)
	return actual.(*playerLimiterEntry).limiter
}

// writerLoop batches and writes events to the sink
func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			for el.flush() == BatchFlushSize {
			}
			return
		case <-ticker.C:
			el.flush()
		}
	}
}

// cleanupLoop removes stale player limiters
func (el *EventLog) cleanupLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(PlayerLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			el.cleanupPlayerLimiters()
		}
	}
}

func (el *EventLog) cleanupPlayerLimiters() {
	cutoff := time.Now().Add(-PlayerLimiterCleanup).UnixNano()
	el.playerLimiters.Range(func(key, value interface{}) bool {
		if value.(*playerLimiterEntry).lastUsed.Load() < cutoff {
			el.playerLimiters.Delete(key)
		}
		return true
	})
}

// flush writes one batch of unflushed events and returns its size
func (el *EventLog) flush() int {
	el.mu.Lock()
	batch := make([]Event, 0, BatchFlushSize)
	for seq := el.flushed + 1; seq <= el.sequence && len(batch) < BatchFlushSize; seq++ {
		batch = append(batch, el.buffer[seq%EventBufferSize])
	}
	el.flushed += uint64(len(batch))
	el.mu.Unlock()

	if el.sink == nil || len(batch) == 0 {
		return len(batch)
	}

	for _, event := range batch {
		data, err := json.Marshal(event)
		if err != nil {
			el.logger.Warn().Err(err).Str("event", event.Name).Msg("encode event")
			continue
		}
		data = append(data, '\n')
		if _, err := el.sink.Write(data); err != nil {
			el.logger.Error().Err(err).Msg("write event log")
			break
		}
	}
	return len(batch)
}

// GetStats returns counters for monitoring
func (el *EventLog) GetStats() map[string]interface{} {
	el.mu.Lock()
	pending := el.sequence - el.flushed
	el.mu.Unlock()

	return map[string]interface{}{
		"total":   el.totalCount.Load(),
		"dropped": el.droppedCount.Load(),
		"pending": pending,
		"running": el.running.Load(),
	}
}

// GetDroppedCount returns the number of dropped events
func (el *EventLog) GetDroppedCount() uint64 {
	return el.droppedCount.Load()
}

// GetTotalCount returns the total number of events accepted
func (el *EventLog) GetTotalCount() uint64 {
	return el.totalCount.Load()
}
