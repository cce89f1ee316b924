package observability

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abadojack/whatlanggo"

	"hubchat/domain"
)

// Handler consumes messages from the telemetry channel. Handlers are
// observability only: losing a message must never affect routing.
type Handler interface {
	Handle(m domain.Message)
}

// LatencyHandler measures the interval between a message's
// server-assigned timestamp and the moment telemetry observes it.
type LatencyHandler struct {
	log       *slog.Logger
	threshold time.Duration
}

func NewLatencyHandler(log *slog.Logger, threshold time.Duration) *LatencyHandler {
	return &LatencyHandler{log: log, threshold: threshold}
}

func (h *LatencyHandler) Handle(m domain.Message) {
	leadTime := time.Since(m.CreatedAt)
	h.log.Debug("telemetry: relay latency",
		"message_id", m.ID,
		"lead_time_ms", leadTime.Milliseconds(),
	)
	if leadTime > h.threshold {
		h.log.Warn("high relay latency detected", "lead_time", leadTime)
	}
}

// LanguageHandler keeps per-language counters over text traffic.
type LanguageHandler struct {
	mu     sync.Mutex
	log    *slog.Logger
	counts map[string]uint64
}

func NewLanguageHandler(log *slog.Logger) *LanguageHandler {
	return &LanguageHandler{log: log, counts: make(map[string]uint64)}
}

func (h *LanguageHandler) Handle(m domain.Message) {
	if m.Type != domain.TextMessage {
		return
	}
	info := whatlanggo.Detect(m.Content)
	if !info.IsReliable() {
		return
	}
	lang := info.Lang.String()

	h.mu.Lock()
	h.counts[lang]++
	count := h.counts[lang]
	h.mu.Unlock()

	h.log.Debug(fmt.Sprintf("telemetry: %d %s messages seen", count, lang))
}

// Counts returns a copy of the per-language counters.
func (h *LanguageHandler) Counts() map[string]uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]uint64, len(h.counts))
	for k, v := range h.counts {
		out[k] = v
	}
	return out
}
