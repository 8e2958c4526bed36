// Package hub implements the inter-agent communication hub (spec §4.2): an
// in-process, thread-safe publish/subscribe bus scoped to a single phase of
// a single run. It is adapted from pkg/events.ConnectionManager's
// coarse-mutex + subscription-table + snapshot-then-broadcast pattern, with
// the Postgres LISTEN/NOTIFY and WebSocket transport stripped since the hub
// never leaves process memory.
package hub

import (
	"errors"
	"sync"
	"time"

	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

// State is the hub's lifecycle state.
type State string

const (
	StateInactive State = "inactive"
	StateActive   State = "active"
	StateStopped  State = "stopped"
)

// ErrHubNotRunning is returned by Publish and Subscribe once the hub has
// left the active state.
var ErrHubNotRunning = errors.New("hub: not running")

// defaultHistoryCap bounds the in-memory message history retained per hub
// instance, mirroring the bounded-queue contract in spec §4.2.
const defaultHistoryCap = 2000

// subscription is one registered callback, matched against every published
// message by message type (empty Types means "all types").
type subscription struct {
	agentID  string
	types    map[string]bool // empty set means subscribe to everything
	callback func(models.Message)
}

// agentEntry tracks a registered agent's last known status.
type agentEntry struct {
	Metadata map[string]any
	Status   string
}

// Hub is a single-phase, single-run in-process message bus. All exported
// methods are safe for concurrent use.
type Hub struct {
	mu    sync.RWMutex
	state State

	agents map[string]*agentEntry

	subMu sync.RWMutex
	subs  map[string][]*subscription // keyed by agentID

	histMu  sync.Mutex
	history []models.Message

	idSeq int64
}

// New returns an inactive Hub. Call Start before Publish or Subscribe.
func New() *Hub {
	return &Hub{
		state:  StateInactive,
		agents: make(map[string]*agentEntry),
		subs:   make(map[string][]*subscription),
	}
}

// Start transitions the hub to active. Idempotent while already active.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != StateStopped {
		h.state = StateActive
	}
}

// Stop transitions the hub to stopped. Once stopped a hub cannot be
// restarted; callers construct a new Hub per phase.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = StateStopped
}

func (h *Hub) running() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state == StateActive
}

// RegisterAgent adds or updates an agent's metadata. Idempotent: calling it
// again for the same agentID replaces the stored metadata without error.
func (h *Hub) RegisterAgent(agentID string, metadata map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entry, ok := h.agents[agentID]
	if !ok {
		entry = &agentEntry{Status: "registered"}
		h.agents[agentID] = entry
	}
	entry.Metadata = metadata
}

// UpdateAgentStatus records an agent's latest status string. A status
// update for an unregistered agent implicitly registers it with empty
// metadata, matching the teacher's tolerant upsert behavior.
func (h *Hub) UpdateAgentStatus(agentID, status string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entry, ok := h.agents[agentID]
	if !ok {
		entry = &agentEntry{}
		h.agents[agentID] = entry
	}
	entry.Status = status
}

// AgentStatus returns the last recorded status for agentID, and whether the
// agent is known to the hub at all.
func (h *Hub) AgentStatus(agentID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	entry, ok := h.agents[agentID]
	if !ok {
		return "", false
	}
	return entry.Status, true
}

// Subscribe registers callback to receive every future message addressed to
// agentID or to models.Broadcast whose Type is in messageTypes. An empty
// messageTypes subscribes to all types. Returns ErrHubNotRunning if the hub
// is not active.
func (h *Hub) Subscribe(agentID string, messageTypes []string, callback func(models.Message)) error {
	if !h.running() {
		return ErrHubNotRunning
	}
	typeSet := make(map[string]bool, len(messageTypes))
	for _, t := range messageTypes {
		typeSet[t] = true
	}
	sub := &subscription{agentID: agentID, types: typeSet, callback: callback}

	h.subMu.Lock()
	h.subs[agentID] = append(h.subs[agentID], sub)
	h.subMu.Unlock()
	return nil
}

// Unsubscribe removes every subscription previously registered for
// agentID.
func (h *Hub) Unsubscribe(agentID string) {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	delete(h.subs, agentID)
}

// Publish delivers a message to every subscriber of targetID (or of every
// agent, when targetID is models.Broadcast) whose type filter matches. It
// returns the generated message id. Delivery is best-effort at-least-once:
// a subscriber callback that panics is recovered and isolated so it cannot
// break delivery to other subscribers, mirroring Broadcast's
// snapshot-then-release-lock-before-sending discipline in
// pkg/events.ConnectionManager.
func (h *Hub) Publish(senderID, targetID, msgType string, payload map[string]any, priority models.Priority, requiresResponse bool) (string, error) {
	if !h.running() {
		return "", ErrHubNotRunning
	}

	h.mu.Lock()
	h.idSeq++
	msg := models.Message{
		ID:               formatMessageID(h.idSeq),
		SenderID:         senderID,
		TargetID:         targetID,
		Type:             msgType,
		Payload:          payload,
		Timestamp:        time.Now(),
		Priority:         priority,
		RequiresResponse: requiresResponse,
	}
	h.mu.Unlock()

	h.recordHistory(msg)

	// Snapshot matching subscriptions before invoking any callback so a
	// Subscribe/Unsubscribe racing with delivery never deadlocks and never
	// observes a half-updated subscriber list.
	recipients := h.matchingSubscriptions(targetID, msgType)
	for _, sub := range recipients {
		deliver(sub, msg)
	}
	return msg.ID, nil
}

func (h *Hub) matchingSubscriptions(targetID, msgType string) []*subscription {
	h.subMu.RLock()
	defer h.subMu.RUnlock()

	var agentIDs []string
	if targetID == models.Broadcast {
		for id := range h.subs {
			agentIDs = append(agentIDs, id)
		}
	} else {
		agentIDs = []string{targetID}
	}

	var matched []*subscription
	for _, id := range agentIDs {
		for _, sub := range h.subs[id] {
			if len(sub.types) == 0 || sub.types[msgType] {
				matched = append(matched, sub)
			}
		}
	}
	return matched
}

// deliver invokes a subscriber's callback, isolating the publisher from a
// panicking subscriber.
func deliver(sub *subscription, msg models.Message) {
	defer func() { _ = recover() }()
	sub.callback(msg)
}

func (h *Hub) recordHistory(msg models.Message) {
	h.histMu.Lock()
	defer h.histMu.Unlock()
	h.history = append(h.history, msg)
	if len(h.history) > defaultHistoryCap {
		h.history = h.history[len(h.history)-defaultHistoryCap:]
	}
}

// HistoryFilter narrows GetMessageHistory's result set. Zero values are
// wildcards.
type HistoryFilter struct {
	AgentID string // matches SenderID or TargetID
	Type    string
	Since   time.Time
}

// GetMessageHistory returns every retained message matching filter, oldest
// first.
func (h *Hub) GetMessageHistory(filter HistoryFilter) []models.Message {
	h.histMu.Lock()
	snapshot := make([]models.Message, len(h.history))
	copy(snapshot, h.history)
	h.histMu.Unlock()

	var out []models.Message
	for _, msg := range snapshot {
		if filter.AgentID != "" && msg.SenderID != filter.AgentID && msg.TargetID != filter.AgentID {
			continue
		}
		if filter.Type != "" && msg.Type != filter.Type {
			continue
		}
		if !filter.Since.IsZero() && msg.Timestamp.Before(filter.Since) {
			continue
		}
		out = append(out, msg)
	}
	return out
}

func formatMessageID(seq int64) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	if seq == 0 {
		return "msg-0"
	}
	buf := make([]byte, 0, 16)
	n := seq
	for n > 0 {
		buf = append([]byte{alphabet[n%int64(len(alphabet))]}, buf...)
		n /= int64(len(alphabet))
	}
	return "msg-" + string(buf)
}
