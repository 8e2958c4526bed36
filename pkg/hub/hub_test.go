package hub

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

func TestPublishBeforeStartReturnsErrHubNotRunning(t *testing.T) {
	h := New()
	_, err := h.Publish("agent-a", models.Broadcast, "status", nil, models.PriorityNormal, false)
	assert.ErrorIs(t, err, ErrHubNotRunning)

	err = h.Subscribe("agent-a", nil, func(models.Message) {})
	assert.ErrorIs(t, err, ErrHubNotRunning)
}

func TestSubscribeDeliversMatchingBroadcast(t *testing.T) {
	h := New()
	h.Start()

	var mu sync.Mutex
	var received []models.Message
	err := h.Subscribe("agent-b", []string{"evidence"}, func(m models.Message) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, m)
	})
	require.NoError(t, err)

	_, err = h.Publish("agent-a", models.Broadcast, "status", map[string]any{"x": 1}, models.PriorityLow, false)
	require.NoError(t, err)
	_, err = h.Publish("agent-a", models.Broadcast, "evidence", map[string]any{"y": 2}, models.PriorityHigh, true)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "evidence", received[0].Type)
	assert.Equal(t, "agent-a", received[0].SenderID)
}

func TestSubscribeDirectTargetIgnoresOtherAgents(t *testing.T) {
	h := New()
	h.Start()

	var toB, toC int
	require.NoError(t, h.Subscribe("agent-b", nil, func(models.Message) { toB++ }))
	require.NoError(t, h.Subscribe("agent-c", nil, func(models.Message) { toC++ }))

	_, err := h.Publish("agent-a", "agent-b", "ping", nil, models.PriorityNormal, false)
	require.NoError(t, err)

	assert.Equal(t, 1, toB)
	assert.Equal(t, 0, toC)
}

func TestPanickingSubscriberDoesNotBreakOtherDelivery(t *testing.T) {
	h := New()
	h.Start()

	require.NoError(t, h.Subscribe("agent-b", nil, func(models.Message) {
		panic("boom")
	}))
	var delivered bool
	require.NoError(t, h.Subscribe("agent-c", nil, func(models.Message) { delivered = true }))

	_, err := h.Publish("agent-a", models.Broadcast, "ping", nil, models.PriorityNormal, false)
	require.NoError(t, err)
	assert.True(t, delivered)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := New()
	h.Start()

	var count int
	require.NoError(t, h.Subscribe("agent-b", nil, func(models.Message) { count++ }))
	h.Unsubscribe("agent-b")

	_, err := h.Publish("agent-a", "agent-b", "ping", nil, models.PriorityNormal, false)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestGetMessageHistoryFiltersByAgentTypeAndSince(t *testing.T) {
	h := New()
	h.Start()

	_, err := h.Publish("agent-a", "agent-b", "status", nil, models.PriorityNormal, false)
	require.NoError(t, err)
	cutoff := time.Now()
	_, err = h.Publish("agent-a", "agent-c", "evidence", nil, models.PriorityNormal, false)
	require.NoError(t, err)

	all := h.GetMessageHistory(HistoryFilter{})
	require.Len(t, all, 2)

	byAgent := h.GetMessageHistory(HistoryFilter{AgentID: "agent-c"})
	require.Len(t, byAgent, 1)
	assert.Equal(t, "evidence", byAgent[0].Type)

	byType := h.GetMessageHistory(HistoryFilter{Type: "status"})
	require.Len(t, byType, 1)

	sinceCutoff := h.GetMessageHistory(HistoryFilter{Since: cutoff})
	require.Len(t, sinceCutoff, 1)
	assert.Equal(t, "evidence", sinceCutoff[0].Type)
}

func TestRegisterAndUpdateAgentStatus(t *testing.T) {
	h := New()
	h.Start()

	h.RegisterAgent("agent-a", map[string]any{"role": "jira-intelligence"})
	status, ok := h.AgentStatus("agent-a")
	require.True(t, ok)
	assert.Equal(t, "registered", status)

	h.UpdateAgentStatus("agent-a", "running")
	status, ok = h.AgentStatus("agent-a")
	require.True(t, ok)
	assert.Equal(t, "running", status)

	// Updating an unregistered agent implicitly registers it.
	h.UpdateAgentStatus("agent-z", "running")
	status, ok = h.AgentStatus("agent-z")
	require.True(t, ok)
	assert.Equal(t, "running", status)
}

func TestStopStopsDeliveryAndCannotRestart(t *testing.T) {
	h := New()
	h.Start()
	h.Stop()

	_, err := h.Publish("agent-a", models.Broadcast, "status", nil, models.PriorityNormal, false)
	assert.ErrorIs(t, err, ErrHubNotRunning)

	h.Start()
	_, err = h.Publish("agent-a", models.Broadcast, "status", nil, models.PriorityNormal, false)
	assert.ErrorIs(t, err, ErrHubNotRunning)
}

func TestConcurrentPublishAndSubscribeIsRaceFree(t *testing.T) {
	h := New()
	h.Start()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _ = h.Publish("agent-a", models.Broadcast, "ping", map[string]any{"n": n}, models.PriorityNormal, false)
		}(i)
	}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = h.Subscribe("agent-b", nil, func(models.Message) {})
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, len(h.GetMessageHistory(HistoryFilter{})), defaultHistoryCap)
}
