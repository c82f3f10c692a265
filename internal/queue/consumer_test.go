package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-escrow/internal/model"
	"github.com/iliyamo/ticket-escrow/internal/ticketing"
)

func activityBody(t *testing.T, id string) []byte {
	t.Helper()
	body, err := json.Marshal(TicketActivity{ID: id, Activity: ticketing.Activity{
		Type:       ticketing.ActivityIssued,
		InstanceID: 3,
		TicketID:   7,
		TokenID:    11,
		Actor:      model.Address{1},
		Owner:      model.Address{1},
		Status:     model.StatusPending,
		Amount:     1000,
		At:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)
	return body
}

func TestHandleMessageAppendsLine(t *testing.T) {
	dir := t.TempDir()
	c := &Consumer{LogDir: filepath.Join(dir, "logs")}

	require.NoError(t, c.handleMessage(activityBody(t, "a")))
	require.NoError(t, c.handleMessage(activityBody(t, "b")))

	data, err := os.ReadFile(filepath.Join(dir, "logs", ActivityLogFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[2026-03-01T12:00:00Z] ticket.issued")
	assert.Contains(t, lines[0], "instance=3 | ticket=7 | status=PENDING")
	assert.Contains(t, lines[0], "amount=1000 | id=a")
}

func TestHandleMessageSkipsRedelivery(t *testing.T) {
	dir := t.TempDir()
	c := &Consumer{LogDir: dir}

	require.NoError(t, c.handleMessage(activityBody(t, "same")))
	require.NoError(t, c.handleMessage(activityBody(t, "same")))

	data, err := os.ReadFile(filepath.Join(dir, ActivityLogFile))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
}

func TestSeenSetIsBounded(t *testing.T) {
	c := &Consumer{SeenLimit: 3}
	for _, id := range []string{"a", "b", "c"} {
		require.True(t, c.markSeen(id))
	}
	assert.False(t, c.markSeen("a"))

	// "d" evicts the oldest id, so "a" counts as new again
	assert.True(t, c.markSeen("d"))
	assert.Len(t, c.seen, 3)
	assert.True(t, c.markSeen("a"))
	assert.False(t, c.markSeen("c"))
	assert.False(t, c.markSeen("d"))
	assert.Len(t, c.seen, 3)
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	c := &Consumer{LogDir: t.TempDir()}
	assert.Error(t, c.handleMessage([]byte("{")))
	assert.Error(t, c.handleMessage([]byte(`{"id":"x"}`)))
}

func TestActivityWireFormat(t *testing.T) {
	var m map[string]any
	require.NoError(t, json.Unmarshal(activityBody(t, "id-1"), &m))
	assert.Equal(t, "id-1", m["id"])
	assert.Equal(t, "ticket.issued", m["type"])
	assert.Equal(t, "PENDING", m["status"])
	assert.Equal(t, model.Address{1}.String(), m["owner"])
}
