package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryHistory struct {
	store map[string][]ChatMessage
}

func newMemoryHistory() *memoryHistory {
	return &memoryHistory{store: map[string][]ChatMessage{}}
}

func (m *memoryHistory) Load(ctx context.Context, userID string) []ChatMessage {
	return m.store[userID]
}

func (m *memoryHistory) Save(ctx context.Context, userID string, msgs []ChatMessage) {
	m.store[userID] = msgs
}

func completionServer(t *testing.T, reply string, capture *[][]ChatMessage) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string        `json:"model"`
			Messages []ChatMessage `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "garden-small", req.Model)
		if capture != nil {
			*capture = append(*capture, req.Messages)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))
}

func TestMentorTipReturnsModelText(t *testing.T) {
	srv := completionServer(t, "اسقِ نباتك صباحاً!", nil)
	defer srv.Close()

	m := NewMentor(srv.URL, "test-key", "garden-small", newMemoryHistory(), zap.NewNop().Sugar())
	assert.Equal(t, "اسقِ نباتك صباحاً!", m.Tip(context.Background()))
}

func TestMentorTipFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	m := NewMentor(srv.URL, "test-key", "garden-small", newMemoryHistory(), zap.NewNop().Sugar())
	assert.Equal(t, tipFallback, m.Tip(context.Background()))
}

func TestMentorTipFallsBackOnEmptyReply(t *testing.T) {
	srv := completionServer(t, "", nil)
	defer srv.Close()

	m := NewMentor(srv.URL, "test-key", "garden-small", newMemoryHistory(), zap.NewNop().Sugar())
	assert.Equal(t, tipDefault, m.Tip(context.Background()))
}

func TestMentorChatAccumulatesHistory(t *testing.T) {
	var seen [][]ChatMessage
	srv := completionServer(t, "جرب تقليل الري.", &seen)
	defer srv.Close()

	history := newMemoryHistory()
	m := NewMentor(srv.URL, "test-key", "garden-small", history, zap.NewNop().Sugar())
	ctx := context.Background()

	reply := m.Chat(ctx, "u1", "لماذا تصفر أوراق نبتتي؟")
	assert.Equal(t, "جرب تقليل الري.", reply)

	// System prompt plus the user turn on the wire.
	require.Len(t, seen, 1)
	require.Len(t, seen[0], 2)
	assert.Equal(t, "system", seen[0][0].Role)
	assert.Equal(t, "لماذا تصفر أوراق نبتتي؟", seen[0][1].Content)

	// Both turns stored for the next round.
	require.Len(t, history.store["u1"], 2)
	assert.Equal(t, "user", history.store["u1"][0].Role)
	assert.Equal(t, "assistant", history.store["u1"][1].Role)

	m.Chat(ctx, "u1", "شكراً!")
	require.Len(t, seen, 2)
	// Second call carries the prior exchange: system + 2 history + new turn.
	assert.Len(t, seen[1], 4)
	assert.Len(t, history.store["u1"], 4)
}

func TestMentorChatFailureLeavesHistoryUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	history := newMemoryHistory()
	history.store["u1"] = []ChatMessage{{Role: "user", Content: "مرحبا"}, {Role: "assistant", Content: "أهلاً!"}}

	m := NewMentor(srv.URL, "test-key", "garden-small", history, zap.NewNop().Sugar())
	reply := m.Chat(context.Background(), "u1", "سؤال جديد")

	assert.Equal(t, mentorFallback, reply)
	assert.Len(t, history.store["u1"], 2)
}

func TestMentorChatTrimsHistoryToLimit(t *testing.T) {
	srv := completionServer(t, "تمام.", nil)
	defer srv.Close()

	history := newMemoryHistory()
	for i := 0; i < historyLimit; i++ {
		history.store["u1"] = append(history.store["u1"], ChatMessage{Role: "user", Content: "قديم"})
	}

	m := NewMentor(srv.URL, "test-key", "garden-small", history, zap.NewNop().Sugar())
	m.Chat(context.Background(), "u1", "جديد")

	require.Len(t, history.store["u1"], historyLimit)
	// The newest exchange survives the trim.
	assert.Equal(t, "تمام.", history.store["u1"][historyLimit-1].Content)
}
