package delivery_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rachmat-backend/internal/delivery"
	"rachmat-backend/internal/storage"
	"rachmat-backend/internal/telegram"
)

// botServer fakes the Bot API: getChat always succeeds, sendDocument fails
// permanently for filenames listed in failFiles.
type botServer struct {
	*httptest.Server
	getChatCalls int
	sent         []string
	messages     []string
	failFiles    map[string]bool
}

func newBotServer(t *testing.T) *botServer {
	bs := &botServer{failFiles: make(map[string]bool)}
	bs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getChat"):
			bs.getChatCalls++
			w.Write([]byte(`{"ok":true,"result":{"id":555,"type":"private"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			bs.messages = append(bs.messages, payload["text"])
			w.Write([]byte(`{"ok":true,"result":{"message_id":2,"chat":{"id":555,"type":"private"}}}`))
		case strings.HasSuffix(r.URL.Path, "/sendDocument"):
			require.NoError(t, r.ParseMultipartForm(1<<20))
			_, header, err := r.FormFile("document")
			require.NoError(t, err)
			if bs.failFiles[header.Filename] {
				w.Write([]byte(`{"ok":false,"error_code":500,"description":"internal error"}`))
				return
			}
			bs.sent = append(bs.sent, header.Filename)
			w.Write([]byte(`{"ok":true,"result":{"message_id":1,"chat":{"id":555,"type":"private"}}}`))
		default:
			t.Fatalf("unexpected request: %s", r.URL.Path)
		}
	}))
	return bs
}

func newDispatcher(bs *botServer, store *storage.Store, maxRetries int) *delivery.Dispatcher {
	client := telegram.NewClient(bs.URL, "test-token")
	return delivery.NewDispatcher(client, store, maxRetries, 0)
}

func TestDispatcher_SendsEveryFile(t *testing.T) {
	store := storage.NewMem()
	require.NoError(t, store.Write("a.dst", []byte("data-a")))
	require.NoError(t, store.Write("b.pes", []byte("data-b")))

	order := multiItemOrder(linkedClient(),
		patternWithFiles("Rose Border", "a.dst"),
		patternWithFiles("Leaf Motif", "b.pes"),
	)

	bs := newBotServer(t)
	defer bs.Close()

	result := newDispatcher(bs, store, 3).Dispatch(order, nil)

	assert.True(t, result.OK)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 1, bs.getChatCalls, "destination is verified once before sending")
	assert.Equal(t, []string{"a.dst", "b.pes"}, bs.sent)
	require.Len(t, bs.messages, 1)
	assert.Contains(t, bs.messages[0], "2 file(s) delivered")
	require.Len(t, result.Attempts, 2)
	assert.True(t, result.Attempts[0].Success)
	assert.True(t, result.Attempts[1].Success)
}

func TestDispatcher_FailureOnSecondFile(t *testing.T) {
	store := storage.NewMem()
	require.NoError(t, store.Write("a.dst", []byte("data-a")))
	require.NoError(t, store.Write("b.pes", []byte("data-b")))
	require.NoError(t, store.Write("c.jef", []byte("data-c")))

	order := multiItemOrder(linkedClient(),
		patternWithFiles("First", "a.dst"),
		patternWithFiles("Second", "b.pes"),
		patternWithFiles("Third", "c.jef"),
	)

	bs := newBotServer(t)
	defer bs.Close()
	bs.failFiles["b.pes"] = true

	result := newDispatcher(bs, store, 3).Dispatch(order, nil)

	assert.False(t, result.OK)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, "b.pes", result.FailedFile)
	// One successful send plus three exhausted retries; the third file is
	// never attempted.
	require.Len(t, result.Attempts, 4)
	assert.True(t, result.Attempts[0].Success)
	for _, attempt := range result.Attempts[1:] {
		assert.False(t, attempt.Success)
		assert.Equal(t, "b.pes", attempt.FilePath)
	}
	assert.Equal(t, []string{"a.dst"}, bs.sent)
}

func TestDispatcher_DuplicateLineItemsSendTwice(t *testing.T) {
	store := storage.NewMem()
	require.NoError(t, store.Write("b.dst", []byte("data-b")))

	pattern := patternWithFiles("Leaf Motif", "b.dst")
	order := multiItemOrder(linkedClient(), pattern, pattern)

	bs := newBotServer(t)
	defer bs.Close()

	result := newDispatcher(bs, store, 3).Dispatch(order, nil)

	assert.True(t, result.OK)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, []string{"b.dst", "b.dst"}, bs.sent, "duplicates are redelivered, not deduplicated")
}

func TestDispatcher_SkipsAlreadyDeliveredFiles(t *testing.T) {
	store := storage.NewMem()
	require.NoError(t, store.Write("a.dst", []byte("data-a")))
	require.NoError(t, store.Write("b.pes", []byte("data-b")))

	order := multiItemOrder(linkedClient(),
		patternWithFiles("Rose Border", "a.dst"),
		patternWithFiles("Leaf Motif", "b.pes"),
	)

	bs := newBotServer(t)
	defer bs.Close()

	result := newDispatcher(bs, store, 3).Dispatch(order, map[string]bool{"a.dst": true})

	assert.True(t, result.OK)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, []string{"b.pes"}, bs.sent)
}

func TestDispatcher_RetryTreatsDuplicateCopiesAsDelivered(t *testing.T) {
	store := storage.NewMem()
	require.NoError(t, store.Write("b.dst", []byte("data-b")))

	pattern := patternWithFiles("Leaf Motif", "b.dst")
	order := multiItemOrder(linkedClient(), pattern, pattern)

	bs := newBotServer(t)
	defer bs.Close()

	// One copy went out on an earlier run. The skip set is keyed by path, so
	// the retry marks both copies of the identical file as delivered.
	result := newDispatcher(bs, store, 3).Dispatch(order, map[string]bool{"b.dst": true})

	assert.True(t, result.OK)
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 2, result.Skipped)
	assert.Empty(t, bs.sent)
}

func TestDispatcher_ChatUnreachable(t *testing.T) {
	store := storage.NewMem()
	require.NoError(t, store.Write("a.dst", []byte("data-a")))

	order := multiItemOrder(linkedClient(), patternWithFiles("Rose Border", "a.dst"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	client := telegram.NewClient(server.URL, "test-token")
	result := delivery.NewDispatcher(client, store, 3, 0).Dispatch(order, nil)

	assert.False(t, result.OK)
	assert.Equal(t, 0, result.Sent)
	assert.Contains(t, result.Error, "chat unreachable")
}
