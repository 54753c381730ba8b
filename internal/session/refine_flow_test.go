package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rbright/murmur/internal/refine"
	"github.com/stretchr/testify/require"
)

func completionServer(t *testing.T, status int, tokens ...string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = io.WriteString(w, `{"error":{"message":"upstream down"}}`)
			return
		}
		flusher, _ := w.(http.Flusher)
		for _, token := range tokens {
			content, _ := json.Marshal(token)
			_, _ = io.WriteString(w, `data: {"id":"c1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":`+string(content)+`}}]}`+"\n\n")
			if flusher != nil {
				flusher.Flush()
			}
		}
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newStreamingRefiner(srv *httptest.Server) *refine.Refiner {
	client := refine.NewClient(srv.URL, "sk-test", srv.Client())
	return refine.NewRefiner(client, refine.DefaultPreferences(), "gpt-4o-mini", 2*time.Second)
}

func TestStopPastesStreamedTokensVerbatim(t *testing.T) {
	srv := completionServer(t, http.StatusOK, "Hello", ", ", "world", ".")

	h := newHarness(StopResult{Transcript: "hello world"})
	h.ctrl = NewController(nil, Deps{
		Transcriber: h.transcriber,
		Refiner:     newStreamingRefiner(srv),
		Committer:   h.committer,
		History:     h.history,
		Indicator:   h.indicator,
	})
	h.startRecording(t)

	result := h.ctrl.StopAndFinalize(context.Background())
	require.NoError(t, result.Err)
	require.Equal(t, []string{"Hello, world."}, h.committer.committed())
	require.True(t, result.Entry.UsedRefinement)
	require.Equal(t, "hello world", result.Entry.RawTranscript)
	require.Equal(t, "Hello, world.", result.Entry.FinalText)
}

func TestStopPastesRawTranscriptWhenRefinementEndpointFails(t *testing.T) {
	srv := completionServer(t, http.StatusBadGateway)

	h := newHarness(StopResult{Transcript: "hello world"})
	h.ctrl = NewController(nil, Deps{
		Transcriber: h.transcriber,
		Refiner:     newStreamingRefiner(srv),
		Committer:   h.committer,
		History:     h.history,
		Indicator:   h.indicator,
	})
	h.startRecording(t)

	result := h.ctrl.StopAndFinalize(context.Background())
	require.NoError(t, result.Err)
	require.Equal(t, []string{"hello world"}, h.committer.committed())
	require.False(t, result.Entry.UsedRefinement)
	require.Len(t, h.history.appended(), 1)
}

func TestStopKeepsSurroundingWhitespaceFromRefinement(t *testing.T) {
	srv := completionServer(t, http.StatusOK, " Hello", " world.", "\n")

	h := newHarness(StopResult{Transcript: "hello world"})
	h.ctrl = NewController(nil, Deps{
		Transcriber: h.transcriber,
		Refiner:     newStreamingRefiner(srv),
		Committer:   h.committer,
		Indicator:   h.indicator,
	})
	h.startRecording(t)

	result := h.ctrl.StopAndFinalize(context.Background())
	require.NoError(t, result.Err)
	require.Equal(t, []string{" Hello world.\n"}, h.committer.committed())
	require.True(t, result.Entry.UsedRefinement)
}
