// Package refine streams transcript cleanup from an OpenAI-compatible chat endpoint.
package refine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	completionsPath = "/v1/chat/completions"
	maxLineBytes    = 1 << 20
	errorBodyLimit  = 512
)

var (
	// ErrTransport reports that the endpoint could not be reached or read.
	ErrTransport = errors.New("refinement transport error")
	// ErrProtocol reports a non-2xx status or an undecodable event.
	ErrProtocol = errors.New("refinement protocol error")
)

// Request is one refinement call.
type Request struct {
	SystemPrompt string
	UserText     string
	Model        string
}

// Client talks to POST {BaseURL}/v1/chat/completions with stream=true.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient returns a client; a nil httpClient uses http.DefaultClient.
func NewClient(baseURL string, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		http:    httpClient,
	}
}

// Endpoint returns the resolved completions URL.
func (c *Client) Endpoint() string {
	return c.baseURL + completionsPath
}

// Stream sends req and calls onToken for every non-empty content delta, in
// order, until the server sends [DONE] or closes the body.
func (c *Client) Stream(ctx context.Context, req Request, onToken func(string)) error {
	body, err := json.Marshal(openai.ChatCompletionRequest{
		Model:  req.Model,
		Stream: true,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserText},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", ErrProtocol, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return fmt.Errorf("%w: status %d: %s", ErrProtocol, resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	return readEvents(resp.Body, onToken)
}

// Complete returns the concatenation of every streamed token.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	var out strings.Builder
	err := c.Stream(ctx, req, func(token string) {
		out.WriteString(token)
	})
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

func readEvents(r io.Reader, onToken func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		payload = strings.TrimSpace(payload)
		if payload == "[DONE]" {
			return nil
		}
		if payload == "" {
			continue
		}

		var chunk openai.ChatCompletionStreamResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return fmt.Errorf("%w: decode event: %v", ErrProtocol, err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if token := chunk.Choices[0].Delta.Content; token != "" && onToken != nil {
			onToken(token)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: read stream: %v", ErrTransport, err)
	}
	return nil
}
