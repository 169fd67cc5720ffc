package ollama

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
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/customHttpClient"
	"github.com/akolanti/GoRAG/internal/rag/llm"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

// ErrIncompleteStream means the stream ended before a record reported done.
var ErrIncompleteStream = errors.New("ollama stream ended before done")

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type client struct {
	http    *http.Client
	baseURL string
	model   string
	trim    bool
	logger  *logger_i.Logger
}

// NewOllama streams completions from a local Ollama server. With cfg.Trim
// surrounding whitespace is removed from the answer.
func NewOllama(cfg config.GeneratorConfig) llm.Provider {
	return &client{
		http:    customHttpClient.NewClient(time.Duration(cfg.TimeoutSecs) * time.Second),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		trim:    cfg.Trim,
		logger:  logger_i.NewLogger("llm_ollama"),
	}
}

func (c *client) Generate(ctx context.Context, prompt string) (string, error) {
	log := c.logger.WithTrace(ctx)

	body, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt, Stream: true})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error("Error calling Ollama generate", "error", err)
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ollama generate: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	text, err := readStream(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	if c.trim {
		text = strings.TrimSpace(text)
	}
	return text, nil
}

// readStream concatenates the response fragments of a newline-delimited
// JSON stream until a record reports done. Blank and malformed lines are skipped.
// A stream that ends without done is ErrIncompleteStream.
func readStream(r io.Reader) (string, error) {
	var sb strings.Builder
	done := false
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk generateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		sb.WriteString(chunk.Response)
		if chunk.Done {
			done = true
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	if !done {
		return "", fmt.Errorf("%w after %d bytes", ErrIncompleteStream, sb.Len())
	}
	return sb.String(), nil
}
