package tokenize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"thai-search-proxy/domain"
)

// RemoteEngine calls an ML segmenter sidecar (attacut or deepcut) over
// HTTP. The models are Python-hosted; this process only ships text and
// receives tokens.
type RemoteEngine struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

// NewRemoteEngine builds a sidecar-backed engine.
func NewRemoteEngine(name, baseURL string, timeout time.Duration) *RemoteEngine {
	return &RemoteEngine{
		name:    name,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (e *RemoteEngine) Name() string { return e.name }

type remoteTokenizeRequest struct {
	Text   string `json:"text"`
	Engine string `json:"engine"`
}

type remoteTokenizeResponse struct {
	Tokens      []string  `json:"tokens"`
	Confidences []float64 `json:"confidence_scores,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Tokenize ships text to the sidecar's /tokenize endpoint.
func (e *RemoteEngine) Tokenize(ctx context.Context, text string) (*domain.TokenizationResult, error) {
	start := time.Now()
	if err := checkInput(e.name, text); err != nil {
		return nil, err
	}
	if text == "" {
		return emptyResult(e.name), nil
	}
	if e.baseURL == "" {
		return nil, &domain.TokenizationError{Engine: e.name, Kind: domain.TokenizationInternal, Err: "engine endpoint not configured"}
	}

	body, err := json.Marshal(remoteTokenizeRequest{Text: text, Engine: e.name})
	if err != nil {
		return nil, &domain.TokenizationError{Engine: e.name, Kind: domain.TokenizationInternal, Err: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/tokenize", bytes.NewReader(body))
	if err != nil {
		return nil, &domain.TokenizationError{Engine: e.name, Kind: domain.TokenizationInternal, Err: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		kind := domain.TokenizationInternal
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			kind = domain.TokenizationTimeout
		}
		return nil, &domain.TokenizationError{Engine: e.name, Kind: kind, Err: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TokenizationError{Engine: e.name, Kind: domain.TokenizationInternal, Err: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.TokenizationError{
			Engine: e.name,
			Kind:   domain.TokenizationInternal,
			Err:    fmt.Sprintf("sidecar returned %d", resp.StatusCode),
		}
	}

	var out remoteTokenizeResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &domain.TokenizationError{Engine: e.name, Kind: domain.TokenizationInternal, Err: err.Error()}
	}
	if out.Error != "" {
		return nil, &domain.TokenizationError{Engine: e.name, Kind: domain.TokenizationInternal, Err: out.Error}
	}

	res := &domain.TokenizationResult{
		OriginalText: text,
		Tokens:       out.Tokens,
		Confidences:  out.Confidences,
		Engine:       e.name,
	}
	return finish(res, start), nil
}
