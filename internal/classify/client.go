// Package classify scores message text for abuse risk through an external
// text-classification HTTP service (a Perspective-style comments:analyze
// endpoint). The engine treats the scores as opaque input: it never computes
// them, and a failed or malformed response is reported as a typed error so
// the caller can apply its fail-open policy.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"
)

// Attribute names a risk attribute scored by the classification service.
type Attribute string

// The fixed attribute set the engine requests on every evaluation.
const (
	SevereToxicity Attribute = "SEVERE_TOXICITY"
	Profanity      Attribute = "PROFANITY"
	IdentityAttack Attribute = "IDENTITY_ATTACK"
	Threat         Attribute = "THREAT"
	Toxicity       Attribute = "TOXICITY"
	Flirtation     Attribute = "FLIRTATION"
)

// RequestedAttributes lists every attribute the engine asks the service for.
// A response missing any of these is rejected with ErrMissingAttributes.
var RequestedAttributes = []Attribute{
	SevereToxicity,
	Profanity,
	IdentityAttack,
	Threat,
	Toxicity,
	Flirtation,
}

// Scores maps attributes to values in [0,1]. Extra attributes returned by the
// service are carried through untouched.
type Scores map[Attribute]float64

// MaxExcluding returns the highest score among all attributes except skip.
// Returns 0 for an empty score set.
func (s Scores) MaxExcluding(skip Attribute) float64 {
	max := 0.0
	for attr, v := range s {
		if attr == skip {
			continue
		}
		if v > max {
			max = v
		}
	}
	return max
}

// Sorted returns the attributes in lexical order, for stable formatting.
func (s Scores) Sorted() []Attribute {
	attrs := make([]Attribute, 0, len(s))
	for attr := range s {
		attrs = append(attrs, attr)
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i] < attrs[j] })
	return attrs
}

// Evaluator scores message text for abuse risk.
type Evaluator interface {
	Evaluate(ctx context.Context, text string) (Scores, error)
}

// ErrMissingAttributes indicates the service responded successfully but the
// response lacked one or more of the requested attributes.
var ErrMissingAttributes = errors.New("classify: response missing requested attributes")

// DefaultTimeout bounds a single classification call when the caller does not
// supply a tighter deadline.
const DefaultTimeout = 10 * time.Second

// Client calls the classification HTTP endpoint. It performs exactly one
// request per Evaluate call — no retries — so a slow or failing service
// degrades to the caller's fail-open path instead of amplifying load.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient returns a Client for the given endpoint and API key.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// analyzeRequest mirrors the service's comments:analyze request body.
type analyzeRequest struct {
	Comment struct {
		Text string `json:"text"`
	} `json:"comment"`
	RequestedAttributes map[Attribute]struct{} `json:"requestedAttributes"`
	DoNotStore          bool                   `json:"doNotStore"`
}

// analyzeResponse mirrors the subset of the response the engine consumes.
type analyzeResponse struct {
	AttributeScores map[Attribute]struct {
		SummaryScore struct {
			Value float64 `json:"value"`
		} `json:"summaryScore"`
	} `json:"attributeScores"`
}

// Evaluate sends text to the classification service and returns the score for
// every requested attribute. All failure modes — transport, HTTP status,
// malformed body, missing attributes — come back as errors; the method never
// fabricates scores.
func (c *Client) Evaluate(ctx context.Context, text string) (Scores, error) {
	reqBody := analyzeRequest{DoNotStore: true}
	reqBody.Comment.Text = text
	reqBody.RequestedAttributes = make(map[Attribute]struct{}, len(RequestedAttributes))
	for _, attr := range RequestedAttributes {
		reqBody.RequestedAttributes[attr] = struct{}{}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("classify: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"?key="+c.apiKey, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("classify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("classify: unexpected status %d", resp.StatusCode)
	}

	var decoded analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("classify: decode response: %w", err)
	}

	scores := make(Scores, len(decoded.AttributeScores))
	for attr, entry := range decoded.AttributeScores {
		scores[attr] = entry.SummaryScore.Value
	}

	// Extra attributes are fine; missing requested ones are not.
	var missing []Attribute
	for _, attr := range RequestedAttributes {
		if _, ok := scores[attr]; !ok {
			missing = append(missing, attr)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingAttributes, missing)
	}

	return scores, nil
}
