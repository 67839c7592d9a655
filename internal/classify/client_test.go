package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// scoresResponse builds a comments:analyze response body for the given scores.
func scoresResponse(scores map[Attribute]float64) []byte {
	type summary struct {
		SummaryScore struct {
			Value float64 `json:"value"`
		} `json:"summaryScore"`
	}
	body := struct {
		AttributeScores map[Attribute]summary `json:"attributeScores"`
	}{AttributeScores: make(map[Attribute]summary)}
	for attr, v := range scores {
		var s summary
		s.SummaryScore.Value = v
		body.AttributeScores[attr] = s
	}
	data, _ := json.Marshal(body)
	return data
}

func fullScores(base float64) map[Attribute]float64 {
	out := make(map[Attribute]float64)
	for _, attr := range RequestedAttributes {
		out[attr] = base
	}
	return out
}

func TestEvaluate_ParsesScores(t *testing.T) {
	want := fullScores(0.2)
	want[Toxicity] = 0.9
	want[Flirtation] = 0.1

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in query: %s", r.URL.RawQuery)
		}
		var req struct {
			Comment struct {
				Text string `json:"text"`
			} `json:"comment"`
			RequestedAttributes map[string]struct{} `json:"requestedAttributes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Comment.Text != "some message" {
			t.Errorf("comment text = %q", req.Comment.Text)
		}
		if len(req.RequestedAttributes) != len(RequestedAttributes) {
			t.Errorf("requested %d attributes, want %d", len(req.RequestedAttributes), len(RequestedAttributes))
		}
		w.Write(scoresResponse(want))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key")
	scores, err := client.Evaluate(context.Background(), "some message")
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}

	for attr, v := range want {
		if scores[attr] != v {
			t.Errorf("scores[%s] = %v, want %v", attr, scores[attr], v)
		}
	}
}

func TestEvaluate_ToleratesExtraAttributes(t *testing.T) {
	body := fullScores(0.1)
	body["SPAM_LIKELIHOOD"] = 0.8 // not requested, must not break decoding

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(scoresResponse(body))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k")
	scores, err := client.Evaluate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if scores["SPAM_LIKELIHOOD"] != 0.8 {
		t.Errorf("extra attribute dropped, scores = %v", scores)
	}
}

func TestEvaluate_MissingAttribute(t *testing.T) {
	body := fullScores(0.1)
	delete(body, Flirtation)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(scoresResponse(body))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k")
	_, err := client.Evaluate(context.Background(), "hi")
	if !errors.Is(err, ErrMissingAttributes) {
		t.Fatalf("Evaluate() error = %v, want ErrMissingAttributes", err)
	}
}

func TestEvaluate_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k")
	if _, err := client.Evaluate(context.Background(), "hi"); err == nil {
		t.Fatal("Evaluate() succeeded on HTTP 429, want error")
	}
}

func TestEvaluate_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{not json")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k")
	if _, err := client.Evaluate(context.Background(), "hi"); err == nil {
		t.Fatal("Evaluate() succeeded on malformed body, want error")
	}
}

func TestEvaluate_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(scoresResponse(fullScores(0.1)))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(srv.URL, "k")
	if _, err := client.Evaluate(ctx, "hi"); err == nil {
		t.Fatal("Evaluate() succeeded with cancelled context, want error")
	}
}

func TestScoresMaxExcluding(t *testing.T) {
	tests := []struct {
		name   string
		scores Scores
		skip   Attribute
		want   float64
	}{
		{"skips flirtation", Scores{Toxicity: 0.4, Flirtation: 0.9}, Flirtation, 0.4},
		{"picks max", Scores{Toxicity: 0.4, Threat: 0.7, Flirtation: 0.1}, Flirtation, 0.7},
		{"empty", Scores{}, Flirtation, 0},
		{"only skipped", Scores{Flirtation: 0.99}, Flirtation, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.scores.MaxExcluding(tt.skip); got != tt.want {
				t.Errorf("MaxExcluding(%s) = %v, want %v", tt.skip, got, tt.want)
			}
		})
	}
}

func TestScoresSorted(t *testing.T) {
	s := Scores{Toxicity: 0.1, Flirtation: 0.2, IdentityAttack: 0.3}
	attrs := s.Sorted()
	if len(attrs) != 3 {
		t.Fatalf("Sorted() returned %d attributes, want 3", len(attrs))
	}
	for i := 1; i < len(attrs); i++ {
		if attrs[i-1] >= attrs[i] {
			t.Errorf("Sorted() not in order: %v", attrs)
		}
	}
}
