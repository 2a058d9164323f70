package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mentichat/pkg/logger"
)

// inferenceRequest mirrors the hosted inference request body.
type inferenceRequest struct {
	Inputs  string `json:"inputs"`
	Options struct {
		WaitForModel bool `json:"wait_for_model"`
	} `json:"options"`
}

// MockInference imitates a hosted inference endpoint for local testing.
// Models named with an "object/" prefix answer with a bare object, "odd/"
// with an unrecognized shape; everything else answers with a list.
type MockInference struct {
	Latency time.Duration
}

func (m *MockInference) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || !strings.HasPrefix(r.URL.Path, "/models/") {
		http.NotFound(w, r)
		return
	}
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		http.Error(w, `{"error":"Authorization header is required"}`, http.StatusUnauthorized)
		return
	}

	var req inferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	time.Sleep(m.Latency)

	model := strings.TrimPrefix(r.URL.Path, "/models/")
	reply := fmt.Sprintf("Hello! this is a mock reply from %s to: %s", model, req.Inputs)

	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasPrefix(model, "object/"):
		json.NewEncoder(w).Encode(map[string]string{"generated_text": reply})
	case strings.HasPrefix(model, "odd/"):
		json.NewEncoder(w).Encode(map[string]int{"foo": 1})
	default:
		json.NewEncoder(w).Encode([]map[string]string{{"generated_text": reply}})
	}
}

func main() {
	addr := flag.String("addr", ":8081", "listen address")
	latency := flag.Duration("latency", 500*time.Millisecond, "simulated model latency")
	flag.Parse()

	logger.Printf("[Mock] Starting mock inference endpoint on %s", *addr)
	if err := http.ListenAndServe(*addr, &MockInference{Latency: *latency}); err != nil {
		logger.Fatalf("Mock Server stopped: %v", err)
	}
}
