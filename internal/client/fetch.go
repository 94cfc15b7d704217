package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	types "github.com/yungbote/signage-backend/internal/domain/signage"
)

// StateClient reads the aggregate state a display renders from.
type StateClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewStateClient(baseURL string) *StateClient {
	return &StateClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *StateClient) Snapshot(ctx context.Context) (types.Snapshot, error) {
	var snap types.Snapshot
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/api/media_with_settings", nil)
	if err != nil {
		return snap, err
	}
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return snap, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return snap, fmt.Errorf("fetch state: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snap, fmt.Errorf("decode state: %w", err)
	}
	return snap, nil
}

// SectionContent lists the assignments currently shown in key.
func SectionContent(snap types.Snapshot, key types.SectionKey) []types.Assignment {
	var out []types.Assignment
	for _, a := range snap.Assignments {
		if a.SectionKey == key {
			out = append(out, a)
		}
	}
	return out
}

// WebSocketURL derives the streaming endpoint from an http(s) base URL.
func WebSocketURL(baseURL string) string {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}
