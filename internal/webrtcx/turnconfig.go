package webrtcx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// turnConfigResponse mirrors the JSON shape of the "./turn" HTTP endpoint
// (spec.md §6): an iceServers array whose entries may give urls as either
// a single string or a list.
type turnConfigResponse struct {
	ICEServers []struct {
		URLs       json.RawMessage `json:"urls"`
		Username   string          `json:"username"`
		Credential string          `json:"credential"`
	} `json:"iceServers"`
}

// FetchICEServers performs the HTTP GET spec.md §6 describes and maps the
// response onto the core's ICEServer type: entry [0] becomes the STUN
// server, entry [1] (if present) the TURN server. The core only consumes
// this endpoint; serving it is explicitly out of scope.
func FetchICEServers(ctx context.Context, client *http.Client, turnURL string) ([]ICEServer, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, turnURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("webrtcx: turn config endpoint returned %s", resp.Status)
	}

	var parsed turnConfigResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("webrtcx: malformed turn config response: %w", err)
	}

	servers := make([]ICEServer, 0, len(parsed.ICEServers))
	for _, s := range parsed.ICEServers {
		urls, err := decodeURLs(s.URLs)
		if err != nil {
			return nil, err
		}
		servers = append(servers, ICEServer{URLs: urls, Username: s.Username, Credential: s.Credential})
	}
	return servers, nil
}

// decodeURLs accepts urls as either a bare string or a string array, per
// spec.md §6 ("urls: string[] | string").
func decodeURLs(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("webrtcx: turn config urls field is neither a string nor an array: %w", err)
	}
	return []string{single}, nil
}
