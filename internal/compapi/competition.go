// Package compapi holds the clients for the external collaborators: the
// competition metadata service and the user identity service. The
// registration core only consumes these narrow read-only interfaces.
package compapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"compreg-backend/internal/domain"
)

// CompetitionAPI resolves competition metadata: capacity, fee schedule and
// whether registration is open.
type CompetitionAPI interface {
	Find(ctx context.Context, competitionID string) (*domain.CompetitionInfo, error)
}

type competitionClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewCompetitionClient(baseURL, token string) CompetitionAPI {
	return &competitionClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *competitionClient) Find(ctx context.Context, competitionID string) (*domain.CompetitionInfo, error) {
	url := fmt.Sprintf("%s/api/v1/competitions/%s", c.baseURL, competitionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("competition service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("competition service returned status %d", resp.StatusCode)
	}

	var info domain.CompetitionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode competition info: %w", err)
	}
	return &info, nil
}
