package compapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// UserAPI answers authorization questions and provides competitor contact
// details. Access decisions are computed by the user service, never here.
type UserAPI interface {
	CanAdminister(ctx context.Context, userID int32, competitionID string) (bool, error)
	GetEmails(ctx context.Context, userIDs []int32) (map[int32]string, error)
}

type userClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewUserClient(baseURL, token string) UserAPI {
	return &userClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *userClient) CanAdminister(ctx context.Context, userID int32, competitionID string) (bool, error) {
	url := fmt.Sprintf("%s/api/v1/users/%d/permissions/administer/%s", c.baseURL, userID, competitionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("user service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("user service returned status %d", resp.StatusCode)
	}

	var body struct {
		Allowed bool `json:"allowed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode permission response: %w", err)
	}
	return body.Allowed, nil
}

func (c *userClient) GetEmails(ctx context.Context, userIDs []int32) (map[int32]string, error) {
	payload, err := json.Marshal(map[string][]int32{"ids": userIDs})
	if err != nil {
		return nil, err
	}
	url := c.baseURL + "/api/v1/users/emails"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user service returned status %d", resp.StatusCode)
	}

	var users []struct {
		ID    int32  `json:"id"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("failed to decode user emails: %w", err)
	}
	emails := make(map[int32]string, len(users))
	for _, u := range users {
		emails[u.ID] = u.Email
	}
	return emails, nil
}
