package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ItemSource lists candidate notifications from upstream.
type ItemSource interface {
	ListActionable(ctx context.Context, limit int) ([]Item, error)
}

// PartyResolver resolves the display label of the party an item refers to.
type PartyResolver interface {
	ResolveParty(ctx context.Context, partyID string) (string, error)
}

// HTTPSource reads appointments and users from the portal REST API. It implements both
// [ItemSource] and [PartyResolver].
//
// Authentication is expected to come from Client's transport.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

type appointmentPayload struct {
	ID      flexID    `json:"id"`
	Status  string    `json:"status"`
	Date    time.Time `json:"date"`
	UserID  flexID    `json:"userId"`
	Service string    `json:"serviceName"`
	Pet     string    `json:"petName"`
}

// flexID accepts ids sent as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be string or number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

type pagePayload struct {
	Items []appointmentPayload `json:"items"`
	Data  []appointmentPayload `json:"data"`
}

type userPayload struct {
	FullName string `json:"fullName"`
	Name     string `json:"name"`
	UserName string `json:"userName"`
}

func (s *HTTPSource) ListActionable(ctx context.Context, limit int) ([]Item, error) {
	q := url.Values{}
	q.Set("page", "1")
	q.Set("pageSize", strconv.Itoa(limit))

	body, err := s.get(ctx, "/appointments?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var rows []appointmentPayload
	if err := json.Unmarshal(body, &rows); err != nil {
		var page pagePayload
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode appointments: %w", err)
		}
		rows = page.Items
		if len(rows) == 0 {
			rows = page.Data
		}
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, Item{
			ID:        string(row.ID),
			Category:  "appointment",
			Title:     appointmentTitle(row),
			Ref:       "/appointments/" + string(row.ID),
			PartyID:   string(row.UserID),
			Status:    row.Status,
			CreatedAt: row.Date,
		})
	}
	return items, nil
}

func appointmentTitle(row appointmentPayload) string {
	parts := []string{"New appointment"}
	if row.Service != "" {
		parts = append(parts, row.Service)
	}
	if row.Pet != "" {
		parts = append(parts, "for "+row.Pet)
	}
	return strings.Join(parts, " ")
}

func (s *HTTPSource) ResolveParty(ctx context.Context, partyID string) (string, error) {
	if partyID == "" {
		return "", errors.New("empty party id")
	}
	body, err := s.get(ctx, "/users/"+url.PathEscape(partyID))
	if err != nil {
		return "", err
	}
	var user userPayload
	if err := json.Unmarshal(body, &user); err != nil {
		return "", fmt.Errorf("decode user: %w", err)
	}
	for _, label := range []string{user.FullName, user.Name, user.UserName} {
		if label = strings.TrimSpace(label); label != "" {
			return label, nil
		}
	}
	return "", errors.New("user has no display name")
}

func (s *HTTPSource) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(s.BaseURL, "/")+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return body, nil
}
