package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/terraincognita07/meditrack/internal/reminder"
)

const (
	defaultTimeout = 8 * time.Second
	// medicineBatchLimit bounds the single catalog fetch per recomputation.
	medicineBatchLimit = 500
)

// ErrUnauthorized is returned when the API rejects the credential. It is the
// reminder package's sentinel so the scheduler recognizes it directly.
var ErrUnauthorized = reminder.ErrUnauthorized

// APIError is any other non-2xx answer.
type APIError struct {
	Status  int
	Message string
}

func (err *APIError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("api returned status %d", err.Status)
	}
	return fmt.Sprintf("api returned status %d: %s", err.Status, err.Message)
}

type User struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Options struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	// OnUnauthorized runs after a 401 has cleared the credential.
	OnUnauthorized func()
}

// Client talks to the meditrack HTTP API with a bearer credential.
type Client struct {
	baseURL        *url.URL
	httpClient     *http.Client
	onUnauthorized func()

	mu    sync.RWMutex
	token string
}

func New(options Options) (*Client, error) {
	baseURL, err := url.Parse(strings.TrimRight(strings.TrimSpace(options.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if (baseURL.Scheme != "http" && baseURL.Scheme != "https") || baseURL.Host == "" {
		return nil, fmt.Errorf("api url must be an absolute http(s) url, got %q", options.BaseURL)
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:        baseURL,
		httpClient:     httpClient,
		onUnauthorized: options.OnUnauthorized,
		token:          options.Token,
	}, nil
}

func (client *Client) Token() string {
	client.mu.RLock()
	defer client.mu.RUnlock()
	return client.token
}

func (client *Client) SetToken(token string) {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.token = token
}

// ResolveURL turns a relative path returned by the API, such as a medicine
// image, into an absolute URL on the API origin.
func (client *Client) ResolveURL(reference string) string {
	parsed, err := url.Parse(reference)
	if err != nil || parsed.IsAbs() {
		return reference
	}
	return client.baseURL.ResolveReference(parsed).String()
}

func (client *Client) Login(ctx context.Context, email string, password string) (AuthResult, error) {
	var result AuthResult
	payload := map[string]string{"email": email, "password": password}
	if err := client.do(ctx, http.MethodPost, "/api/auth/login", payload, &result); err != nil {
		return AuthResult{}, err
	}
	client.SetToken(result.Token)
	return result, nil
}

func (client *Client) CurrentUser(ctx context.Context) (User, error) {
	var user User
	err := client.do(ctx, http.MethodGet, "/api/auth/me", nil, &user)
	return user, err
}

func (client *Client) ActiveSchedules(ctx context.Context) ([]reminder.ScheduleRecord, error) {
	schedules := make([]reminder.ScheduleRecord, 0)
	if err := client.do(ctx, http.MethodGet, "/api/schedules?active=true", nil, &schedules); err != nil {
		return nil, fmt.Errorf("list active schedules: %w", err)
	}
	return schedules, nil
}

func (client *Client) TodayIntakes(ctx context.Context) ([]reminder.Intake, error) {
	intakes := make([]reminder.Intake, 0)
	if err := client.do(ctx, http.MethodGet, "/api/intakes/today", nil, &intakes); err != nil {
		return nil, fmt.Errorf("list today's intakes: %w", err)
	}
	return intakes, nil
}

func (client *Client) Medicines(ctx context.Context) ([]reminder.Medicine, error) {
	var page struct {
		Items []reminder.Medicine `json:"items"`
	}
	path := fmt.Sprintf("/api/medicines?limit=%d", medicineBatchLimit)
	if err := client.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	for index := range page.Items {
		if page.Items[index].Image != "" {
			page.Items[index].Image = client.ResolveURL(page.Items[index].Image)
		}
	}
	return page.Items, nil
}

func (client *Client) AppendNotification(ctx context.Context, notification reminder.Notification) error {
	if err := client.do(ctx, http.MethodPost, "/api/notifications", notification, nil); err != nil {
		return fmt.Errorf("append notification: %w", err)
	}
	return nil
}

func (client *Client) do(ctx context.Context, method string, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, client.baseURL.String()+path, body)
	if err != nil {
		return err
	}
	request.Header.Set("Accept", "application/json")
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token := client.Token(); token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, 1024))
		client.clearCredential()
		return fmt.Errorf("%w: %s %s", ErrUnauthorized, method, path)
	}
	if response.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(response)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (client *Client) clearCredential() {
	client.SetToken("")
	if client.onUnauthorized != nil {
		client.onUnauthorized()
	}
}

func decodeAPIError(response *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(response.Body, 1024))
	var payload struct {
		Error string `json:"error"`
	}
	message := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		message = payload.Error
	}
	return &APIError{Status: response.StatusCode, Message: message}
}

// IsUnauthorized reports whether err came from a rejected credential.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
