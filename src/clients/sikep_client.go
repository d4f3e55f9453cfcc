package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sikep-admin-svc/src/internal/config"
	"sikep-admin-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	officialsPath = "/admin/pejabat-struktural"
	employeesPath = "/admin/employees"
)

// SikepClient handles communication with the SIKep REST backend.
type SikepClient struct {
	baseURL    string
	httpClient *http.Client
}

// envelope is the backend's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NewSikepClient creates new backend client
func NewSikepClient(cfg *config.Configuration) *SikepClient {
	return &SikepClient{
		baseURL: strings.TrimRight(cfg.Backend.URL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Backend.Timeout) * time.Second,
		},
	}
}

// Login exchanges credentials for a bearer token.
func (c *SikepClient) Login(ctx context.Context, creds models.Credentials) (*models.LoginResult, error) {
	var result models.LoginResult
	if err := c.do(ctx, http.MethodPost, "/login", "", creds, &result); err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, fmt.Errorf("backend login response carried no token")
	}
	return &result, nil
}

// WithToken scopes the client to one bearer token.
func (c *SikepClient) WithToken(token string) *SikepAPI {
	return &SikepAPI{client: c, token: token}
}

// SikepAPI is a SikepClient bound to the bearer token of one session.
type SikepAPI struct {
	client *SikepClient
	token  string
}

func (a *SikepAPI) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := a.client.do(ctx, http.MethodGet, "/auth/me", a.token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *SikepAPI) Logout(ctx context.Context) error {
	return a.client.do(ctx, http.MethodPost, "/logout", a.token, nil, nil)
}

func (a *SikepAPI) ListOfficials(ctx context.Context) ([]models.StructuralOfficial, error) {
	var officials []models.StructuralOfficial
	if err := a.client.do(ctx, http.MethodGet, officialsPath, a.token, nil, &officials); err != nil {
		return nil, err
	}
	return officials, nil
}

func (a *SikepAPI) CreateOfficial(ctx context.Context, req models.OfficialRequest) (*models.StructuralOfficial, error) {
	var official models.StructuralOfficial
	if err := a.client.do(ctx, http.MethodPost, officialsPath, a.token, req, &official); err != nil {
		return nil, err
	}
	return &official, nil
}

func (a *SikepAPI) UpdateOfficial(ctx context.Context, id int64, req models.OfficialRequest) (*models.StructuralOfficial, error) {
	var official models.StructuralOfficial
	path := fmt.Sprintf("%s/%d", officialsPath, id)
	if err := a.client.do(ctx, http.MethodPut, path, a.token, req, &official); err != nil {
		return nil, err
	}
	return &official, nil
}

func (a *SikepAPI) DeleteOfficial(ctx context.Context, id int64) error {
	path := fmt.Sprintf("%s/%d", officialsPath, id)
	return a.client.do(ctx, http.MethodDelete, path, a.token, nil, nil)
}

// ListAvailableEmployees returns employees eligible for promotion.
func (a *SikepAPI) ListAvailableEmployees(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	if err := a.client.do(ctx, http.MethodGet, officialsPath+"/available", a.token, nil, &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

// Subordinates returns everyone reporting, directly or not, to the given employee.
func (a *SikepAPI) Subordinates(ctx context.Context, employeeID int64) ([]models.Subordinate, error) {
	var subordinates []models.Subordinate
	path := fmt.Sprintf("%s/%d/bawahan", officialsPath, employeeID)
	if err := a.client.do(ctx, http.MethodGet, path, a.token, nil, &subordinates); err != nil {
		return nil, err
	}
	return subordinates, nil
}

func (a *SikepAPI) AssignSupervisor(ctx context.Context, employeeID, supervisorID int64) error {
	path := fmt.Sprintf("%s/%d/atasan", employeesPath, employeeID)
	body := models.SupervisorRequest{SupervisorID: supervisorID}
	return a.client.do(ctx, http.MethodPut, path, a.token, body, nil)
}

func (a *SikepAPI) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	if err := a.client.do(ctx, http.MethodGet, employeesPath, a.token, nil, &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

// ListUnassignedEmployees returns the pool of employees with no supervisor.
func (a *SikepAPI) ListUnassignedEmployees(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	if err := a.client.do(ctx, http.MethodGet, employeesPath+"/tanpa-atasan", a.token, nil, &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

func (a *SikepAPI) AssignActing(ctx context.Context, employeeID int64, req models.ActingRequest) error {
	path := fmt.Sprintf("/employees/%d/plt", employeeID)
	return a.client.do(ctx, http.MethodPut, path, a.token, req, nil)
}

func (a *SikepAPI) RemoveActing(ctx context.Context, employeeID int64) error {
	path := fmt.Sprintf("/employees/%d/plt", employeeID)
	return a.client.do(ctx, http.MethodDelete, path, a.token, nil, nil)
}

func (c *SikepClient) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": method,
			"path":   path,
		}).Error("Backend request failed")
		return fmt.Errorf("%w: %v", models.ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", models.ErrBackendUnreachable, err)
	}

	logrus.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
		"status": resp.StatusCode,
	}).Debug("Backend request completed")

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	// A 401 on a bearer call means the session token was revoked. Without a
	// token it is a rejected login and keeps the backend's message.
	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		return models.ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := env.Message
		if decodeErr != nil || message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &models.BackendError{Status: resp.StatusCode, Message: message}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
