package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/regkeeper/internal/client/models"
	"github.com/dmitrijs2005/regkeeper/internal/common"
	"github.com/dmitrijs2005/regkeeper/internal/logging"
)

// BearerSource yields the registry token outbound calls should carry.
type BearerSource interface {
	Bearer() (string, bool)
}

// APIResponse is the envelope the registry wraps write results in.
type APIResponse struct {
	Message   string          `json:"message"`
	Value     json.RawMessage `json:"value"`
	IsSuccess bool            `json:"isSuccess"`
	IsFailure bool            `json:"isFailure"`
	Failures  []string        `json:"failures"`
}

// Err turns an unsuccessful envelope into a *ResponseError.
func (r *APIResponse) Err() error {
	if r.IsSuccess {
		return nil
	}
	return &ResponseError{Message: r.Message, Failures: r.Failures}
}

// RegistryAPIClient calls the student registration endpoints.
type RegistryAPIClient struct {
	baseURL string
	http    HTTPDoer
	tokens  BearerSource
	log     logging.Logger
}

func NewRegistryAPIClient(baseURL string, httpClient HTTPDoer, tokens BearerSource, log logging.Logger) *RegistryAPIClient {
	return &RegistryAPIClient{baseURL: baseURL, http: httpClient, tokens: tokens, log: log}
}

// Authorized reports whether a valid bearer token is available.
func (c *RegistryAPIClient) Authorized() bool {
	_, ok := c.tokens.Bearer()
	return ok
}

// do sends one request. It fails with common.ErrAuthRequired, before any
// network traffic, when no valid bearer token is available.
func (c *RegistryAPIClient) do(ctx context.Context, method, path string, in, out any) error {
	token, ok := c.tokens.Bearer()
	if !ok {
		return common.ErrAuthRequired
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, joinURL(c.baseURL, path), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	data, err := readBody(resp)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn(ctx, "registry call failed", "method", method, "path", path, "status", resp.StatusCode)
		return &APIError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func (c *RegistryAPIClient) post(ctx context.Context, path string, payload any) (*APIResponse, error) {
	var r APIResponse
	if err := c.do(ctx, http.MethodPost, path, payload, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *RegistryAPIClient) SaveGeneralInformation(ctx context.Context, p models.GeneralInformation) (*APIResponse, error) {
	return c.post(ctx, "/api/student/saveorupdategeneralinformation", p)
}

func (c *RegistryAPIClient) SaveContactDetails(ctx context.Context, p models.ContactInformation) (*APIResponse, error) {
	return c.post(ctx, "/api/studentcontact/newsavestudentcontactdetails", p)
}

func (c *RegistryAPIClient) SaveAcademicInformation(ctx context.Context, p models.AcademicInformation) (*APIResponse, error) {
	return c.post(ctx, "/api/studentacademicinfo/newsavestudentacademicinfo", p)
}

func (c *RegistryAPIClient) UpdateApproval(ctx context.Context, p models.StudentApproval) (*APIResponse, error) {
	return c.post(ctx, "/api/student/approval", p)
}

// NewStudentList returns the raw list of newly registered students.
func (c *RegistryAPIClient) NewStudentList(ctx context.Context, instituteID int64) ([]map[string]any, error) {
	var out []map[string]any
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/student/NewstudentList/%d", instituteID), nil, &out)
	return out, err
}

// StudentInfo returns the stored record of one student.
func (c *RegistryAPIClient) StudentInfo(ctx context.Context, studentID int64) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/student/studentinfo/%d", studentID), nil, &out)
	return out, err
}

func (c *RegistryAPIClient) BankBranchesByIFSC(ctx context.Context, ifsc string) ([]models.BankBranch, error) {
	var out []models.BankBranch
	err := c.do(ctx, http.MethodGet, "/api/studentbankaccount/getbyifsc/"+url.PathEscape(ifsc), nil, &out)
	return out, err
}
