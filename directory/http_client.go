// directory/http_client.go
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient talks to the directory's REST admin surface. Error responses
// carry a machine code that maps straight onto APIError, which is what the
// retry policy classifies on.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, dest interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("directory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.toAPIError(resp)
	}

	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *HTTPClient) toAPIError(resp *http.Response) error {
	var body apiErrorBody
	data, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(data, &body)

	code := ErrorCode(body.Code)
	if code == "" {
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			code = ErrCodeThrottling
		case http.StatusConflict:
			code = ErrCodeConflict
		case http.StatusNotFound:
			code = ErrCodeNotFound
		case http.StatusForbidden, http.StatusUnauthorized:
			code = ErrCodeAccessDenied
		case http.StatusBadRequest:
			code = ErrCodeValidation
		case http.StatusServiceUnavailable:
			code = ErrCodeServiceUnavailable
		default:
			code = ErrCodeInternal
		}
	}
	message := body.Message
	if message == "" {
		message = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return &APIError{Code: code, Message: message}
}

func (c *HTTPClient) ListUsers(ctx context.Context, nameFilter string) ([]Principal, error) {
	var users []Principal
	query := url.Values{"name": {nameFilter}}
	if err := c.do(ctx, http.MethodGet, "/v1/users", query, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *HTTPClient) ListGroups(ctx context.Context, nameFilter string) ([]Principal, error) {
	var groups []Principal
	query := url.Values{"name": {nameFilter}}
	if err := c.do(ctx, http.MethodGet, "/v1/groups", query, nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (c *HTTPClient) ListPermissionSets(ctx context.Context) ([]PermissionSet, error) {
	var sets []PermissionSet
	if err := c.do(ctx, http.MethodGet, "/v1/permission-sets", nil, nil, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (c *HTTPClient) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := c.do(ctx, http.MethodGet, "/v1/accounts", nil, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *HTTPClient) ListAssignments(ctx context.Context, accountID, permissionSetARN string) ([]Assignment, error) {
	var assignments []Assignment
	query := url.Values{
		"account_id":         {accountID},
		"permission_set_arn": {permissionSetARN},
	}
	if err := c.do(ctx, http.MethodGet, "/v1/assignments", query, nil, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (c *HTTPClient) CreateAssignment(ctx context.Context, a Assignment) (OperationResult, error) {
	var result OperationResult
	if err := c.do(ctx, http.MethodPost, "/v1/assignments", nil, a, &result); err != nil {
		return OperationResult{}, err
	}
	return result, nil
}

func (c *HTTPClient) DeleteAssignment(ctx context.Context, a Assignment) (OperationResult, error) {
	var result OperationResult
	if err := c.do(ctx, http.MethodDelete, "/v1/assignments", nil, a, &result); err != nil {
		return OperationResult{}, err
	}
	return result, nil
}

var _ Client = (*HTTPClient)(nil)
