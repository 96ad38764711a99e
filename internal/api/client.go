package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// APIError는 API 서버가 반환한 에러 응답입니다.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error [%d]: %s", e.StatusCode, e.Detail)
}

// Client는 forge HTTP API 클라이언트입니다.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientOption은 Client 옵션입니다.
type ClientOption func(*Client)

// WithHTTPClient는 HTTP 클라이언트를 설정합니다.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger는 로거를 설정합니다.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient는 새 API 클라이언트를 생성합니다.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second, // run/test는 샌드박스 타임아웃만큼 걸릴 수 있음
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health는 서버 상태를 조회합니다.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var result HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListProjects는 프로젝트 목록을 조회합니다.
func (c *Client) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	var result []ProjectSummary
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateProject는 프로젝트를 생성합니다.
func (c *Client) CreateProject(ctx context.Context, req *CreateProjectRequest) (*CreateProjectResponse, error) {
	var result CreateProjectResponse
	if err := c.do(ctx, http.MethodPost, "/projects", req, &result); err != nil {
		return nil, err
	}
	c.logger.Info("프로젝트 생성됨", zap.Int64("project_id", result.ID), zap.String("name", result.Name))
	return &result, nil
}

// SendMessage는 프로젝트 채팅에 메시지 하나를 추가합니다.
func (c *Client) SendMessage(ctx context.Context, projectID int64, req *MessageRequest) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/projects/%d/chat", projectID), req, nil)
}

// ListMessages는 프로젝트 채팅 기록을 조회합니다.
func (c *Client) ListMessages(ctx context.Context, projectID int64) ([]MessageResponse, error) {
	var result []MessageResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/projects/%d/chat", projectID), nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Run은 프로젝트 샌드박스에서 명령을 실행합니다.
func (c *Client) Run(ctx context.Context, projectID int64, command string) (*RunResponse, error) {
	var result RunResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/projects/%d/run", projectID), &RunRequest{Command: command}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do는 요청을 보내고 out이 nil이 아니면 응답 본문을 디코딩합니다.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.buildRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("요청 실패: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.handleErrorResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("응답 파싱 실패: %w", err)
	}
	return nil
}

func (c *Client) buildRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("요청 바디 직렬화 실패: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("요청 생성 실패: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) handleErrorResponse(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)

	var payload ErrorResponse
	if err := json.Unmarshal(data, &payload); err == nil && payload.Detail != "" {
		return &APIError{StatusCode: resp.StatusCode, Detail: payload.Detail}
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Detail:     fmt.Sprintf("HTTP 에러 [%d]", resp.StatusCode),
	}
}
