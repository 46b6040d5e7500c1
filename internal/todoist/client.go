package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	pkghttp "wa_scheduler/pkg/http"

	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://api.todoist.com/rest/v2"

// Client 是基于 Todoist REST API v2 的 Port 实现。
// 底层 HTTP 客户端带熔断保护，连续的服务端错误会让后续调用快速失败。
type Client struct {
	baseURL string
	http    *pkghttp.Client
}

// NewClient 创建一个 Todoist 客户端。
func NewClient(httpClient *pkghttp.Client) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		http:    httpClient,
	}
}

// NewClientWithBaseURL 创建一个指向指定地址的 Todoist 客户端，测试用。
func NewClientWithBaseURL(httpClient *pkghttp.Client, baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
	}
}

// CreateTask 创建一个提醒任务。
func (c *Client) CreateTask(ctx context.Context, credential string, in *TaskInput) (*TaskRef, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal task payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tasks", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build task request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("todoist create task: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("todoist API error: %d - %s", resp.StatusCode, string(raw))
	}

	var task struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, fmt.Errorf("decode task response: %w", err)
	}

	return &TaskRef{TaskID: task.ID, URL: task.URL}, nil
}

// DeleteTask 删除一个提醒任务。
func (c *Client) DeleteTask(ctx context.Context, credential string, taskID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/tasks/"+taskID, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("todoist delete task: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("todoist API error: %d - %s", resp.StatusCode, string(raw))
	}
	return nil
}

// --- OAuth 边界 ---

// OAuthConfig 持有 Todoist OAuth 的交换参数。
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// oauthEndpoint 是 Todoist 的 OAuth2 端点。
var oauthEndpoint = oauth2.Endpoint{
	AuthURL:  "https://todoist.com/oauth/authorize",
	TokenURL: "https://todoist.com/oauth/access_token",
}

// AuthCodeURL 生成 Todoist 授权页 URL；state 携带发起授权的用户手机号。
func (o *OAuthConfig) AuthCodeURL(state string) string {
	cfg := o.oauth2Config()
	return cfg.AuthCodeURL(state)
}

// Exchange 用授权码换取访问令牌。
func (o *OAuthConfig) Exchange(ctx context.Context, code string) (string, error) {
	cfg := o.oauth2Config()
	token, err := cfg.Exchange(ctx, code, oauth2.SetAuthURLParam("redirect_uri", o.RedirectURI))
	if err != nil {
		return "", fmt.Errorf("exchange todoist code: %w", err)
	}
	return token.AccessToken, nil
}

func (o *OAuthConfig) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     o.ClientID,
		ClientSecret: o.ClientSecret,
		RedirectURL:  o.RedirectURI,
		Scopes:       []string{"data:read_write"},
		Endpoint:     oauthEndpoint,
	}
}
