package vertex

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/google"

	"github.com/kirillkom/civic-issues/internal/infrastructure/resilience"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

type Config struct {
	ProjectID string
	Location  string
	Model     string
	// Endpoint overrides the regional host, e.g. for tests or a proxy.
	Endpoint string
	Timeout  time.Duration
}

// Client calls the Gemini generateContent REST method on Vertex AI.
type Client struct {
	endpoint   string
	projectID  string
	location   string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(cfg Config, httpClient *http.Client, executor *resilience.Executor) *Client {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s-aiplatform.googleapis.com", cfg.Location)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.Timeout > 0 {
		httpClient.Timeout = cfg.Timeout
	}
	return &Client{
		endpoint:   endpoint,
		projectID:  cfg.ProjectID,
		location:   cfg.Location,
		model:      model,
		httpClient: httpClient,
		executor:   executor,
	}
}

// NewAuthorizedHTTPClient returns an HTTP client carrying Application
// Default Credentials.
func NewAuthorizedHTTPClient(ctx context.Context) (*http.Client, error) {
	client, err := google.DefaultClient(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("vertex default credentials: %w", err)
	}
	return client, nil
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *Client) GenerateFromImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	request := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: prompt},
				{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
			},
		}},
		GenerationConfig: generationConfig{Temperature: 0},
	}

	var response generateResponse
	call := func(callCtx context.Context) error {
		response = generateResponse{}
		return c.postJSON(callCtx, c.generatePath(), request, &response, "generate")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "vertex.generate", call, classifyVertexError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapVertexError("vertex generate", err)
	}

	if len(response.Candidates) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for _, p := range response.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

func (c *Client) generatePath() string {
	return fmt.Sprintf("/v1/projects/%s/locations/%s/publishers/google/models/%s:generateContent",
		c.projectID, c.location, c.model)
}
