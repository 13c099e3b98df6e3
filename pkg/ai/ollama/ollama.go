package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/Raghavvram/KnowledgeBaseUsingGraphsRelation/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// TextOllamaClient implements the ai.TextGenerator interface using Ollama as
// the backend, for locally-hosted models.
type TextOllamaClient struct {
	answerModel   string
	analysisModel string

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client

	Client *api.Client
}

// NewTextOllamaClientParams contains configuration options for creating a new TextOllamaClient.
type NewTextOllamaClientParams struct {
	AnswerModel   string
	AnalysisModel string

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewTextOllamaClient creates a new Ollama-based text generator connected to
// the server at BaseURL (or the local default if empty).
func NewTextOllamaClient(
	params NewTextOllamaClientParams,
) (*TextOllamaClient, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	} else {
		u, err = url.Parse("http://127.0.0.1:11434")
		if err != nil {
			return nil, err
		}
	}

	headers := map[string]string{}
	if params.ApiKey != "" {
		headers["Authorization"] = "Bearer " + params.ApiKey
	}
	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: headers,
			rt:      http.DefaultTransport,
		},
	}

	maxReq := params.MaxConcurrentRequests
	if maxReq <= 0 {
		maxReq = 4
	}

	return &TextOllamaClient{
		answerModel:   params.AnswerModel,
		analysisModel: params.AnalysisModel,

		reqLock: semaphore.NewWeighted(maxReq),

		baseURL:    u,
		apiKey:     params.ApiKey,
		httpClient: httpClient,

		Client: api.NewClient(u, httpClient),
	}, nil
}
