package remote

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"polyglot/internal/collab"
)

type translateRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"source_language"`
}

type translateResponse struct {
	Success      bool              `json:"success"`
	Translations map[string]string `json:"translations"`
	Error        string            `json:"error"`
}

// Language is a column the server is configured with.
type Language struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HTTPTranslator asks the server to translate a column's text.
type HTTPTranslator struct {
	http *resty.Client
}

// NewHTTPTranslator creates a translator for the server at baseURL. timeout
// bounds each request on top of the caller's context.
func NewHTTPTranslator(baseURL string, timeout time.Duration) *HTTPTranslator {
	return &HTTPTranslator{http: newRESTClient(baseURL, timeout)}
}

// Translate implements collab.Translator. Failures the server reports come
// back as *collab.ProviderError, everything else wraps collab.ErrNetwork.
func (t *HTTPTranslator) Translate(ctx context.Context, text, source string) (map[string]string, error) {
	var resp translateResponse
	r, err := t.http.R().
		SetContext(ctx).
		SetBody(translateRequest{Text: text, SourceLanguage: source}).
		SetResult(&resp).
		SetError(&resp).
		Post(translatePath)
	if err != nil {
		return nil, networkError("translate", err)
	}
	if r.IsError() || !resp.Success {
		if resp.Error == "" {
			if r.StatusCode() >= 500 || r.IsSuccess() {
				return nil, &collab.ProviderError{Message: r.Status()}
			}
			return nil, statusError("translate", r, nil)
		}
		return nil, &collab.ProviderError{Message: resp.Error}
	}
	if resp.Translations == nil {
		resp.Translations = map[string]string{}
	}
	return resp.Translations, nil
}

// Languages returns the server's columns in display order.
func (t *HTTPTranslator) Languages(ctx context.Context) ([]Language, error) {
	var out []Language
	var apiErr apiError
	r, err := t.http.R().SetContext(ctx).SetResult(&out).SetError(&apiErr).Get(languagesPath)
	if err != nil {
		return nil, networkError("languages", err)
	}
	if r.IsError() {
		return nil, statusError("languages", r, &apiErr)
	}
	return out, nil
}
