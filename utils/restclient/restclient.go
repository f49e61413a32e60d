package restclient

import (
	"bytes"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// HTTPClient is the minimal client surface used by packages that need an
// injectable transport for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the shared client for plain REST calls. It retries transient
// failures; tests swap in a mock.
var (
	Client HTTPClient
)

func init() {
	retrying := retryablehttp.NewClient()
	retrying.RetryMax = 3
	retrying.Logger = nil
	Client = retrying.StandardClient()
}

func Post(url string, body []byte, headers http.Header) (*http.Response, error) {
	request, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	request.Header = headers
	return Client.Do(request)
}
