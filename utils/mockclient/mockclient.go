package mockclient

import "net/http"

// MockClient implements restclient.HTTPClient for tests. Assign GetDoFunc
// before each case to control the response.
type MockClient struct{}

var (
	GetDoFunc func(req *http.Request) (*http.Response, error)
)

func (m *MockClient) Do(req *http.Request) (*http.Response, error) {
	return GetDoFunc(req)
}
