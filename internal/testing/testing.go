// package testing contains shared testing utilities
package testing

import (
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/webradio/internal/models"
)

// RecordingDispatcher records every service call it receives
type RecordingDispatcher struct {
	mu    sync.Mutex
	calls []models.ServiceCall
}

func (r *RecordingDispatcher) Dispatch(call models.ServiceCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

// Calls returns a copy of the recorded calls
func (r *RecordingDispatcher) Calls() []models.ServiceCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ServiceCall(nil), r.calls...)
}

// Last returns the most recent call, failing the test when there is none
func (r *RecordingDispatcher) Last(t *testing.T) models.ServiceCall {
	t.Helper()
	calls := r.Calls()
	if len(calls) == 0 {
		t.Fatal("expected at least one service call")
	}
	return calls[len(calls)-1]
}

// FStore is a card store whose writes always fail
type FStore struct {
	Value string
}

func (f *FStore) Get(key string) (string, bool, error) {
	return f.Value, f.Value != "", nil
}

func (f *FStore) Set(key, value string) error {
	return errors.New("disk full")
}

// StaticStatus builds a snapshot from entity id and state pairs
func StaticStatus(pairs ...string) models.Snapshot {
	s := models.Snapshot{}
	for i := 0; i+1 < len(pairs); i += 2 {
		s[pairs[i]] = models.EntityState{EntityID: pairs[i], State: pairs[i+1]}
	}
	return s
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
