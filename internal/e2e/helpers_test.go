package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mpijobctl/internal/cli"
	"mpijobctl/internal/config"
	"mpijobctl/internal/httpapi"
	"mpijobctl/internal/mpijob"
	"mpijobctl/internal/store"
)

// newServer serves the REST API over mem with a fast poll interval.
func newServer(t *testing.T, mem *store.Memory) *httptest.Server {
	t.Helper()
	httpapi.SetPollInterval(5 * time.Millisecond)
	t.Cleanup(func() { httpapi.SetPollInterval(0) })
	client := mpijob.NewWithConfig(mpijob.ClientConfig{Store: mem, Namespace: "default"})
	srv := httptest.NewServer(httpapi.NewMux(client))
	t.Cleanup(srv.Close)
	return srv
}

// runCLI runs mpijobctl against the same store the server uses.
func runCLI(t *testing.T, mem *store.Memory, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	deps := cli.DefaultDeps()
	deps.In = strings.NewReader("")
	deps.Out = &out
	deps.ErrOut = &errOut
	deps.Getenv = func(string) string { return "" }
	deps.OpenStore = func(config.Config) (store.Store, error) { return mem, nil }
	cmd := cli.NewRootCmd(deps)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpDelete(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodDelete, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
