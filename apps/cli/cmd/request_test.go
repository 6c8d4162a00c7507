package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/abdul-hamid-achik/hitclient/packages/cancel"
	"github.com/abdul-hamid-achik/hitclient/packages/client"
	"github.com/abdul-hamid-achik/hitclient/packages/core/config"
	hithttp "github.com/abdul-hamid-achik/hitclient/packages/http"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags puts every request flag back to its default between runs.
func resetFlags(t *testing.T) {
	t.Helper()
	requestCmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			require.NoError(t, sv.Replace(nil))
		} else {
			require.NoError(t, f.Value.Set(f.DefValue))
		}
		f.Changed = false
	})
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t)
	t.Cleanup(func() { resetFlags(t) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRequestCommand_PostJSONWithQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json;charset=utf-8", r.Header.Get("Content-Type"))
		assert.Equal(t, "core", r.Header.Get("X-Team"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"ada"}`, string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user":{"name":"ada"}}`))
	}))
	defer server.Close()

	out, err := execute(t, "request", "POST", server.URL+"/users",
		"-d", `{"name":"ada"}`, "-H", "X-Team: core", "--param", "page=2",
		"--request-id", "--query", "user.name")

	require.NoError(t, err)
	assert.Equal(t, "ada\n", out)
}

func TestRequestCommand_IncludeAndBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Reason", "missing")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("not here"))
	}))
	defer server.Close()

	out, err := execute(t, "request", server.URL, "-i")

	require.Error(t, err)
	assert.Equal(t, ExitRequestFailure, exitCode(err))
	assert.Contains(t, out, "HTTP 404 Not Found")
	assert.Contains(t, out, "X-Reason: missing")
	assert.Contains(t, out, "not here")
}

func TestRequestCommand_RepeatWithThresholds(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	out, err := execute(t, "request", server.URL, "-n", "5", "-c", "2", "--threshold", "errors<1%")

	require.NoError(t, err)
	assert.Equal(t, int32(5), atomic.LoadInt32(&hits))
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "Requests:   5")
	assert.Contains(t, out, "Thresholds")
}

func TestRequestCommand_VariablesAndCaptures(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path+" "+r.Header.Get("X-Team"))
		mu.Unlock()
		_, _ = w.Write([]byte(`{"next":"b"}`))
	}))
	defer server.Close()

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TEAM=core\ncursor=ignored\n"), 0o644))

	_, err := execute(t, "request", server.URL+"/items/{{cursor}}",
		"-n", "2", "--env-file", envFile, "--var", "cursor=a",
		"-H", "X-Team: {{TEAM}}", "--capture", "cursor=next", "--strict-vars")

	require.NoError(t, err)
	assert.Equal(t, []string{"/items/a core", "/items/b core"}, paths)
}

func TestRequestCommand_StrictVarsRejects(t *testing.T) {
	_, err := execute(t, "request", "http://127.0.0.1:1/{{missing}}", "--strict-vars")

	require.Error(t, err)
	assert.Equal(t, ExitRequestFailure, exitCode(err))
	assert.Contains(t, err.Error(), "unresolved variables: missing")
}

func TestRequestCommand_ThresholdFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := execute(t, "request", server.URL, "-n", "3", "--threshold", "errors<1%")

	require.Error(t, err)
	assert.Equal(t, ExitThresholdFailure, exitCode(err))
}

func TestRequestCommand_MetricsFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()
	path := filepath.Join(t.TempDir(), "metrics.prom")

	_, err := execute(t, "request", server.URL, "--metrics-file", path)

	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `hitclient_requests_total{method="get",status_code="200"} 1`)
}

func TestRequestCommand_UsageErrors(t *testing.T) {
	_, err := execute(t, "request", "http://example.com", "-H", "no-colon")
	assert.Equal(t, ExitUsageError, exitCode(err))

	_, err = execute(t, "request", "http://example.com", "--threshold", "p42<1s")
	assert.Equal(t, ExitUsageError, exitCode(err))

	_, err = execute(t, "request", "http://example.com", "--timeout", "soon")
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestParsePairs(t *testing.T) {
	out, err := parsePairs([]string{"Content-Type: text/plain", "X-Empty:"}, ":")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Content-Type": "text/plain", "X-Empty": ""}, out)

	out, err = parsePairs([]string{"q=a=b"}, "=")
	require.NoError(t, err)
	assert.Equal(t, "a=b", out["q"])

	_, err = parsePairs([]string{"=value"}, "=")
	assert.Error(t, err)

	out, err = parsePairs(nil, "=")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestBuildBody(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "body.json"), []byte(`{"a":1}`), 0o644))

	t.Run("json text", func(t *testing.T) {
		body, err := buildBody(`[1,2]`, nil, dir)
		require.NoError(t, err)
		assert.Equal(t, json.RawMessage(`[1,2]`), body)
	})

	t.Run("plain text", func(t *testing.T) {
		body, err := buildBody("a=1&b=2", nil, dir)
		require.NoError(t, err)
		assert.Equal(t, "a=1&b=2", body)
	})

	t.Run("from file", func(t *testing.T) {
		body, err := buildBody("@"+filepath.Join(dir, "body.json"), nil, dir)
		require.NoError(t, err)
		assert.Equal(t, json.RawMessage(`{"a":1}`), body)
	})

	t.Run("multipart", func(t *testing.T) {
		body, err := buildBody("", []string{"name=ada", "doc=@body.json"}, dir)
		require.NoError(t, err)
		mp, ok := body.(*hithttp.Multipart)
		require.True(t, ok)
		require.Len(t, mp.Fields, 2)
		assert.Equal(t, hithttp.MultipartFieldFile, mp.Fields[1].Type)
	})

	t.Run("empty", func(t *testing.T) {
		body, err := buildBody("", nil, dir)
		require.NoError(t, err)
		assert.Nil(t, body)
	})

	t.Run("both", func(t *testing.T) {
		_, err := buildBody("x", []string{"a=b"}, dir)
		assert.Error(t, err)
	})
}

func TestRequestExitCode(t *testing.T) {
	assert.Equal(t, ExitCanceled, requestExitCode(&cancel.Cancel{Message: "stop"}))
	assert.Equal(t, ExitNetworkError, requestExitCode(client.NewError("timeout", client.CodeTimeout, nil, nil, nil)))
	assert.Equal(t, ExitNetworkError, requestExitCode(client.NewError("down", client.CodeNetwork, nil, nil, nil)))
	assert.Equal(t, ExitRequestFailure, requestExitCode(client.NewError("404", client.CodeBadResponse, nil, nil, nil)))
	assert.Equal(t, ExitRequestFailure, requestExitCode(errors.New("transform")))
}

func TestWriteStarterConfig(t *testing.T) {
	dir := t.TempDir()

	path, err := writeStarterConfig(dir, false)
	require.NoError(t, err)
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", cfg.BaseURL)
	assert.True(t, cfg.GetRequestID())

	_, err = writeStarterConfig(dir, false)
	assert.Error(t, err)

	_, err = writeStarterConfig(dir, true)
	assert.NoError(t, err)
}
