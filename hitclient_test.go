package hitclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitclient/packages/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_FreshCopy(t *testing.T) {
	a := Defaults()
	a.Headers.SetIn("common", "Accept", "text/html")

	b := Defaults()
	assert.Equal(t, defaultAccept, b.Headers.Section("common").Get("Accept"))
	assert.Equal(t, defaultContentType, b.Headers.Section("post").Get("Content-Type"))
	assert.Equal(t, "get", b.Method)
	assert.True(t, b.StatusValid(204))
	assert.False(t, b.StatusValid(404))
}

func TestNew_GetDecodesJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, defaultAccept, r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":1}],"cached":false}`))
	}))
	defer server.Close()

	resp, err := New().Get(context.Background(), server.URL+"/items", nil)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, data["cached"])
	assert.True(t, resp.IsJSON())
}

func TestNew_PostJSONOverridesFormDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json;charset=utf-8", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "widget", body["name"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":7}`))
	}))
	defer server.Close()

	resp, err := New().Post(context.Background(), server.URL, map[string]any{"name": "widget"}, nil)

	require.NoError(t, err)
	assert.Equal(t, 201, resp.Status)
	assert.Equal(t, float64(7), resp.Get("id").Float())
}

func TestNew_PostStringUsesFormDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, defaultContentType, r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "a=1&b=2", string(body))
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	resp, err := New().Post(context.Background(), server.URL, "a=1&b=2", nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Data)
}

func TestNew_PostCallerHeaderCaseBeatsDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Len(t, r.Header.Values("Content-Type"), 1)
		_, _ = w.Write([]byte(r.Header.Get("Content-Type")))
	}))
	defer server.Close()

	c := New()
	for i := 0; i < 25; i++ {
		resp, err := c.Post(context.Background(), server.URL, "hello", &Config{
			Headers: Headers{"content-type": "text/plain"},
		})

		require.NoError(t, err)
		require.Equal(t, "text/plain", resp.Data)
	}
}

func TestNew_PostFormValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "ada lovelace", r.PostForm.Get("name"))
	}))
	defer server.Close()

	_, err := New().Post(context.Background(), server.URL, url.Values{"name": {"ada lovelace"}}, nil)

	require.NoError(t, err)
}

func TestCreate_InstanceDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/users", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		assert.Equal(t, "hitclient-test", r.Header.Get("User-Agent"))
		assert.Equal(t, defaultAccept, r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := Create(&Config{
		BaseURL: server.URL + "/v1/",
		Params:  map[string]string{"key": "k"},
		Headers: Headers{"common": Headers{"User-Agent": "hitclient-test"}},
	})

	resp, err := c.Get(context.Background(), "/users", nil)

	require.NoError(t, err)
	assert.Equal(t, []any{}, resp.Data)
}

func TestNew_BadStatusRejectsWithDecodedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"invalid"}`))
	}))
	defer server.Close()

	_, err := New().Get(context.Background(), server.URL, nil)

	e, ok := client.AsError(err)
	require.True(t, ok)
	assert.Equal(t, client.CodeBadResponse, e.Code)
	assert.Equal(t, map[string]any{"error": "invalid"}, e.Response.Data)
}

func TestNew_RecoverFromTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := New()
	c.Interceptors.Response.Use(nil, func(_ context.Context, err error) (*Response, error) {
		if e, ok := client.AsError(err); ok && e.Code == client.CodeTimeout {
			return &Response{Status: 0, Data: nil}, nil
		}
		return nil, err
	})

	resp, err := c.Get(context.Background(), server.URL, &Config{Timeout: 20 * time.Millisecond})

	require.NoError(t, err)
	assert.Equal(t, 0, resp.Status)
	assert.Nil(t, resp.Data)
}

func TestNew_CancelBeforeSend(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	src := NewCancelSource()
	src.Cancel("not needed")

	_, err := New().Get(context.Background(), server.URL, &Config{CancelToken: src.Token})

	assert.True(t, IsCancel(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	defer server.Close()

	c := New()
	responses, err := All(context.Background(),
		func(ctx context.Context) (*Response, error) { return c.Get(ctx, server.URL+"/a", nil) },
		func(ctx context.Context) (*Response, error) { return c.Get(ctx, server.URL+"/b", nil) },
		func(ctx context.Context) (*Response, error) { return c.Get(ctx, server.URL+"/c", nil) },
	)

	require.NoError(t, err)
	require.Len(t, responses, 3)
	assert.Equal(t, "/a", responses[0].Data)
	assert.Equal(t, "/b", responses[1].Data)
	assert.Equal(t, "/c", responses[2].Data)
}

func TestAll_FirstErrorWins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := New()
	start := time.Now()
	responses, err := All(context.Background(),
		func(ctx context.Context) (*Response, error) { return c.Get(ctx, server.URL+"/slow", nil) },
		func(ctx context.Context) (*Response, error) { return c.Get(ctx, server.URL+"/bad", nil) },
	)

	require.Error(t, err)
	assert.Nil(t, responses)
	assert.Less(t, time.Since(start), time.Second)
}
