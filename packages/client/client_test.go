package client

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/abdul-hamid-achik/hitclient/packages/cancel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAdapter records every configuration it receives and answers with a
// canned outcome.
type stubAdapter struct {
	mu    sync.Mutex
	calls []*Config
	do    func(ctx context.Context, cfg *Config) (*Response, error)
}

func (s *stubAdapter) Do(ctx context.Context, cfg *Config) (*Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, cfg)
	s.mu.Unlock()
	if s.do != nil {
		return s.do(ctx, cfg)
	}
	return &Response{Status: 200, StatusText: "OK", Headers: map[string]string{}, Data: map[string]any{}}, nil
}

func (s *stubAdapter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newTestClient(defaults *Config, adapter Adapter) *Client {
	return New(defaults, WithAdapter(adapter))
}

func TestClient_RequestInterceptorsRunInReverseOrder(t *testing.T) {
	adapter := &stubAdapter{}
	c := newTestClient(&Config{Method: "get"}, adapter)
	var order []string

	c.Interceptors.Request.Use(func(_ context.Context, cfg *Config) (*Config, error) {
		order = append(order, "R1")
		return cfg, nil
	}, nil)
	c.Interceptors.Request.Use(func(_ context.Context, cfg *Config) (*Config, error) {
		order = append(order, "R2")
		return cfg, nil
	}, nil)
	c.Interceptors.Response.Use(func(_ context.Context, r *Response) (*Response, error) {
		order = append(order, "S1")
		return r, nil
	}, nil)
	c.Interceptors.Response.Use(func(_ context.Context, r *Response) (*Response, error) {
		order = append(order, "S2")
		return r, nil
	}, nil)

	adapter.do = func(_ context.Context, _ *Config) (*Response, error) {
		order = append(order, "adapter")
		return &Response{Status: 200}, nil
	}

	_, err := c.Request(context.Background(), &Config{URL: "/x"})

	require.NoError(t, err)
	assert.Equal(t, []string{"R2", "R1", "adapter", "S1", "S2"}, order)
}

func TestClient_EjectedInterceptorIsSkipped(t *testing.T) {
	c := newTestClient(nil, &stubAdapter{})
	var order []string
	mk := func(name string) Fulfilled[*Config] {
		return func(_ context.Context, cfg *Config) (*Config, error) {
			order = append(order, name)
			return cfg, nil
		}
	}

	c.Interceptors.Request.Use(mk("R1"), nil)
	id := c.Interceptors.Request.Use(mk("R2"), nil)
	c.Interceptors.Request.Use(mk("R3"), nil)
	c.Interceptors.Request.Eject(id)
	c.Interceptors.Request.Eject(id)

	_, err := c.Request(context.Background(), &Config{URL: "/x"})

	require.NoError(t, err)
	assert.Equal(t, []string{"R3", "R1"}, order)
}

func TestClient_MethodResolution(t *testing.T) {
	tests := []struct {
		name     string
		defaults *Config
		cfg      *Config
		want     string
	}{
		{"explicit method is lower-cased", &Config{Method: "get"}, &Config{Method: "POST"}, "post"},
		{"falls back to defaults", &Config{Method: "PUT"}, &Config{}, "put"},
		{"falls back to get", nil, nil, "get"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := &stubAdapter{}
			c := newTestClient(tt.defaults, adapter)

			_, err := c.Request(context.Background(), tt.cfg)

			require.NoError(t, err)
			require.Equal(t, 1, adapter.callCount())
			assert.Equal(t, tt.want, adapter.calls[0].Method)
		})
	}
}

func TestClient_HeadersFlattenedBeforeAdapter(t *testing.T) {
	adapter := &stubAdapter{}
	c := newTestClient(&Config{
		Headers: Headers{
			"common": Headers{"A": "1"},
			"get":    Headers{"A": "2", "B": "3"},
			"post":   Headers{"C": "9"},
		},
	}, adapter)

	_, err := c.Request(context.Background(), &Config{Headers: Headers{"A": "4"}})

	require.NoError(t, err)
	assert.Equal(t, Headers{"A": "4", "B": "3"}, adapter.calls[0].Headers)
}

func TestClient_CancelledBeforeDispatch(t *testing.T) {
	adapter := &stubAdapter{}
	c := newTestClient(nil, adapter)
	src := cancel.NewSource()
	src.Cancel("stop")

	resp, err := c.Request(context.Background(), &Config{URL: "/x", CancelToken: src.Token})

	assert.Nil(t, resp)
	require.Error(t, err)
	assert.True(t, IsCancel(err))
	assert.Equal(t, 0, adapter.callCount())
}

func TestClient_CancelledWhileAdapterRuns(t *testing.T) {
	src := cancel.NewSource()
	adapter := &stubAdapter{do: func(context.Context, *Config) (*Response, error) {
		src.Cancel("late")
		return &Response{Status: 200}, nil
	}}
	c := newTestClient(nil, adapter)

	resp, err := c.Request(context.Background(), &Config{URL: "/x", CancelToken: src.Token})

	assert.Nil(t, resp)
	assert.True(t, IsCancel(err))
	assert.Equal(t, 1, adapter.callCount())
}

func TestClient_CancelledWhileAdapterFails(t *testing.T) {
	src := cancel.NewSource()
	transformed := false
	adapter := &stubAdapter{do: func(_ context.Context, cfg *Config) (*Response, error) {
		src.Cancel("late")
		return nil, NewError("bad status", CodeBadResponse, cfg, &Response{Status: 500, Data: "raw"}, nil)
	}}
	c := newTestClient(&Config{TransformResponse: []Transformer{func(d any, _ Headers) (any, error) {
		transformed = true
		return d, nil
	}}}, adapter)

	_, err := c.Request(context.Background(), &Config{URL: "/x", CancelToken: src.Token})

	assert.True(t, IsCancel(err))
	assert.False(t, transformed)
}

func TestClient_AdapterCancelPropagatesUnchanged(t *testing.T) {
	reason := &cancel.Cancel{Message: "aborted by adapter"}
	adapter := &stubAdapter{do: func(context.Context, *Config) (*Response, error) {
		return nil, reason
	}}
	c := newTestClient(nil, adapter)

	_, err := c.Request(context.Background(), &Config{URL: "/x"})

	assert.Same(t, reason, err)
}

func TestClient_PartialResponseIsTransformed(t *testing.T) {
	adapter := &stubAdapter{do: func(_ context.Context, cfg *Config) (*Response, error) {
		return nil, NewError("status 404", CodeBadResponse, cfg, &Response{Status: 404, Data: []byte(`{"error":"missing"}`)}, nil)
	}}
	c := newTestClient(&Config{TransformResponse: []Transformer{DefaultTransformResponse}}, adapter)

	_, err := c.Request(context.Background(), &Config{URL: "/x"})

	e, ok := AsError(err)
	require.True(t, ok)
	require.NotNil(t, e.Response)
	assert.Equal(t, map[string]any{"error": "missing"}, e.Response.Data)
}

func TestClient_FailureWithoutResponseKeepsNoResponse(t *testing.T) {
	adapter := &stubAdapter{do: func(_ context.Context, cfg *Config) (*Response, error) {
		return nil, NewError("dial failed", CodeNetwork, cfg, nil, errors.New("connection refused"))
	}}
	c := newTestClient(nil, adapter)

	_, err := c.Request(context.Background(), &Config{URL: "/x"})

	e, ok := AsError(err)
	require.True(t, ok)
	assert.Nil(t, e.Response)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestClient_TransformsApplied(t *testing.T) {
	adapter := &stubAdapter{do: func(_ context.Context, cfg *Config) (*Response, error) {
		return &Response{Status: 200, Data: cfg.Data, Headers: map[string]string{}}, nil
	}}
	c := newTestClient(&Config{
		TransformRequest:  []Transformer{DefaultTransformRequest},
		TransformResponse: []Transformer{DefaultTransformResponse},
	}, adapter)

	resp, err := c.Post(context.Background(), "/items", map[string]any{"name": "widget"}, nil)

	require.NoError(t, err)
	sent := adapter.calls[0]
	assert.Equal(t, "post", sent.Method)
	assert.Equal(t, "application/json;charset=utf-8", sent.Headers.Get("Content-Type"))
	assert.Equal(t, map[string]any{"name": "widget"}, resp.Data)
	assert.Same(t, sent, resp.Config)
}

func TestClient_RequestTransformErrorRejects(t *testing.T) {
	adapter := &stubAdapter{}
	c := newTestClient(&Config{TransformRequest: []Transformer{DefaultTransformRequest}}, adapter)

	_, err := c.Post(context.Background(), "/items", make(chan int), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "transform request")
	assert.Equal(t, 0, adapter.callCount())
}

func TestClient_RequestInterceptorShortCircuits(t *testing.T) {
	adapter := &stubAdapter{}
	c := newTestClient(nil, adapter)
	denied := errors.New("denied")
	var responseSaw error

	c.Interceptors.Request.Use(func(context.Context, *Config) (*Config, error) {
		return nil, denied
	}, nil)
	c.Interceptors.Response.Use(nil, func(_ context.Context, err error) (*Response, error) {
		responseSaw = err
		return nil, err
	})

	_, err := c.Request(context.Background(), &Config{URL: "/x"})

	assert.ErrorIs(t, err, denied)
	assert.ErrorIs(t, responseSaw, denied)
	assert.Equal(t, 0, adapter.callCount())
}

func TestClient_RequestRejectionHandlerRecovers(t *testing.T) {
	adapter := &stubAdapter{}
	c := newTestClient(nil, adapter)

	// registered first, so it runs after the failing interceptor
	c.Interceptors.Request.Use(nil, func(context.Context, error) (*Config, error) {
		return &Config{URL: "/recovered"}, nil
	})
	c.Interceptors.Request.Use(func(context.Context, *Config) (*Config, error) {
		return nil, errors.New("boom")
	}, nil)

	_, err := c.Request(context.Background(), &Config{URL: "/x"})

	require.NoError(t, err)
	require.Equal(t, 1, adapter.callCount())
	assert.Equal(t, "/recovered", adapter.calls[0].URL)
	assert.NotNil(t, adapter.calls[0].Headers)
}

func TestClient_NilConfigFromInterceptor(t *testing.T) {
	adapter := &stubAdapter{}
	c := newTestClient(nil, adapter)
	c.Interceptors.Request.Use(func(context.Context, *Config) (*Config, error) {
		return nil, nil
	}, nil)

	_, err := c.Request(context.Background(), &Config{URL: "/x"})

	assert.ErrorIs(t, err, ErrNilConfig)
	assert.Equal(t, 0, adapter.callCount())
}

func TestClient_ResponseInterceptorTurnsSuccessIntoFailure(t *testing.T) {
	c := newTestClient(nil, &stubAdapter{})
	var secondSaw error
	c.Interceptors.Response.Use(func(context.Context, *Response) (*Response, error) {
		return nil, errors.New("rejected by policy")
	}, nil)
	c.Interceptors.Response.Use(nil, func(_ context.Context, err error) (*Response, error) {
		secondSaw = err
		return nil, err
	})

	_, err := c.Request(context.Background(), &Config{URL: "/x"})

	require.Error(t, err)
	assert.Equal(t, "rejected by policy", secondSaw.Error())
}

func TestClient_NoAdapter(t *testing.T) {
	c := New(nil)

	_, err := c.Request(context.Background(), &Config{URL: "/x"})

	assert.ErrorIs(t, err, ErrNoAdapter)
}

func TestClient_PerRequestAdapterOverride(t *testing.T) {
	clientWide := &stubAdapter{}
	perRequest := &stubAdapter{}
	c := newTestClient(nil, clientWide)

	_, err := c.Request(context.Background(), &Config{URL: "/x", Adapter: perRequest})

	require.NoError(t, err)
	assert.Equal(t, 0, clientWide.callCount())
	assert.Equal(t, 1, perRequest.callCount())
}

func TestClient_EndToEndTraceAndCachedFlag(t *testing.T) {
	adapter := &stubAdapter{do: func(_ context.Context, cfg *Config) (*Response, error) {
		return &Response{Status: 200, Data: map[string]any{"items": []any{}}, Headers: map[string]string{}}, nil
	}}
	c := newTestClient(&Config{Method: "get"}, adapter)

	c.Interceptors.Request.Use(func(_ context.Context, cfg *Config) (*Config, error) {
		cfg.Headers.Set("X-Trace", "trace-123")
		return cfg, nil
	}, nil)
	c.Interceptors.Response.Use(func(_ context.Context, r *Response) (*Response, error) {
		body := r.Data.(map[string]any)
		body["cached"] = false
		return r, nil
	}, nil)

	resp, err := c.RequestURL(context.Background(), "/items", nil)

	require.NoError(t, err)
	assert.Equal(t, false, resp.Data.(map[string]any)["cached"])
	assert.Equal(t, "trace-123", adapter.calls[0].Headers.Get("X-Trace"))
	assert.Equal(t, "/items", adapter.calls[0].URL)
}

func TestClient_EndToEndRecoverFromTimeout(t *testing.T) {
	adapter := &stubAdapter{do: func(_ context.Context, cfg *Config) (*Response, error) {
		return nil, NewError("timeout", CodeTimeout, cfg, nil, nil)
	}}
	c := newTestClient(nil, adapter)
	c.Interceptors.Response.Use(nil, func(context.Context, error) (*Response, error) {
		return &Response{Status: 0, Data: nil}, nil
	})

	resp, err := c.Request(context.Background(), &Config{URL: "/x"})

	require.NoError(t, err)
	assert.Equal(t, 0, resp.Status)
	assert.Nil(t, resp.Data)
}

func TestClient_RequestURLDoesNotMutateCallerConfig(t *testing.T) {
	c := newTestClient(nil, &stubAdapter{})
	cfg := &Config{URL: "/original", Headers: Headers{"A": "1"}}

	_, err := c.RequestURL(context.Background(), "/other", cfg)

	require.NoError(t, err)
	assert.Equal(t, "/original", cfg.URL)
	assert.Equal(t, Headers{"A": "1"}, cfg.Headers)
}

func TestClient_Aliases(t *testing.T) {
	adapter := &stubAdapter{}
	c := newTestClient(nil, adapter)
	ctx := context.Background()

	calls := []func() (*Response, error){
		func() (*Response, error) { return c.Get(ctx, "/g", &Config{Method: "put"}) },
		func() (*Response, error) { return c.Delete(ctx, "/d", nil) },
		func() (*Response, error) { return c.Head(ctx, "/h", nil) },
		func() (*Response, error) { return c.Options(ctx, "/o", nil) },
		func() (*Response, error) { return c.Post(ctx, "/p", "a", nil) },
		func() (*Response, error) { return c.Put(ctx, "/u", "b", nil) },
		func() (*Response, error) { return c.Patch(ctx, "/pa", "c", &Config{Data: "ignored"}) },
	}
	for _, call := range calls {
		_, err := call()
		require.NoError(t, err)
	}

	want := []struct {
		method, url string
		data        any
	}{
		{"get", "/g", nil},
		{"delete", "/d", nil},
		{"head", "/h", nil},
		{"options", "/o", nil},
		{"post", "/p", "a"},
		{"put", "/u", "b"},
		{"patch", "/pa", "c"},
	}
	require.Equal(t, len(want), adapter.callCount())
	for i, w := range want {
		assert.Equal(t, w.method, adapter.calls[i].Method)
		assert.Equal(t, w.url, adapter.calls[i].URL)
		assert.Equal(t, w.data, adapter.calls[i].Data)
	}
}

func TestClient_GetURI(t *testing.T) {
	c := newTestClient(&Config{Params: map[string]string{"v": "1"}}, &stubAdapter{})

	assert.Equal(t, "/items?page=2&v=1", c.GetURI(&Config{URL: "/items", Params: map[string]string{"page": "2"}}))
	assert.Equal(t, "v=1", c.GetURI(nil))
}

func TestClient_DefaultsAreOwned(t *testing.T) {
	defaults := &Config{Headers: Headers{"A": "1"}}
	c := newTestClient(defaults, &stubAdapter{})

	defaults.Headers.Set("A", "changed")
	c.Defaults().Headers.Set("A", "changed too")

	assert.Equal(t, "1", c.Defaults().Headers.Get("A"))
}

func TestClient_ConcurrentRequestsDoNotShareConfig(t *testing.T) {
	adapter := &stubAdapter{}
	c := newTestClient(&Config{Headers: Headers{"common": Headers{"A": "1"}}}, adapter)
	c.Interceptors.Request.Use(func(_ context.Context, cfg *Config) (*Config, error) {
		cfg.Headers.Set("X-URL", cfg.URL)
		return cfg, nil
	}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Request(context.Background(), &Config{URL: "/" + string(rune('a'+i))})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	require.Equal(t, 20, adapter.callCount())
	for _, cfg := range adapter.calls {
		assert.Equal(t, cfg.URL, cfg.Headers.Get("X-URL"))
		assert.Equal(t, "1", cfg.Headers.Get("A"))
	}
}
