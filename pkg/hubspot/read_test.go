package hubspot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dealbot/internal/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(StaticTokenSource("test-token"),
		WithBaseURL(srv.URL),
		WithRetry(resilience.RetryConfig{MaxAttempts: 1}),
	)
}

func TestSearchDeals(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/crm/v3/objects/deals/search", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "acme corp", req.Query)
		assert.Equal(t, 5, req.Limit)

		json.NewEncoder(w).Encode(searchResponse{
			Total: 2,
			Results: []Object{
				{ID: "1", Properties: map[string]string{"dealname": "Acme Renewal"}},
				{ID: "2", Properties: map[string]string{"dealname": "Acme Expansion"}},
			},
		})
	})

	deals, err := c.SearchDeals(context.Background(), SearchRequest{
		Query:      "acme corp",
		Properties: []string{"dealname", "closedate"},
		Limit:      5,
	})
	require.NoError(t, err)
	require.Len(t, deals, 2)
	assert.Equal(t, "Acme Renewal", deals[0].Prop("dealname"))
}

func TestSearchDealsAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"expired token"}`))
	})

	_, err := c.SearchDeals(context.Background(), SearchRequest{Query: "acme"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestAssociations(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/crm/v4/objects/deals/42/associations/contacts", r.URL.Path)
		w.Write([]byte(`{"results":[{"toObjectId":101},{"toObjectId":102}]}`))
	})

	ids, err := c.Associations(context.Background(), "deals", "42", "contacts")
	require.NoError(t, err)
	assert.Equal(t, []string{"101", "102"}, ids)
}

func TestBatchReadEmptyIDsNoCall(t *testing.T) {
	var calls atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"results":[]}`))
	})

	records, err := c.BatchRead(context.Background(), "emails", nil, []string{"hs_email_subject"})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, calls.Load())
}

func TestBatchReadChunks(t *testing.T) {
	var calls atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/crm/v3/objects/contacts/batch/read", r.URL.Path)

		var req batchReadRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.LessOrEqual(t, len(req.Inputs), maxBatchSize)

		resp := batchReadResponse{}
		for _, in := range req.Inputs {
			resp.Results = append(resp.Results, Object{ID: in.ID})
		}
		json.NewEncoder(w).Encode(resp)
	})

	ids := make([]string, 120)
	for i := range ids {
		ids[i] = "id-" + string(rune('a'+i%26))
	}

	records, err := c.BatchRead(context.Background(), "contacts", ids, []string{"firstname"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), calls.Load()) // ceil(120/50)
	assert.LessOrEqual(t, len(records), 120)
}

func TestBatchReadChunkFailureFailsWhole(t *testing.T) {
	var calls atomic.Int64
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 2 {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"bad id"}`))
			return
		}
		w.Write([]byte(`{"results":[]}`))
	})

	ids := make([]string, 80)
	for i := range ids {
		ids[i] = "x"
	}

	_, err := c.BatchRead(context.Background(), "calls", ids, nil)
	require.Error(t, err)
}

func TestOwner(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crm/v3/owners/7", r.URL.Path)
		json.NewEncoder(w).Encode(Owner{ID: "7", FirstName: "Dana", LastName: "Reyes", Email: "dana@example.com"})
	})

	owner, err := c.Owner(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "Dana Reyes", owner.FullName())
}

func TestRetryOnTransientStatus(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"total":0,"results":[]}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(StaticTokenSource("t"),
		WithBaseURL(srv.URL),
		WithRetry(resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: 1}),
	)

	_, err := c.SearchDeals(context.Background(), SearchRequest{Query: "acme"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestRetryLoggingInstalled(t *testing.T) {
	c := NewClient(StaticTokenSource("t")).(*httpClient)
	assert.NotNil(t, c.retry.OnRetry)

	// A custom retry config without its own hook still gets the logger.
	custom := NewClient(StaticTokenSource("t"),
		WithRetry(resilience.RetryConfig{MaxAttempts: 2}),
	).(*httpClient)
	assert.NotNil(t, custom.retry.OnRetry)
}

func TestOwnerFullNameFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		owner Owner
		want  string
	}{
		{"full", Owner{FirstName: "Dana", LastName: "Reyes", Email: "d@x.com"}, "Dana Reyes"},
		{"first only", Owner{FirstName: "Dana"}, "Dana"},
		{"last only", Owner{LastName: "Reyes"}, "Reyes"},
		{"email fallback", Owner{Email: "d@x.com"}, "d@x.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.owner.FullName())
		})
	}
}
