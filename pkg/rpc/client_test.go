package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(endpoints ...string) *Client {
	return New(Opts{
		Endpoints:       endpoints,
		RPS:             1000,
		Burst:           1000,
		PageLimit:       2,
		BreakerFailures: 2,
		BreakerCooldown: 50 * time.Millisecond,
	})
}

func TestGetTxsParsesPage(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, txsPath, r.URL.Path)
		gotQuery = map[string]string{
			"events": r.URL.Query().Get("events"),
			"offset": r.URL.Query().Get("pagination.offset"),
			"limit":  r.URL.Query().Get("pagination.limit"),
			"order":  r.URL.Query().Get("order_by"),
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"tx_responses": []map[string]interface{}{
				{"height": "12", "txhash": "AB", "code": 0, "gas_wanted": "100", "gas_used": "90", "timestamp": "2024-01-02T03:04:05Z"},
				{"height": "13", "txhash": "CD", "code": 1},
			},
			"pagination": map[string]string{"total": "2"},
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	page, err := c.GetTxs(context.Background(), 12, 0)
	require.NoError(t, err)

	assert.Equal(t, "tx.height>=12", gotQuery["events"])
	assert.Equal(t, "0", gotQuery["offset"])
	assert.Equal(t, "2", gotQuery["limit"])
	assert.Equal(t, "ORDER_BY_ASC", gotQuery["order"])

	require.Len(t, page.TxResponses, 2)
	tx := page.TxResponses[0]
	assert.Equal(t, int64(12), tx.HeightInt64())
	assert.Equal(t, int64(100), tx.GasWantedInt64())
	assert.Equal(t, 2024, tx.BlockTime().Year())
	assert.Equal(t, uint64(2), page.Pagination.TotalUint64())
}

func TestGetTxsFailsOverAcrossEndpoints(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(TxPage{})
	}))
	defer good.Close()

	c := testClient(bad.URL, good.URL)
	_, err := c.GetTxs(context.Background(), 1, 0)
	assert.NoError(t, err)
}

func TestBreakerOpensAndRecovers(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(TxPage{})
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	// Two failures trip the breaker.
	_, err := c.GetTxs(context.Background(), 1, 0)
	require.Error(t, err)
	_, err = c.GetTxs(context.Background(), 1, 0)
	require.Error(t, err)

	// While open, the endpoint is skipped entirely.
	before := hits
	_, err = c.GetTxs(context.Background(), 1, 0)
	require.Error(t, err)
	assert.Equal(t, before, hits)

	// After the cooldown a probe goes through and succeeds.
	time.Sleep(60 * time.Millisecond)
	_, err = c.GetTxs(context.Background(), 1, 0)
	assert.NoError(t, err)
}

func TestProbeHitsFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("pagination.limit"))
		_ = json.NewEncoder(w).Encode(TxPage{})
	}))
	defer srv.Close()

	assert.NoError(t, testClient(srv.URL).Probe(context.Background()))
}
