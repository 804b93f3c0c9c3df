package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/namespace-stats/internal/domain"
)

func setupNamespaceGateway(t *testing.T, handler http.Handler) (*NamespaceGateway, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	endpoints := Endpoints{
		L2Stats:         server.URL + "/l2",
		OffchainStats:   server.URL + "/offchain",
		ListingStats:    server.URL + "/listing",
		ResolutionStats: server.URL + "/resolution",
		SubnameStats:    server.URL + "/global",
	}
	return NewNamespaceGateway(server.Client(), endpoints, zerolog.Nop()), server
}

func fixtureMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/l2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"perChain": {"8453": {"chainId": 8453, "totalRegistries": 12, "totalFee": 0.5}}, "totalRegistries": 12, "totalFee": 0.5}`)
	})
	mux.HandleFunc("/offchain", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total": 30, "names": {"alpha.eth": 20, "beta.eth": 10}, "totalApiKeys": 4, "extra": true}`)
	})
	mux.HandleFunc("/listing", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"totalDeployedRegistries": {"base": 2, "optimism": 1}, "totalListings": {"base": 5, "mainnet": 6, "optimism": 7}, "totalCount": 18}`)
	})
	mux.HandleFunc("/resolution", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total": 100, "total_addr": 60, "total_text": 30, "contenthash": 10, "per_type": {"base": {"total": 50}, "optimism": {"total": 20}, "offchain": {"total": 30}}}`)
	})
	mux.HandleFunc("/global", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"stats": {"totalL1": {"total": 8, "volume": 1.25, "uniqueMinter": 3, "top5Names": [{"name": "x.eth", "subnames": 8}]}, "totalL2PerChain": {"base": {"total": 4, "volume": 0.5}}, "totalOveral": 12, "uniqueMinter": 5}}`)
	})
	return mux
}

func TestNamespaceGateway_Fetches(t *testing.T) {
	gateway, server := setupNamespaceGateway(t, fixtureMux())
	defer server.Close()
	ctx := context.Background()

	l2, err := gateway.FetchL2Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), l2.PerChain[domain.ChainIDBase].TotalRegistries)
	assert.Equal(t, 0.5, l2.TotalFee)

	offchain, err := gateway.FetchOffchainStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &domain.OffchainStats{Total: 30, Names: map[string]int64{"alpha.eth": 20, "beta.eth": 10}, TotalAPIKeys: 4}, offchain)

	listing, err := gateway.FetchListingStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), listing.TotalListings.Mainnet)
	assert.Equal(t, int64(18), listing.TotalCount)

	resolution, err := gateway.FetchResolutionStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), resolution.Total)
	assert.Equal(t, int64(60), resolution.TotalAddr)
	assert.Equal(t, int64(20), resolution.PerType.Optimism.Total)

	subname, err := gateway.FetchSubnameStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), subname.TotalOverall)
	assert.Equal(t, 1.25, subname.TotalL1.Volume)
	assert.Equal(t, []domain.NameCount{{Name: "x.eth", Subnames: 8}}, subname.TotalL1.Top5Names)
	assert.Equal(t, int64(4), subname.TotalL2PerChain["base"].Total)
}

func TestNamespaceGateway_Errors(t *testing.T) {
	testCases := []struct {
		name           string
		handlerFunc    func(w http.ResponseWriter, r *http.Request)
		expectedErr    error
		expectedErrMsg string
	}{
		{
			name: "server error",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			expectedErr:    ErrUpstream,
			expectedErrMsg: "status 502",
		},
		{
			name: "rate limited",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			expectedErr:    ErrForbidden,
			expectedErrMsg: "failed to fetch subname stats",
		},
		{
			name: "malformed body",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"stats": `)
			},
			expectedErr:    ErrUpstream,
			expectedErrMsg: "failed to decode response",
		},
		{
			name: "missing stats object",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"other": {}}`)
			},
			expectedErr:    ErrUpstream,
			expectedErrMsg: "no stats object",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupNamespaceGateway(t, http.HandlerFunc(tc.handlerFunc))
			defer server.Close()

			stats, err := gateway.FetchSubnameStats(context.Background())
			assert.Nil(t, stats)
			assert.ErrorIs(t, err, tc.expectedErr)
			assert.Contains(t, err.Error(), tc.expectedErrMsg)
		})
	}
}

func TestNamespaceGateway_TransportError(t *testing.T) {
	gateway, server := setupNamespaceGateway(t, fixtureMux())
	server.Close()

	_, err := gateway.FetchL2Stats(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Zero(t, statusErr.StatusCode)
}

func TestNewNamespaceGateway_DefaultEndpoints(t *testing.T) {
	gateway := NewNamespaceGateway(nil, Endpoints{SubnameStats: "http://localhost/global"}, zerolog.Nop())

	expected := DefaultEndpoints()
	expected.SubnameStats = "http://localhost/global"
	assert.Equal(t, expected, gateway.endpoints)
	assert.Same(t, http.DefaultClient, gateway.client)
}

func TestNamespaceGateway_EmptyDocuments(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "null body", body: `null`},
		{name: "empty object", body: `{}`},
		{name: "no body", body: ``},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupNamespaceGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tc.body)
			}))
			defer server.Close()

			l2, err := gateway.FetchL2Stats(context.Background())
			assert.Nil(t, l2)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUpstream)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, http.StatusOK, statusErr.StatusCode)
			if tc.body != "" {
				assert.ErrorIs(t, err, ErrEmptyDocument)
			}
		})
	}
}
