package subgraph_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/log"
	"github.com/Maia-DAO/smart-order-router/subgraph"
)

func TestRemoteProvider_ListsAndPaginates(t *testing.T) {
	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := requests.Add(1)

		var body struct {
			Variables struct {
				ID string `json:"id"`
			} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		// Serve one full page then a short page to terminate pagination.
		w.Header().Set("Content-Type", "application/json")
		if page == 1 {
			require.Empty(t, body.Variables.ID)
			fmt.Fprint(w, fullPageResponse(1000))
			return
		}
		fmt.Fprint(w, `{"data":{"pools":[
			{"id":"0xPoolLast","token0":{"id":"0xaaa"},"token1":{"id":"0xbbb"},"feeTier":"500","totalValueLockedETH":"12.5","totalValueLockedUSD":"40000"}
		]}}`)
	}))
	defer server.Close()

	provider := subgraph.NewRemoteProvider(server.URL, domain.ProtocolV3, 5*time.Second, 0, &log.NoOpLogger{})

	pools, err := provider.ListPools(context.Background(), nil, nil, 0)
	require.NoError(t, err)
	require.Len(t, pools, 1001)
	require.Equal(t, int32(2), requests.Load())

	last := pools[len(pools)-1]
	require.Equal(t, "0xpoollast", last.ID)
	require.Equal(t, domain.ProtocolV3, last.Protocol)
	require.Equal(t, domain.FeeTierLow, last.FeeTier)
	require.Equal(t, "12.5", last.TVLNative.String())
}

var blockNumberRegexp = regexp.MustCompile(`block: \{ number: (\d+) \}`)

func TestRemoteProvider_RollsBackOnIndexerLag(t *testing.T) {
	const indexedUpTo = 19_000_000

	var blocks []uint64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query string `json:"query"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		match := blockNumberRegexp.FindStringSubmatch(body.Query)
		require.Len(t, match, 2)
		block, parseErr := strconv.ParseUint(match[1], 10, 64)
		require.NoError(t, parseErr)
		blocks = append(blocks, block)

		w.Header().Set("Content-Type", "application/json")
		if block > indexedUpTo {
			fmt.Fprintf(w, `{"errors":[{"message":"block not yet indexed, indexed up to block number %d"}]}`, indexedUpTo)
			return
		}
		fmt.Fprint(w, `{"data":{"pools":[
			{"id":"0xpool","token0":{"id":"0xaaa"},"token1":{"id":"0xbbb"},"feeTier":"3000","totalValueLockedETH":"1","totalValueLockedUSD":"1"}
		]}}`)
	}))
	defer server.Close()

	provider := subgraph.NewRemoteProvider(server.URL, domain.ProtocolV3, 5*time.Second, 2, &log.NoOpLogger{})

	// Pin nine past the indexer head: one rollback lands exactly on head-1.
	pools, err := provider.ListPools(context.Background(), nil, nil, indexedUpTo+9)
	require.NoError(t, err)
	require.Len(t, pools, 1)

	require.Equal(t, []uint64{indexedUpTo + 9, indexedUpTo - 1}, blocks)
}

func TestFallbackProvider_FirstSuccessWins(t *testing.T) {
	failing := &scriptedProvider{err: errors.New("unreachable")}
	serving := &scriptedProvider{pools: []domain.SubgraphPool{{ID: "0xpool", Protocol: domain.ProtocolV3}}}
	unused := &scriptedProvider{err: errors.New("must not be called"), panicOnCall: true}

	provider := subgraph.NewFallbackProvider(&log.NoOpLogger{}, failing, serving, unused)

	pools, err := provider.ListPools(context.Background(), nil, nil, 0)
	require.NoError(t, err)
	require.Len(t, pools, 1)
	require.Equal(t, "0xpool", pools[0].ID)
}

func TestFallbackProvider_AllExhausted(t *testing.T) {
	first := &scriptedProvider{err: errors.New("unreachable")}
	second := &scriptedProvider{err: errors.New("also unreachable")}

	provider := subgraph.NewFallbackProvider(&log.NoOpLogger{}, first, second)

	_, err := provider.ListPools(context.Background(), nil, nil, 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "also unreachable")
}

func TestStaticProvider_ServesSeeds(t *testing.T) {
	provider := subgraph.NewStaticProvider(domain.ChainMainnet, domain.ProtocolV3)

	pools, err := provider.ListPools(context.Background(), nil, nil, 0)
	require.NoError(t, err)
	require.NotEmpty(t, pools)

	// Every base pair appears once per fee tier.
	require.Zero(t, len(pools)%len(domain.FeeTiers))
	for _, pool := range pools {
		require.Equal(t, domain.ProtocolV3, pool.Protocol)
		require.Len(t, pool.TokenIDs, 2)
	}
}

type scriptedProvider struct {
	pools       []domain.SubgraphPool
	err         error
	panicOnCall bool
}

func (p *scriptedProvider) ListPools(ctx context.Context, tokenIn, tokenOut *domain.Token, blockNumber uint64) ([]domain.SubgraphPool, error) {
	if p.panicOnCall {
		panic("provider past the first success must not be called")
	}
	return p.pools, p.err
}

func (p *scriptedProvider) Protocol() domain.Protocol {
	return domain.ProtocolV3
}

func fullPageResponse(n int) string {
	pools := make([]string, 0, n)
	for i := 0; i < n; i++ {
		pools = append(pools, fmt.Sprintf(
			`{"id":"0x%06d","token0":{"id":"0xaaa"},"token1":{"id":"0xbbb"},"feeTier":"3000","totalValueLockedETH":"1","totalValueLockedUSD":"1"}`, i))
	}
	out := `{"data":{"pools":[`
	for i, pool := range pools {
		if i > 0 {
			out += ","
		}
		out += pool
	}
	return out + `]}}`
}
