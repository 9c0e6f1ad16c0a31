package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/domain/mvc"
	"github.com/Maia-DAO/smart-order-router/log"
)

const (
	pageSize = 1000

	// indexerRollbackDelta is subtracted from the pinned block when the
	// indexer reports it has not reached it yet.
	indexerRollbackDelta = 10
)

// indexedUpToRegexp matches the indexer's lag error, e.g.
// "Failed to decode ... block ... indexed up to block number 19000000".
var indexedUpToRegexp = regexp.MustCompile(`indexed up to block number (\d+)`)

const v3PoolsQuery = `query pools($pageSize: Int!, $id: String) {
  pools(first: $pageSize, %s where: { id_gt: $id }) {
    id
    token0 { id symbol }
    token1 { id symbol }
    feeTier
    liquidity
    totalValueLockedETH
    totalValueLockedUSD
  }
}`

const v2PoolsQuery = `query pools($pageSize: Int!, $id: String) {
  pools: pairs(first: $pageSize, %s where: { id_gt: $id }) {
    id
    token0 { id symbol }
    token1 { id symbol }
    reserveETH
    reserveUSD
  }
}`

const stablePoolsQuery = `query pools($pageSize: Int!, $id: String) {
  pools(first: $pageSize, %s where: { id_gt: $id }) {
    id
    tokens { id symbol }
    wrapper { id }
    totalShares
    totalValueLockedETH
    totalValueLockedUSD
  }
}`

// remoteProvider pages through a hosted indexer with retry. It rolls the
// pinned block back when the indexer lags behind the requested block.
type remoteProvider struct {
	url      string
	protocol domain.Protocol
	client   *http.Client
	retries  int
	logger   log.Logger
}

// NewRemoteProvider creates a paginated GraphQL subgraph provider.
func NewRemoteProvider(url string, protocol domain.Protocol, timeout time.Duration, retries int, logger log.Logger) mvc.SubgraphProvider {
	return &remoteProvider{
		url:      url,
		protocol: protocol,
		client:   &http.Client{Timeout: timeout},
		retries:  retries,
		logger:   logger,
	}
}

// Protocol implements mvc.SubgraphProvider.
func (p *remoteProvider) Protocol() domain.Protocol {
	return p.protocol
}

// ListPools implements mvc.SubgraphProvider.
func (p *remoteProvider) ListPools(ctx context.Context, tokenIn, tokenOut *domain.Token, blockNumber uint64) ([]domain.SubgraphPool, error) {
	var (
		pools   []domain.SubgraphPool
		lastErr error
	)

	block := blockNumber

	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			// Jittered backoff between attempts.
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			backoff += time.Duration(rand.Int63n(int64(time.Second)))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		pools, lastErr = p.listAllPages(ctx, block)
		if lastErr == nil {
			return filterByTokens(pools, tokenIn, tokenOut), nil
		}

		// When the indexer has not reached the pinned block, roll the
		// requested block back; the next attempt, after the usual backoff,
		// queries the earlier block.
		if block > indexerRollbackDelta && indexedUpToRegexp.MatchString(lastErr.Error()) {
			rolledBack := block - indexerRollbackDelta
			p.logger.Info("subgraph lagging behind pinned block, rolling back",
				zap.Uint64("requested_block", block),
				zap.Uint64("rolled_back_block", rolledBack))
			block = rolledBack
			continue
		}

		p.logger.Info("subgraph listing failed, retrying",
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
	}

	return nil, fmt.Errorf("%w: subgraph %s: %s", domain.ErrInternalServerError, p.url, lastErr)
}

func (p *remoteProvider) listAllPages(ctx context.Context, blockNumber uint64) ([]domain.SubgraphPool, error) {
	var (
		pools  []domain.SubgraphPool
		lastID string
	)

	query := p.query(blockNumber)

	for {
		page, err := p.fetchPage(ctx, query, lastID)
		if err != nil {
			return nil, err
		}

		for _, raw := range page {
			pools = append(pools, p.mapPool(raw))
		}

		if len(page) < pageSize {
			return pools, nil
		}
		lastID = page[len(page)-1].ID
	}
}

// query renders the protocol query with the optional block pin.
func (p *remoteProvider) query(blockNumber uint64) string {
	blockClause := ""
	if blockNumber > 0 {
		blockClause = fmt.Sprintf("block: { number: %d },", blockNumber)
	}

	switch p.protocol {
	case domain.ProtocolV2:
		return fmt.Sprintf(v2PoolsQuery, blockClause)
	case domain.ProtocolStable:
		return fmt.Sprintf(stablePoolsQuery, blockClause)
	default:
		return fmt.Sprintf(v3PoolsQuery, blockClause)
	}
}

func (p *remoteProvider) fetchPage(ctx context.Context, query, lastID string) ([]poolResponse, error) {
	body, err := json.Marshal(graphqlRequest{
		Query: query,
		Variables: map[string]interface{}{
			"pageSize": pageSize,
			"id":       lastID,
		},
	})
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := p.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("subgraph returned status %d", response.StatusCode)
	}

	var decoded graphqlResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return nil, err
	}

	if len(decoded.Errors) > 0 {
		messages := make([]string, 0, len(decoded.Errors))
		for _, graphErr := range decoded.Errors {
			messages = append(messages, graphErr.Message)
		}
		return nil, fmt.Errorf("subgraph error: %s", strings.Join(messages, "; "))
	}

	return decoded.Data.Pools, nil
}

func (p *remoteProvider) mapPool(raw poolResponse) domain.SubgraphPool {
	pool := domain.SubgraphPool{
		ID:       strings.ToLower(raw.ID),
		Protocol: p.protocol,
	}

	switch p.protocol {
	case domain.ProtocolV2:
		pool.TokenIDs = []string{strings.ToLower(raw.Token0.ID), strings.ToLower(raw.Token1.ID)}
		pool.TVLNative = parseDecimal(raw.ReserveNative)
		pool.TVLUSD = parseDecimal(raw.ReserveUSD)
		pool.Reserve = parseDecimal(raw.ReserveNative)
	case domain.ProtocolStable:
		for _, token := range raw.Tokens {
			pool.TokenIDs = append(pool.TokenIDs, strings.ToLower(token.ID))
		}
		if raw.Wrapper != nil {
			pool.Wrapper = strings.ToLower(raw.Wrapper.ID)
		}
		pool.TotalShares = parseDecimal(raw.TotalShares)
		pool.TVLNative = parseDecimal(raw.TVLNative)
		pool.TVLUSD = parseDecimal(raw.TVLUSD)
	default:
		pool.TokenIDs = []string{strings.ToLower(raw.Token0.ID), strings.ToLower(raw.Token1.ID)}
		pool.FeeTier = parseFeeTier(raw.FeeTier)
		pool.TVLNative = parseDecimal(raw.TVLNative)
		pool.TVLUSD = parseDecimal(raw.TVLUSD)
	}

	return pool
}

func parseDecimal(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return parsed
}

func parseFeeTier(value string) domain.FeeTier {
	parsed, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0
	}
	return domain.FeeTier(parsed)
}
