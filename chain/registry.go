package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Maia-DAO/smart-order-router/domain"
)

// Registry holds the per-chain process-wide configuration: wrapped native
// currencies, base tokens, reference USD tokens and contract addresses.
// All tables are initialized once and never mutated.

// WrappedNative returns the wrapped twin of the chain's native currency.
func WrappedNative(chainID domain.ChainID) (domain.Token, error) {
	token, ok := wrappedNativeByChain[chainID]
	if !ok {
		return domain.Token{}, fmt.Errorf("%w: %d", domain.ErrUnsupportedChain, chainID)
	}
	return token, nil
}

// NativeCurrency returns the chain's native currency placeholder.
func NativeCurrency(chainID domain.ChainID) (domain.Token, error) {
	if _, err := WrappedNative(chainID); err != nil {
		return domain.Token{}, err
	}
	return domain.Token{
		ChainID:  chainID,
		Decimals: 18,
		Symbol:   "ETH",
		IsNative: true,
	}, nil
}

// BaseTokens returns the per-chain high-liquidity reference tokens used to
// seed candidate-pool selection.
func BaseTokens(chainID domain.ChainID) []domain.Token {
	return baseTokensByChain[chainID]
}

// USDToken returns the chain's reference USD token used for gas cost
// conversion and TVL figures.
func USDToken(chainID domain.ChainID) (domain.Token, error) {
	token, ok := usdTokenByChain[chainID]
	if !ok {
		return domain.Token{}, fmt.Errorf("%w: %d", domain.ErrUnsupportedChain, chainID)
	}
	return token, nil
}

// MulticallAddress returns the chain's interface multicall contract,
// the variant carrying a per-call gas limit and per-call gas accounting.
func MulticallAddress(chainID domain.ChainID) common.Address {
	if addr, ok := multicallByChain[chainID]; ok {
		return addr
	}
	return common.HexToAddress("0x1F98415757620B543A52E61c46B32eB19261F984")
}

var multicallByChain = map[domain.ChainID]common.Address{
	domain.ChainSepolia:  common.HexToAddress("0xD7F33bCdb21b359c8ee6F0251d30E94832baAd07"),
	domain.ChainArbitrum: common.HexToAddress("0xadF885960B47eA2CD9B55E6DAc6B42b7Cb2806dB"),
}

// V3FactoryAddress returns the concentrated-liquidity factory.
func V3FactoryAddress(chainID domain.ChainID) common.Address {
	if addr, ok := v3FactoryByChain[chainID]; ok {
		return addr
	}
	return common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")
}

// V2FactoryAddress returns the constant-product pair factory.
func V2FactoryAddress(chainID domain.ChainID) common.Address {
	if addr, ok := v2FactoryByChain[chainID]; ok {
		return addr
	}
	return common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
}

// StableVaultAddress returns the stable-swap vault holding all stable pool
// balances. One vault per chain.
func StableVaultAddress(domain.ChainID) common.Address {
	return common.HexToAddress("0xBA12222222228d8Ba445958a75a0704d566BF2C8")
}

// V3PoolInitCodeHash is the init code hash used for deterministic
// concentrated-liquidity pool address derivation.
var V3PoolInitCodeHash = common.HexToHash("0xe34f199b19b2b4f47f68442619d555527d244f78a3297ea89325f843f87b8b54")

// V2PoolInitCodeHash is the init code hash used for deterministic pair
// address derivation.
var V2PoolInitCodeHash = common.HexToHash("0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbee326c3e7da348845f")

// QuoterAddress returns the on-chain quoter contract used for swap simulation.
func QuoterAddress(chainID domain.ChainID) common.Address {
	if addr, ok := quoterByChain[chainID]; ok {
		return addr
	}
	return common.HexToAddress("0x61fFE014bA17989E743c5F6cB21bF9697530B21e")
}

// MixedQuoterAddress returns the quoter simulating routes that mix pool
// protocols within one path.
func MixedQuoterAddress(chainID domain.ChainID) common.Address {
	if addr, ok := mixedQuoterByChain[chainID]; ok {
		return addr
	}
	return common.HexToAddress("0x84E44095eeBfEC7793Cd7d5b57B7e401D7f1cA2E")
}

var mixedQuoterByChain = map[domain.ChainID]common.Address{}

// SwapRouterAddress returns the on-chain swap router targeted by the
// assembled call parameters.
func SwapRouterAddress(chainID domain.ChainID) common.Address {
	if addr, ok := swapRouterByChain[chainID]; ok {
		return addr
	}
	return common.HexToAddress("0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45")
}

// GasPriceOracleAddress returns the rollup fee oracle predeploy for chains
// charging an L1 data fee.
func GasPriceOracleAddress(domain.ChainID) common.Address {
	return common.HexToAddress("0x420000000000000000000000000000000000000F")
}

// RPCEnvVar names the environment variable holding the chain's node RPC URL.
func RPCEnvVar(chainID domain.ChainID) string {
	switch chainID {
	case domain.ChainMainnet:
		return "JSON_RPC_PROVIDER_MAINNET"
	case domain.ChainOptimism:
		return "JSON_RPC_PROVIDER_OPTIMISM"
	case domain.ChainArbitrum:
		return "JSON_RPC_PROVIDER_ARBITRUM"
	case domain.ChainSepolia:
		return "JSON_RPC_PROVIDER_SEPOLIA"
	default:
		return ""
	}
}

var wrappedNativeByChain = map[domain.ChainID]domain.Token{
	domain.ChainMainnet: domain.NewToken(domain.ChainMainnet,
		common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), 18, "WETH"),
	domain.ChainOptimism: domain.NewToken(domain.ChainOptimism,
		common.HexToAddress("0x4200000000000000000000000000000000000006"), 18, "WETH"),
	domain.ChainArbitrum: domain.NewToken(domain.ChainArbitrum,
		common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"), 18, "WETH"),
	domain.ChainSepolia: domain.NewToken(domain.ChainSepolia,
		common.HexToAddress("0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14"), 18, "WETH"),
}

var usdTokenByChain = map[domain.ChainID]domain.Token{
	domain.ChainMainnet: domain.NewToken(domain.ChainMainnet,
		common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), 6, "USDC"),
	domain.ChainOptimism: domain.NewToken(domain.ChainOptimism,
		common.HexToAddress("0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85"), 6, "USDC"),
	domain.ChainArbitrum: domain.NewToken(domain.ChainArbitrum,
		common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831"), 6, "USDC"),
	domain.ChainSepolia: domain.NewToken(domain.ChainSepolia,
		common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"), 6, "USDC"),
}

var baseTokensByChain = map[domain.ChainID][]domain.Token{
	domain.ChainMainnet: {
		wrappedNativeByChain[domain.ChainMainnet],
		usdTokenByChain[domain.ChainMainnet],
		domain.NewToken(domain.ChainMainnet, common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), 18, "DAI"),
		domain.NewToken(domain.ChainMainnet, common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"), 6, "USDT"),
		domain.NewToken(domain.ChainMainnet, common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"), 8, "WBTC"),
	},
	domain.ChainOptimism: {
		wrappedNativeByChain[domain.ChainOptimism],
		usdTokenByChain[domain.ChainOptimism],
		domain.NewToken(domain.ChainOptimism, common.HexToAddress("0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1"), 18, "DAI"),
		domain.NewToken(domain.ChainOptimism, common.HexToAddress("0x94b008aA00579c1307B0EF2c499aD98a8ce58e58"), 6, "USDT"),
	},
	domain.ChainArbitrum: {
		wrappedNativeByChain[domain.ChainArbitrum],
		usdTokenByChain[domain.ChainArbitrum],
		domain.NewToken(domain.ChainArbitrum, common.HexToAddress("0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1"), 18, "DAI"),
		domain.NewToken(domain.ChainArbitrum, common.HexToAddress("0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9"), 6, "USDT"),
		domain.NewToken(domain.ChainArbitrum, common.HexToAddress("0x2f2a2543B76A4166549F7aaB2e75Bef0aefC5B0f"), 8, "WBTC"),
	},
	domain.ChainSepolia: {
		wrappedNativeByChain[domain.ChainSepolia],
		usdTokenByChain[domain.ChainSepolia],
	},
}

var v2FactoryByChain = map[domain.ChainID]common.Address{
	domain.ChainSepolia:  common.HexToAddress("0xF62c03E08ada871A0bEb309762E260a7a6a880E6"),
	domain.ChainArbitrum: common.HexToAddress("0xf1D7CC64Fb4452F05c498126312eBE29f30Fbcf9"),
	domain.ChainOptimism: common.HexToAddress("0x0c3c1c532F1e39EdF36BE9Fe0bE1410313E074Bf"),
}

var v3FactoryByChain = map[domain.ChainID]common.Address{
	domain.ChainSepolia: common.HexToAddress("0x0227628f3F023bb0B980b67D528571c95c6DaC1c"),
}

var quoterByChain = map[domain.ChainID]common.Address{
	domain.ChainSepolia: common.HexToAddress("0xEd1f6473345F45b75F8179591dd5bA1888cf2FB3"),
}

var swapRouterByChain = map[domain.ChainID]common.Address{
	domain.ChainSepolia: common.HexToAddress("0x3bFA4769FB09eefC5a80d6E87c3B9C650f7Ae48E"),
}
