package asset

import "github.com/wadeaT/ETH-ERC20-Mainnet-wallet/internal/model"

// Default returns the built-in asset set: ETH plus the mainnet ERC-20 tokens
// the wallet supports, and the ETH derivatives that track its price.
//
// USDT carries no Binance pair (there is no USDTUSDT market), so its price
// comes from the REST aggregators only.
func Default() []model.Asset {
	return []model.Asset{
		{ID: "ethereum", Symbol: "ETH", Name: "Ethereum", CoinGeckoID: "ethereum", BinanceSymbol: "ETHUSDT", CryptoCompareSym: "ETH"},
		{ID: "tether", Symbol: "USDT", Name: "Tether", CoinGeckoID: "tether", CryptoCompareSym: "USDT"},
		{ID: "usd-coin", Symbol: "USDC", Name: "USD Coin", CoinGeckoID: "usd-coin", BinanceSymbol: "USDCUSDT", CryptoCompareSym: "USDC"},
		{ID: "chainlink", Symbol: "LINK", Name: "Chainlink", CoinGeckoID: "chainlink", BinanceSymbol: "LINKUSDT", CryptoCompareSym: "LINK"},
		{ID: "uniswap", Symbol: "UNI", Name: "Uniswap", CoinGeckoID: "uniswap", BinanceSymbol: "UNIUSDT", CryptoCompareSym: "UNI"},
		{ID: "aave", Symbol: "AAVE", Name: "Aave", CoinGeckoID: "aave", BinanceSymbol: "AAVEUSDT", CryptoCompareSym: "AAVE"},
		{ID: "matic-network", Symbol: "MATIC", Name: "Polygon", CoinGeckoID: "matic-network", BinanceSymbol: "MATICUSDT", CryptoCompareSym: "MATIC"},
		{ID: "maker", Symbol: "MKR", Name: "Maker", CoinGeckoID: "maker", BinanceSymbol: "MKRUSDT", CryptoCompareSym: "MKR"},
		{ID: "arbitrum", Symbol: "ARB", Name: "Arbitrum", CoinGeckoID: "arbitrum", BinanceSymbol: "ARBUSDT", CryptoCompareSym: "ARB"},
		{ID: "optimism", Symbol: "OP", Name: "Optimism", CoinGeckoID: "optimism", BinanceSymbol: "OPUSDT", CryptoCompareSym: "OP"},

		// ETH derivatives: priced from the same tick as ETH itself.
		{ID: "weth", Symbol: "WETH", Name: "Wrapped Ether", MirrorOf: "ethereum"},
		{ID: "staked-ether", Symbol: "STETH", Name: "Lido Staked Ether", MirrorOf: "ethereum"},
		{ID: "wrapped-beacon-eth", Symbol: "WBETH", Name: "Wrapped Beacon ETH", MirrorOf: "ethereum"},
	}
}
