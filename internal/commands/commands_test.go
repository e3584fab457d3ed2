package commands

import (
	"context"

	"crypto-daddy-bot/internal/types"
	"crypto-daddy-bot/lib/translation"
)

const testCatalog = `
msgid "common.executionError"
msgstr "oops"

msgid "HelpCommand.introMsg"
msgstr "hi"

msgid "HelpCommand.helpMsg"
msgstr "help"

msgid "JokeCommand.jokes"
msgstr ""
"first\n"
"second\n"
"third"

msgid "HashrateCommand.help"
msgstr "which gpu?"

msgid "HashrateCommand.resultIntro"
msgstr "found:\n"

msgid "HashrateCommand.gpuInfo"
msgstr "{{title}} {{hashrate}} {{roi}}"

msgid "HashrateCommand.gpuInfoSeparator"
msgstr "\n"

msgid "HashrateCommand.gpuNotFound"
msgstr "no such gpu"

msgid "RateCommand.priceDirectionUp"
msgstr "up"

msgid "RateCommand.priceDirectionDown"
msgstr "down"

msgid "RateCommand.rateInfo"
msgstr "{{rub.official}} {{rub.aliexpress}} {{rub.exchange}}"

msgid "RateCommand.rateInfoRow"
msgstr " {{ticker.price}}"

msgid "ExchangeCommand.resultIntro"
msgstr "intro"

msgid "ExchangeCommand.rateInfo"
msgstr "{{fromSymbol}}/{{toSymbol}}"

msgid "ExchangeCommand.rateInfoRow"
msgstr "{{title}} {{price}}"
`

func testFormatter() *translation.Translator {
	return translation.FromCatalog("test", []byte(testCatalog))
}

type rubFunc func(ctx context.Context) (string, error)

func (f rubFunc) GetUsdRub(ctx context.Context) (string, error) {
	return f(ctx)
}

type aliexpressFunc func(ctx context.Context) (string, error)

func (f aliexpressFunc) GetAliexpressRub(ctx context.Context) (string, error) {
	return f(ctx)
}

type listerFunc func(ctx context.Context, from, to string) ([]types.ExchangeQuote, error)

func (f listerFunc) GetRates(ctx context.Context, from, to string) ([]types.ExchangeQuote, error) {
	return f(ctx, from, to)
}

type cryptoFunc func(ctx context.Context) ([]types.CryptoTicker, error)

func (f cryptoFunc) GetTickers(ctx context.Context) ([]types.CryptoTicker, error) {
	return f(ctx)
}

type gpuFunc func(ctx context.Context) ([]types.GpuEntry, error)

func (f gpuFunc) GetGpus(ctx context.Context) ([]types.GpuEntry, error) {
	return f(ctx)
}

type directionFunc func(ctx context.Context, from, to, fromSymbol, toSymbol string) ([]types.ExchangeQuote, error)

func (f directionFunc) GetDirection(ctx context.Context, from, to, fromSymbol, toSymbol string) ([]types.ExchangeQuote, error) {
	return f(ctx, from, to, fromSymbol, toSymbol)
}
