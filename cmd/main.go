package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"crypto-daddy-bot/config"
	"crypto-daddy-bot/internal/cache"
	"crypto-daddy-bot/internal/commands"
	"crypto-daddy-bot/internal/database"
	"crypto-daddy-bot/internal/dispatcher"
	"crypto-daddy-bot/internal/metrics"
	"crypto-daddy-bot/internal/source"
	"crypto-daddy-bot/internal/telegram"
	"crypto-daddy-bot/lib/translation"
)

const shutdownTimeout = 10 * time.Second

// warmer is a command that keeps its cache fresh in the background.
type warmer interface {
	Start(ctx context.Context)
	Wait()
}

func init() {
	config.InitConfig()
	setupLogging()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	botMetrics := metrics.New(prometheus.DefaultRegisterer)

	var store *database.Store
	if path := config.GetString("metrics_db_path"); path != "" {
		var err error
		store, err = database.Open(path)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		if err := botMetrics.Load(store); err != nil {
			log.Errorf("Failed to load metrics: %v", err)
		}
	}

	tr := translation.New(config.GetString("lang"))
	client := source.NewHTTPClient(config.GetDuration("request_timeout"))

	refresh := func(interval time.Duration) commands.RefreshConfig {
		return commands.RefreshConfig{
			Interval:       interval,
			Retry:          cache.DefaultRetry,
			OnRefresh:      botMetrics.ObserveRefresh,
			OnFetchFailure: botMetrics.ObserveFetchFailure,
		}
	}

	lister, from, to := usdtLister(client)
	rate := commands.NewRateCommand(tr, commands.RateSources{
		Official:     commands.UsdRubChain{source.NewBankiros(client), source.NewMoex(client)},
		Aliexpress:   source.NewHelpix(client),
		Exchange:     lister,
		ExchangeFrom: from,
		ExchangeTo:   to,
		Crypto:       cryptoSource(client),
	}, refresh(commands.RateRefreshInterval))

	jokes := commands.NewJokeCommand(tr)
	hashrate := commands.NewHashrateCommand(tr, source.NewHashrateNo(client), jokes, refresh(commands.HashrateRefreshInterval))
	exchange := commands.NewExchangeCommand(tr, source.NewBestchange(client), commands.EthTinkoff, refresh(commands.ExchangeRefreshInterval))

	d := dispatcher.New(tr,
		commands.NewHelpCommand(tr),
		jokes,
		hashrate,
		rate,
		exchange,
	)

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          config.GetString("telegram_bot_token"),
		Debug:          config.GetBool("debug"),
		UpdatesTimeout: 60,
	})
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	log.Infof("Starting bot @%s", bot.Bot.Self.UserName)

	warmers := []warmer{rate, hashrate, exchange}
	for _, w := range warmers {
		w.Start(ctx)
	}

	server := metrics.NewServer(config.GetInt("metrics_port"), prometheus.DefaultGatherer)
	server.Start()

	var persist sync.WaitGroup
	if store != nil {
		persist.Add(1)
		go func() {
			defer persist.Done()
			botMetrics.Persist(ctx, store, metrics.DefaultSaveInterval)
		}()
	}

	handler := telegram.NewHandler(bot, d, botMetrics)
	handler.Serve(ctx, bot.GetUpdatesChannel())

	// Serve also returns when the updates channel closes on its own
	stop()
	log.Info("Shutting down...")
	bot.StopReceivingUpdates()

	for _, w := range warmers {
		w.Wait()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Failed to stop metrics server: %v", err)
	}

	persist.Wait()
	log.Info("Bot stopped")
}

func setupLogging() {
	log.SetLevel(log.ErrorLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting telegram bot...")
}

// usdtLister picks the USDT -> RUB exchange lister and its direction ids.
func usdtLister(client *http.Client) (commands.ExchangeLister, string, string) {
	switch name := config.GetString("exchange_source"); name {
	case "bestchange":
		return source.NewBestchange(client), "10", "105"
	case "kursexpert":
	default:
		log.Warnf("unknown exchange_source %q, using kursexpert", name)
	}
	return source.NewKursExpert(client), "usdt.trc-20", "tinkoff"
}

func cryptoSource(client *http.Client) commands.CryptoSource {
	switch name := config.GetString("crypto_source"); name {
	case "coinpaprika":
		return source.NewCoinPaprika(client, config.GetString("api_pro_key"))
	case "coingecko":
	default:
		log.Warnf("unknown crypto_source %q, using coingecko", name)
	}
	return source.NewCoinGecko(client)
}
