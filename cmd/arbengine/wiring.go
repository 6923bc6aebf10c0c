package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crossvenue/arbengine/internal/aggregator"
	"github.com/crossvenue/arbengine/internal/blockhash"
	"github.com/crossvenue/arbengine/internal/config"
	"github.com/crossvenue/arbengine/internal/detector"
	"github.com/crossvenue/arbengine/internal/domain"
	"github.com/crossvenue/arbengine/internal/engine"
	"github.com/crossvenue/arbengine/internal/execution"
	"github.com/crossvenue/arbengine/internal/httpapi"
	"github.com/crossvenue/arbengine/internal/metrics"
	"github.com/crossvenue/arbengine/internal/net/budget"
	"github.com/crossvenue/arbengine/internal/net/circuit"
	netclient "github.com/crossvenue/arbengine/internal/net/client"
	"github.com/crossvenue/arbengine/internal/net/ratelimit"
	"github.com/crossvenue/arbengine/internal/persistence"
	"github.com/crossvenue/arbengine/internal/persistence/postgres"
	"github.com/crossvenue/arbengine/internal/pricecache"
	"github.com/crossvenue/arbengine/internal/registry"
	"github.com/crossvenue/arbengine/internal/risk"
	"github.com/crossvenue/arbengine/internal/sidecar"
	"github.com/crossvenue/arbengine/internal/stats"
	"github.com/crossvenue/arbengine/internal/tiporacle"
	"github.com/crossvenue/arbengine/internal/venues"
	"github.com/crossvenue/arbengine/internal/wallet"
)

// components holds every wired dependency the run/paper commands need,
// plus a cleanup function to release them in reverse order.
type components struct {
	engine     *engine.Engine
	httpServer *httpapi.Server
	cache      *pricecache.Cache
	tips       *tiporacle.Oracle
	blockhash  *blockhash.Cache
	cleanup    func()
}

const priceCachePollInterval = 2 * time.Second

// providerClient builds a rate-limited, circuit-broken HTTP client for
// one outbound provider per §4/§5's operational defaults.
func providerClient(pc config.ProviderConfig) *http.Client {
	limiter := ratelimit.NewLimiter(pc.RPS, pc.Burst)
	breaker := circuit.NewBreaker(circuit.Config{
		FailureThreshold: pc.FailureThreshold,
		SuccessThreshold: pc.SuccessThreshold,
		Timeout:          pc.CircuitTimeout,
		RequestTimeout:   pc.RequestTimeout,
	})
	var tracker *budget.Tracker
	if pc.DailyBudget > 0 {
		tracker = budget.NewTracker(pc.DailyBudget, 0, 0.8)
	}
	return netclient.NewClient(pc, limiter, breaker, tracker)
}

const (
	tipAccountFetchAttempts = 3
	tipAccountFetchTimeout  = 5 * time.Second
	tipAccountFetchBackoff  = 2 * time.Second
)

// fetchTipAccount dials the sidecar's GetTipAccounts once at startup
// and resolves the first advertised account, retrying on transient
// dial/RPC failure. The returned address is cached by the caller and
// never refreshed — the tip-recipient address set is read-only after
// this initial fetch.
func fetchTipAccount(client *sidecar.Client) (domain.Address, error) {
	var lastErr error
	for attempt := 0; attempt < tipAccountFetchAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(tipAccountFetchBackoff)
		}
		ctx, cancel := context.WithTimeout(context.Background(), tipAccountFetchTimeout)
		accounts, err := client.GetTipAccounts(ctx)
		cancel()
		if err != nil {
			lastErr = err
			log.Warn().Err(err).Int("attempt", attempt+1).Msg("fetch tip accounts failed, retrying")
			continue
		}
		if len(accounts) == 0 {
			lastErr = fmt.Errorf("sidecar returned an empty tip account set")
			continue
		}
		addr, err := domain.ParseBase58Address(accounts[0])
		if err != nil {
			return domain.Address{}, fmt.Errorf("parse tip account %q: %w", accounts[0], err)
		}
		return addr, nil
	}
	return domain.Address{}, lastErr
}

func buildComponents(cfg *config.Config, paperTrading bool) (*components, error) {
	venueDescriptors, err := registry.LoadVenuesFromYAML(cfg.VenuesConfigPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.VenuesConfigPath).Msg("falling back to built-in venue table")
		venueDescriptors = registry.DefaultVenues()
	}
	venueRegistry, err := registry.NewVenueRegistry(venueDescriptors)
	if err != nil {
		return nil, fmt.Errorf("build venue registry: %w", err)
	}
	pools := registry.NewPoolRegistry()
	builders := venues.NewRegistry()

	priceClient := providerClient(config.PriceStreamConfig(cfg.StreamEndpoint))
	cache := pricecache.New(priceClient, cfg.StreamEndpoint, ratelimit.NewLimiter(10, 10))

	tipClient := providerClient(config.TipOracleConfig(cfg.TipOracleURL))
	tips := tiporacle.New(tipClient, cfg.TipOracleURL)

	rpcClient := providerClient(config.RPCConfig(cfg.RPCEndpoint))
	bh := blockhash.New(blockhash.NewRPCFetcher(rpcClient, cfg.RPCEndpoint))
	simulator := execution.NewRPCSimulator([]string{cfg.RPCEndpoint}, rpcClient)

	var signer *wallet.Keypair
	var submitter execution.Submitter
	var tipAccount domain.Address
	if !paperTrading {
		signer, err = wallet.Load(cfg.WalletKeyFile, cfg.WalletPasswordVar, cfg.WalletPrivateKey)
		if err != nil {
			return nil, fmt.Errorf("load wallet: %w", err)
		}
		if cfg.SidecarEndpoint != "" {
			sidecarClient, err := sidecar.NewClient([]string{cfg.SidecarEndpoint}, cfg.SidecarEndpoint)
			if err != nil {
				return nil, fmt.Errorf("dial sidecar: %w", err)
			}
			submitter = sidecarClient

			// The tip-recipient address set is read-only after this
			// initial fetch (§5); every live bundle's tip instruction
			// targets the first account of that set.
			tipAccount, err = fetchTipAccount(sidecarClient)
			if err != nil {
				return nil, fmt.Errorf("fetch tip accounts: %w", err)
			}
		}
	}

	var execRepo persistence.ExecutionsRepo
	var oppLogRepo persistence.OpportunityLogRepo
	var dbCleanup func()
	if cfg.DatabaseURL != "" {
		db, err := postgres.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		execRepo = postgres.NewExecutionsRepo(db, 5*time.Second)
		oppLogRepo = postgres.NewOpportunityLogRepo(db, 5*time.Second)
		dbCleanup = func() { db.Close() }
	} else {
		log.Warn().Msg("DATABASE_URL not set, execution and opportunity history will not be persisted")
	}

	pipeline, err := execution.New(pools, builders, tips, bh, signer, simulator, submitter, execRepo, execution.Config{
		PaperTrading:   paperTrading,
		AllowNonAtomic: cfg.AllowNonAtomic || paperTrading,
		TipPercentile:  cfg.TipPercentile,
		TipAccount:     tipAccount,
	})
	if err != nil {
		return nil, fmt.Errorf("build execution pipeline: %w", err)
	}

	m := metrics.NewRegistry()
	agg := stats.New(m)

	breaker := risk.New(risk.Limits{
		MaxDailyTrades:         cfg.MaxDailyTrades,
		DailyLossLimit:         cfg.DailyLossLimit,
		MaxConsecutiveFailures: cfg.MaxConsecutiveFailures,
	})

	d := detector.New(venueRegistry, cfg.MaxPositionSize)
	if cfg.AggregatorURL != "" {
		aggClient := providerClient(config.AggregatorQuoteConfig(cfg.AggregatorURL))
		d = d.WithCrossCheck(aggregator.New(aggClient, cfg.AggregatorURL))
	}

	eng := engine.New(cache, d, pipeline, breaker, agg, oppLogRepo, m, engine.Config{
		Capital:                    cfg.Capital,
		MaxConcurrentOpportunities: cfg.MaxConcurrentOpportunities,
	})

	httpServer, err := httpapi.NewServer(httpapi.DefaultConfig(), agg)
	if err != nil {
		return nil, fmt.Errorf("start monitoring server: %w", err)
	}

	return &components{
		engine:     eng,
		httpServer: httpServer,
		cache:      cache,
		tips:       tips,
		blockhash:  bh,
		cleanup: func() {
			if dbCleanup != nil {
				dbCleanup()
			}
			if submitter != nil {
				if c, ok := submitter.(*sidecar.Client); ok {
					c.Close()
				}
			}
		},
	}, nil
}
