package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/michaelpento.lv/lendvault/config"
	"github.com/michaelpento.lv/lendvault/ledger"
	"github.com/michaelpento.lv/lendvault/lending"
	"github.com/michaelpento.lv/lendvault/metrics"
	"github.com/michaelpento.lv/lendvault/oracle"
	"github.com/michaelpento.lv/lendvault/registry"
	"github.com/michaelpento.lv/lendvault/risk"
	"github.com/michaelpento.lv/lendvault/transfer"
	"github.com/michaelpento.lv/lendvault/utils"
	"github.com/michaelpento.lv/lendvault/valuation"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the lending engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := utils.GetLogger()
		ctx := cmd.Context()

		if err := config.LoadEnv(); err != nil {
			log.Debug("no .env file loaded", zap.Error(err))
		}

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		client, err := ethclient.Dial(cfg.RPCEndpoint)
		if err != nil {
			return fmt.Errorf("failed to connect to Ethereum node: %w", err)
		}
		defer client.Close()

		chainID, err := client.ChainID(ctx)
		if err != nil {
			return fmt.Errorf("failed to query chain id: %w", err)
		}
		if chainID.Uint64() != cfg.ChainID {
			return fmt.Errorf("chain id mismatch: node reports %s, config expects %d", chainID, cfg.ChainID)
		}

		rawKey, err := config.GetRequiredEnv(config.EnvPrivateKey)
		if err != nil {
			return err
		}
		poolKey, err := crypto.HexToECDSA(strings.TrimPrefix(rawKey, "0x"))
		if err != nil {
			return fmt.Errorf("failed to parse pool key: %w", err)
		}
		opts, err := bind.NewKeyedTransactorWithChainID(poolKey, chainID)
		if err != nil {
			return fmt.Errorf("failed to build transactor: %w", err)
		}

		reg := registry.New()
		for _, asset := range cfg.Assets {
			reg.RegisterAsset(common.HexToAddress(asset.Address), common.HexToAddress(asset.PriceFeed))
			log.Info("asset listed",
				zap.String("symbol", asset.Symbol),
				zap.String("address", asset.Address),
				zap.String("price_feed", asset.PriceFeed),
			)
		}

		limiter := rate.NewLimiter(
			rate.Limit(cfg.OracleRateLimit.RequestsPerSecond),
			cfg.OracleRateLimit.BurstSize,
		)
		prices, err := oracle.NewChainlinkSource(client, limiter, log)
		if err != nil {
			return fmt.Errorf("failed to create price source: %w", err)
		}

		vault, err := transfer.NewERC20Vault(client, opts, common.HexToAddress(cfg.VaultPool), log)
		if err != nil {
			return fmt.Errorf("failed to create vault: %w", err)
		}

		events, err := lending.NewEventLog(cfg.EventLogSize)
		if err != nil {
			return fmt.Errorf("failed to create event log: %w", err)
		}

		promReg := prometheus.NewRegistry()
		led := ledger.New()
		val := valuation.New(reg, prices)
		svc := lending.New(lending.Deps{
			Registry:  reg,
			Ledger:    led,
			Valuation: val,
			Risk:      risk.New(reg, led, val),
			Vault:     vault,
			Events:    events,
			Logger:    log,
			Metrics:   metrics.New(promReg, "lendvault"),
		})

		log.Info("lending engine ready",
			zap.Uint64("chain_id", cfg.ChainID),
			zap.String("pool", cfg.VaultPool),
			zap.Int("assets", len(cfg.Assets)),
		)

		if cfg.MetricsEnabled {
			server := statusServer(cfg.MetricsListenAddr, promReg, svc, events)
			go func() {
				log.Info("status server listening", zap.String("addr", cfg.MetricsListenAddr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("status server failed", zap.Error(err))
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					log.Error("status server shutdown failed", zap.Error(err))
				}
			}()
		}

		<-ctx.Done()
		log.Info("shutting down gracefully...")
		return nil
	},
}

// statusServer exposes prometheus metrics, recent events and per-account
// positions for operators.
func statusServer(addr string, promReg *prometheus.Registry, svc *lending.Service, events *lending.EventLog) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		type entry struct {
			Name  string        `json:"name"`
			Event lending.Event `json:"event"`
		}
		recent := events.Recent()
		out := make([]entry, 0, len(recent))
		for _, ev := range recent {
			out = append(out, entry{Name: ev.Name(), Event: ev})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("/accounts/", func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.URL.Path, "/accounts/")
		if !common.IsHexAddress(raw) {
			http.Error(w, "invalid account address", http.StatusBadRequest)
			return
		}
		account := common.HexToAddress(raw)

		borrowed, collateral, err := svc.GetAccountInformation(r.Context(), account)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		hf, err := svc.HealthFactor(r.Context(), account)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"account":          account.Hex(),
			"borrowed_value":   borrowed.String(),
			"collateral_value": collateral.String(),
			"health_factor":    hf.String(),
		})
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func init() {
	rootCmd.AddCommand(startCmd)
}
