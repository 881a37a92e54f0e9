package lending

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/lendvault/ledger"
	"github.com/michaelpento.lv/lendvault/metrics"
	"github.com/michaelpento.lv/lendvault/oracle"
	"github.com/michaelpento.lv/lendvault/registry"
	"github.com/michaelpento.lv/lendvault/risk"
	"github.com/michaelpento.lv/lendvault/transfer"
	umath "github.com/michaelpento.lv/lendvault/utils/math"
	"github.com/michaelpento.lv/lendvault/valuation"
)

const (
	// LiquidationBonusPct is the liquidator's incentive, added on top of
	// the seized collateral principal.
	LiquidationBonusPct = 5

	// LiquidationCloseFactorPct caps how much of the debt one liquidate
	// call may cover. Half per call leaves the position room to recover
	// instead of being wiped in one shot.
	LiquidationCloseFactorPct = 50
)

var (
	// ErrZeroAmount rejects no-op requests.
	ErrZeroAmount = errors.New("amount must be positive")
	// ErrWouldBreachHealthFactor rejects borrows and withdrawals that
	// would leave the account unsafe.
	ErrWouldBreachHealthFactor = errors.New("operation would breach health factor")
	// ErrNotLiquidatable rejects liquidation of a healthy account.
	ErrNotLiquidatable = errors.New("account is not liquidatable")
	// ErrNoDebtInAsset rejects liquidation against an asset the
	// borrower owes nothing in.
	ErrNoDebtInAsset = errors.New("borrower has no debt in asset")
	// ErrInsufficientCollateral rejects a seizure larger than the
	// borrower's deposited collateral.
	ErrInsufficientCollateral = errors.New("borrower collateral cannot cover seizure")
)

// Deps are the collaborators a Service is built from. Vault and the
// price source behind Valuation are external capabilities; everything
// else is owned by the engine.
type Deps struct {
	Registry  *registry.AssetRegistry
	Ledger    *ledger.Ledger
	Valuation *valuation.Service
	Risk      *risk.Engine
	Vault     transfer.Vault
	Events    EventSink
	Logger    *zap.Logger
	Metrics   *metrics.LendingMetrics
}

// Service is the public operation surface of the engine. Operations are
// serialized by a single mutex: each one runs validate -> mutate ->
// transfer -> emit to completion, and no operation ever observes
// another's partial state. Any validation or transfer failure leaves
// the ledger exactly as it was.
type Service struct {
	mu sync.Mutex

	registry  *registry.AssetRegistry
	ledger    *ledger.Ledger
	valuation *valuation.Service
	risk      *risk.Engine
	vault     transfer.Vault
	events    EventSink
	logger    *zap.Logger
	metrics   *metrics.LendingMetrics
}

// New creates a lending service. Events, Logger and Metrics may be nil.
func New(deps Deps) *Service {
	if deps.Events == nil {
		deps.Events = nopSink{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(prometheus.NewRegistry(), "lendvault")
	}
	return &Service{
		registry:  deps.Registry,
		ledger:    deps.Ledger,
		valuation: deps.Valuation,
		risk:      deps.Risk,
		vault:     deps.Vault,
		events:    deps.Events,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}
}

// Deposit pulls amount of asset from the account into the pool and
// records it as collateral.
func (s *Service) Deposit(ctx context.Context, account, asset common.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observe("deposit", time.Now())

	if !s.registry.IsListed(asset) {
		return s.reject("deposit", fmt.Errorf("deposit %s: %w", asset.Hex(), registry.ErrUnknownAsset))
	}
	if amount == nil || amount.Sign() <= 0 {
		return s.reject("deposit", fmt.Errorf("deposit: %w", ErrZeroAmount))
	}

	// funds move first; the ledger only records what the pool holds
	if err := s.vault.Pull(ctx, asset, account, amount); err != nil {
		return s.reject("deposit", fmt.Errorf("deposit pull: %w", err))
	}
	s.ledger.IncreaseDeposit(account, asset, amount)

	s.events.Emit(Deposit{Account: account, Asset: asset, Amount: new(big.Int).Set(amount)})
	s.metrics.Deposits.Inc()
	s.logger.Info("deposit",
		zap.String("account", account.Hex()),
		zap.String("asset", asset.Hex()),
		zap.String("amount", amount.String()),
	)
	return nil
}

// Withdraw releases collateral back to the account, provided the
// remaining collateral still covers the account's debt.
func (s *Service) Withdraw(ctx context.Context, account, asset common.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observe("withdraw", time.Now())

	if amount == nil || amount.Sign() <= 0 {
		return s.reject("withdraw", fmt.Errorf("withdraw: %w", ErrZeroAmount))
	}
	if s.ledger.Deposited(account, asset).Cmp(amount) < 0 {
		return s.reject("withdraw", fmt.Errorf("withdraw %s of %s: %w", amount, asset.Hex(), ledger.ErrInsufficientBalance))
	}

	if err := s.guardProjectedHealth(ctx, "withdraw", account, asset, amount, false); err != nil {
		return err
	}

	if err := s.ledger.DecreaseDeposit(account, asset, amount); err != nil {
		return s.reject("withdraw", err)
	}
	if err := s.vault.Push(ctx, asset, account, amount); err != nil {
		// the payout failed, put the collateral back on the books
		s.ledger.IncreaseDeposit(account, asset, amount)
		return s.reject("withdraw", fmt.Errorf("withdraw push: %w", err))
	}

	s.events.Emit(Withdraw{Account: account, Asset: asset, Amount: new(big.Int).Set(amount)})
	s.metrics.Withdrawals.Inc()
	s.logger.Info("withdraw",
		zap.String("account", account.Hex()),
		zap.String("asset", asset.Hex()),
		zap.String("amount", amount.String()),
	)
	return nil
}

// Borrow lends amount of asset to the account against its collateral.
func (s *Service) Borrow(ctx context.Context, account, asset common.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observe("borrow", time.Now())

	if !s.registry.IsListed(asset) {
		return s.reject("borrow", fmt.Errorf("borrow %s: %w", asset.Hex(), registry.ErrUnknownAsset))
	}
	if amount == nil || amount.Sign() <= 0 {
		return s.reject("borrow", fmt.Errorf("borrow: %w", ErrZeroAmount))
	}

	if err := s.guardProjectedHealth(ctx, "borrow", account, asset, amount, true); err != nil {
		return err
	}

	s.ledger.IncreaseBorrowed(account, asset, amount)
	if err := s.vault.Push(ctx, asset, account, amount); err != nil {
		if derr := s.ledger.DecreaseBorrowed(account, asset, amount); derr != nil {
			s.logger.Error("borrow rollback failed", zap.Error(derr))
		}
		return s.reject("borrow", fmt.Errorf("borrow push: %w", err))
	}

	s.events.Emit(Borrow{Account: account, Asset: asset, Amount: new(big.Int).Set(amount)})
	s.metrics.Borrows.Inc()
	s.logger.Info("borrow",
		zap.String("account", account.Hex()),
		zap.String("asset", asset.Hex()),
		zap.String("amount", amount.String()),
	)
	return nil
}

// Repay pays down the account's debt in asset. The repaid amount is
// capped at the outstanding debt; overpaying is not an error and the
// excess is simply never pulled.
func (s *Service) Repay(ctx context.Context, account, asset common.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observe("repay", time.Now())

	if !s.registry.IsListed(asset) {
		return s.reject("repay", fmt.Errorf("repay %s: %w", asset.Hex(), registry.ErrUnknownAsset))
	}
	if amount == nil || amount.Sign() <= 0 {
		return s.reject("repay", fmt.Errorf("repay: %w", ErrZeroAmount))
	}

	capped := umath.Min(amount, s.ledger.Borrowed(account, asset))
	if capped.Sign() == 0 {
		s.logger.Debug("repay with no outstanding debt",
			zap.String("account", account.Hex()),
			zap.String("asset", asset.Hex()),
		)
		return nil
	}

	if err := s.vault.Pull(ctx, asset, account, capped); err != nil {
		return s.reject("repay", fmt.Errorf("repay pull: %w", err))
	}
	if err := s.ledger.DecreaseBorrowed(account, asset, capped); err != nil {
		return s.reject("repay", err)
	}

	s.events.Emit(Repay{Account: account, Asset: asset, Amount: capped})
	s.metrics.Repayments.Inc()
	s.logger.Info("repay",
		zap.String("account", account.Hex()),
		zap.String("asset", asset.Hex()),
		zap.String("amount", capped.String()),
	)
	return nil
}

// Liquidate lets the liquidator cover half of the borrower's debt in
// debtAsset in exchange for the equivalent collateralAsset value plus a
// bonus. Only accounts below the solvency floor can be liquidated, and
// one call covers at most LiquidationCloseFactorPct of the debt.
func (s *Service) Liquidate(ctx context.Context, liquidator, borrower, debtAsset, collateralAsset common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observe("liquidate", time.Now())

	if !s.registry.IsListed(debtAsset) {
		return s.reject("liquidate", fmt.Errorf("liquidate debt asset %s: %w", debtAsset.Hex(), registry.ErrUnknownAsset))
	}
	if !s.registry.IsListed(collateralAsset) {
		return s.reject("liquidate", fmt.Errorf("liquidate collateral asset %s: %w", collateralAsset.Hex(), registry.ErrUnknownAsset))
	}

	liquidatable, err := s.risk.IsLiquidatable(ctx, borrower)
	if err != nil {
		return s.reject("liquidate", err)
	}
	if !liquidatable {
		return s.reject("liquidate", fmt.Errorf("account %s: %w", borrower.Hex(), ErrNotLiquidatable))
	}

	debtToCover := umath.Pct(s.ledger.Borrowed(borrower, debtAsset), LiquidationCloseFactorPct)
	if debtToCover.Sign() == 0 {
		return s.reject("liquidate", fmt.Errorf("account %s, asset %s: %w", borrower.Hex(), debtAsset.Hex(), ErrNoDebtInAsset))
	}

	debtValue, err := s.valuation.ValueInReference(ctx, debtAsset, debtToCover)
	if err != nil {
		return s.reject("liquidate", err)
	}
	principal, err := s.valuation.AmountFromReference(ctx, collateralAsset, debtValue)
	if err != nil {
		return s.reject("liquidate", err)
	}
	seize := new(big.Int).Add(principal, umath.Pct(principal, LiquidationBonusPct))

	if s.ledger.Deposited(borrower, collateralAsset).Cmp(seize) < 0 {
		return s.reject("liquidate", fmt.Errorf("seizing %s of %s: %w", seize, collateralAsset.Hex(), ErrInsufficientCollateral))
	}

	if err := s.ledger.DecreaseBorrowed(borrower, debtAsset, debtToCover); err != nil {
		return s.reject("liquidate", err)
	}
	if err := s.ledger.DecreaseDeposit(borrower, collateralAsset, seize); err != nil {
		s.ledger.IncreaseBorrowed(borrower, debtAsset, debtToCover)
		return s.reject("liquidate", err)
	}

	if err := s.vault.Pull(ctx, debtAsset, liquidator, debtToCover); err != nil {
		s.rollbackLiquidation(borrower, debtAsset, collateralAsset, debtToCover, seize)
		return s.reject("liquidate", fmt.Errorf("liquidate pull: %w", err))
	}
	if err := s.vault.Push(ctx, collateralAsset, liquidator, seize); err != nil {
		s.rollbackLiquidation(borrower, debtAsset, collateralAsset, debtToCover, seize)
		// refund the already pulled debt payment
		if perr := s.vault.Push(ctx, debtAsset, liquidator, debtToCover); perr != nil {
			s.logger.Error("liquidation refund failed",
				zap.String("liquidator", liquidator.Hex()),
				zap.Error(perr),
			)
		}
		return s.reject("liquidate", fmt.Errorf("liquidate push: %w", err))
	}

	s.events.Emit(Liquidate{
		Liquidator:       liquidator,
		Borrower:         borrower,
		DebtAsset:        debtAsset,
		CollateralAsset:  collateralAsset,
		DebtCovered:      debtToCover,
		CollateralSeized: seize,
	})
	s.metrics.Liquidations.Inc()
	s.metrics.DebtCoveredWei.Add(weiFloat(debtToCover))
	s.metrics.CollateralSeizedWei.Add(weiFloat(seize))
	s.logger.Info("liquidate",
		zap.String("liquidator", liquidator.Hex()),
		zap.String("borrower", borrower.Hex()),
		zap.String("debt_asset", debtAsset.Hex()),
		zap.String("collateral_asset", collateralAsset.Hex()),
		zap.String("debt_covered", debtToCover.String()),
		zap.String("collateral_seized", seize.String()),
	)
	return nil
}

// GetAccountInformation returns the account's aggregate debt and
// collateral value in ETH, in that order.
func (s *Service) GetAccountInformation(ctx context.Context, account common.Address) (borrowedValue, collateralValue *big.Int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	borrowedValue, err = s.risk.DebtValue(ctx, account)
	if err != nil {
		return nil, nil, err
	}
	collateralValue, err = s.risk.CollateralValue(ctx, account)
	if err != nil {
		return nil, nil, err
	}
	return borrowedValue, collateralValue, nil
}

// GetEthValue returns the ETH value of amount units of asset.
func (s *Service) GetEthValue(ctx context.Context, asset common.Address, amount *big.Int) (*big.Int, error) {
	return s.valuation.ValueInReference(ctx, asset, amount)
}

// GetTokenValueFromEth returns how many units of asset the given ETH
// value buys.
func (s *Service) GetTokenValueFromEth(ctx context.Context, asset common.Address, referenceValue *big.Int) (*big.Int, error) {
	return s.valuation.AmountFromReference(ctx, asset, referenceValue)
}

// HealthFactor returns the account's current solvency ratio.
func (s *Service) HealthFactor(ctx context.Context, account common.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.risk.HealthFactor(ctx, account)
}

// guardProjectedHealth rejects the operation if the account's health
// factor, projected as if the mutation already happened, falls below
// the floor. addDebt selects between adding debt (borrow) and removing
// collateral (withdraw).
func (s *Service) guardProjectedHealth(ctx context.Context, op string, account, asset common.Address, amount *big.Int, addDebt bool) error {
	collateral, err := s.risk.CollateralValue(ctx, account)
	if err != nil {
		return s.reject(op, err)
	}
	debt, err := s.risk.DebtValue(ctx, account)
	if err != nil {
		return s.reject(op, err)
	}
	value, err := s.valuation.ValueInReference(ctx, asset, amount)
	if err != nil {
		return s.reject(op, err)
	}

	if addDebt {
		debt = new(big.Int).Add(debt, value)
	} else {
		collateral = new(big.Int).Sub(collateral, value)
		if collateral.Sign() < 0 {
			collateral.SetInt64(0)
		}
	}

	if hf := risk.HealthFactorFromValues(collateral, debt); hf.Cmp(risk.MinHealthFactor) < 0 {
		return s.reject(op, fmt.Errorf("%s would leave health factor at %s: %w", op, hf, ErrWouldBreachHealthFactor))
	}
	return nil
}

func (s *Service) rollbackLiquidation(borrower, debtAsset, collateralAsset common.Address, debtToCover, seize *big.Int) {
	s.ledger.IncreaseBorrowed(borrower, debtAsset, debtToCover)
	s.ledger.IncreaseDeposit(borrower, collateralAsset, seize)
}

func (s *Service) observe(op string, start time.Time) {
	s.metrics.OperationLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *Service) reject(op string, err error) error {
	s.metrics.Rejections.WithLabelValues(op, rejectionReason(err)).Inc()
	s.logger.Debug("operation rejected", zap.String("operation", op), zap.Error(err))
	return err
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, registry.ErrUnknownAsset):
		return "unknown_asset"
	case errors.Is(err, ErrZeroAmount):
		return "zero_amount"
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrWouldBreachHealthFactor):
		return "would_breach_health_factor"
	case errors.Is(err, ErrNotLiquidatable):
		return "not_liquidatable"
	case errors.Is(err, ErrNoDebtInAsset):
		return "no_debt_in_asset"
	case errors.Is(err, ErrInsufficientCollateral):
		return "insufficient_collateral"
	case errors.Is(err, transfer.ErrTransferRejected):
		return "transfer_rejected"
	case errors.Is(err, oracle.ErrOracleUnavailable):
		return "oracle_unavailable"
	case errors.Is(err, valuation.ErrZeroPrice):
		return "zero_price"
	default:
		return "internal"
	}
}

func weiFloat(x *big.Int) float64 {
	f, _ := new(big.Float).SetInt(x).Float64()
	return f
}
