// Package report orchestrates name resolution, history fetching, enrichment,
// aggregation and scoring into one SummaryReport.
package report

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"walletclinic/internal/aggregate"
	"walletclinic/internal/catalog"
	"walletclinic/internal/classify"
	"walletclinic/internal/deploy"
	"walletclinic/internal/explorer"
	"walletclinic/internal/model"
	"walletclinic/internal/names"
	"walletclinic/internal/score"
)

// ErrInvalidInput marks input that is neither an address nor a resolvable name.
var ErrInvalidInput = errors.New("invalid address or name")

// Explorer is the account-history source.
type Explorer interface {
	NormalTransactions(ctx context.Context, address string) (explorer.NativeHistory, error)
	TokenTransfers(ctx context.Context, address string) ([]model.Transfer, error)
	NFTTransfers(ctx context.Context, address string) ([]model.Transfer, error)
	InternalCalls(ctx context.Context, txHash string) ([]model.InternalCall, error)
	Balance(ctx context.Context, address string) (*big.Int, error)
}

// Chain answers code and receipt queries.
type Chain interface {
	classify.CodeChecker
	deploy.ReceiptSource
}

// Names resolves input and looks up display names.
type Names interface {
	Resolve(ctx context.Context, input string) (names.Resolution, error)
	LookupName(ctx context.Context, address string) (string, bool)
}

// Prices returns a quote, degrading to the default quote on failure.
type Prices interface {
	Quote(ctx context.Context) (model.PriceQuote, bool)
}

// Observer receives pipeline measurements.
type Observer interface {
	ObserveStage(stage string, elapsed time.Duration)
	IncDegraded(field string)
	IncReport(kind string, ok bool)
}

// Options tunes one Summary call.
type Options struct {
	Diagnostics bool
}

// Deps are the Builder's collaborators. Chain, Names, Prices and Observer
// are optional.
type Deps struct {
	Explorer Explorer
	Chain    Chain
	Names    Names
	Prices   Prices
	Catalog  *catalog.Catalog
	Observer Observer
	Logger   *zap.Logger
	Clock    func() time.Time
	Fast     Profile
	Thorough Profile
}

// Builder assembles reports. It holds no per-request state.
type Builder struct {
	explorer Explorer
	chain    Chain
	names    Names
	prices   Prices
	catalog  *catalog.Catalog
	observer Observer
	logger   *zap.Logger
	clock    func() time.Time
	fast     Profile
	thorough Profile
	deployer *deploy.Reconciler
	tracer   trace.Tracer
}

// NewBuilder validates deps and fills defaults.
func NewBuilder(deps Deps) (*Builder, error) {
	if deps.Explorer == nil {
		return nil, errors.New("report builder needs an explorer")
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Fast.Name == "" {
		deps.Fast = FastProfile()
	}
	if deps.Thorough.Name == "" {
		deps.Thorough = ThoroughProfile()
	}

	return &Builder{
		explorer: deps.Explorer,
		chain:    deps.Chain,
		names:    deps.Names,
		prices:   deps.Prices,
		catalog:  deps.Catalog,
		observer: deps.Observer,
		logger:   deps.Logger,
		clock:    deps.Clock,
		fast:     deps.Fast,
		thorough: deps.Thorough,
		deployer: deploy.NewReconciler(deps.Explorer, deps.Chain, deps.Logger),
		tracer:   otel.Tracer("walletclinic/report"),
	}, nil
}

// run is the per-request scratch space shared by the stages.
type run struct {
	address string
	name    string
	diag    *model.Diagnostics
	mu      sync.Mutex
}

func (r *run) degrade(field string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diag.Degraded = append(r.diag.Degraded, field)
}

type histories struct {
	native explorer.NativeHistory
	erc20  []model.Transfer
	nft    []model.Transfer
}

type enrichment struct {
	deployed     deploy.Result
	interactions classify.Interactions
	prices       model.PriceQuote
	balanceWei   *big.Int
	name         string
	hasName      bool
}

// Summary builds the full report for an address or name.
func (b *Builder) Summary(ctx context.Context, input string, opts Options) (model.SummaryReport, error) {
	ctx, span := b.tracer.Start(ctx, "report.summary")
	defer span.End()

	rep, err := b.summary(ctx, input, opts)
	b.finish(span, "summary", err)
	return rep, err
}

func (b *Builder) summary(ctx context.Context, input string, opts Options) (model.SummaryReport, error) {
	state, err := b.resolve(ctx, input, b.fast)
	if err != nil {
		return model.SummaryReport{}, err
	}

	var hist histories
	if err := b.stage(ctx, state, "histories", func(ctx context.Context) error {
		hist, err = b.fetchHistories(ctx, state.address)
		return err
	}); err != nil {
		return model.SummaryReport{}, err
	}
	state.diag.NativePages = hist.native.Pages

	var extra enrichment
	_ = b.stage(ctx, state, "enrich", func(ctx context.Context) error {
		extra = b.enrich(ctx, state, hist.native.Transactions, b.fast, true)
		return nil
	})

	var rollup aggregate.Rollup
	_ = b.stage(ctx, state, "aggregate", func(context.Context) error {
		rollup = b.rollup(state.address, hist, extra)
		return nil
	})
	state.diag.SwapHashes = rollup.Swaps
	state.diag.BalanceExact = aggregate.FormatTokenAmount(extra.balanceWei, 18)

	var health model.HealthScore
	var badges []model.BadgeGroup
	_ = b.stage(ctx, state, "score", func(context.Context) error {
		health = score.Health(rollup)
		badges = score.Badges(rollup)
		return nil
	})

	rep := assemble(state.address, rollup, extra, health, badges)
	if opts.Diagnostics {
		sort.Strings(state.diag.Degraded)
		rep.Diag = state.diag
	}
	b.logger.Info("summary built",
		zap.String("address", state.address),
		zap.Int("native_txs", rollup.NativeTxs),
		zap.Int("score", health.Score),
		zap.Strings("degraded", state.diag.Degraded),
	)
	return rep, nil
}

// Details runs the deployment and interaction stages with the thorough
// profile and returns only the refined fields.
func (b *Builder) Details(ctx context.Context, input string, opts Options) (model.DetailsPatch, error) {
	ctx, span := b.tracer.Start(ctx, "report.details")
	defer span.End()

	patch, err := b.details(ctx, input, opts)
	b.finish(span, "details", err)
	return patch, err
}

func (b *Builder) details(ctx context.Context, input string, opts Options) (model.DetailsPatch, error) {
	state, err := b.resolve(ctx, input, b.thorough)
	if err != nil {
		return model.DetailsPatch{}, err
	}

	var native explorer.NativeHistory
	if err := b.stage(ctx, state, "histories", func(ctx context.Context) error {
		native, err = b.explorer.NormalTransactions(ctx, state.address)
		if err != nil {
			return fmt.Errorf("fetch native history: %w", err)
		}
		return nil
	}); err != nil {
		return model.DetailsPatch{}, err
	}
	state.diag.NativePages = native.Pages

	var extra enrichment
	_ = b.stage(ctx, state, "enrich", func(ctx context.Context) error {
		extra = b.enrich(ctx, state, native.Transactions, b.thorough, false)
		return nil
	})

	patch := model.DetailsPatch{
		DeployedContracts: extra.deployed.Count(),
		Contracts: model.ContractStats{
			TotalInteractions:  extra.interactions.Total,
			UniqueInteractions: extra.interactions.Unique,
		},
		Partial: extra.deployed.Sampled || extra.interactions.Capped ||
			extra.deployed.TraceErrors > 0 || extra.deployed.ReceiptErrs > 0 ||
			extra.interactions.Failed > 0 || native.Truncated,
	}
	if opts.Diagnostics {
		sort.Strings(state.diag.Degraded)
		patch.Diag = state.diag
	}
	return patch, nil
}

func (b *Builder) resolve(ctx context.Context, input string, profile Profile) (*run, error) {
	state := &run{diag: &model.Diagnostics{
		Profile:     profile.Name,
		StageMillis: make(map[string]int64),
		Degraded:    []string{},
	}}

	err := b.stage(ctx, state, "resolve", func(ctx context.Context) error {
		if b.names == nil {
			if !model.IsAddress(input) {
				return fmt.Errorf("%w: %q", ErrInvalidInput, input)
			}
			state.address = model.NormalizeAddress(input)
			state.diag.ResolvedFrom = "address"
			return nil
		}
		res, err := b.names.Resolve(ctx, input)
		if err != nil {
			if errors.Is(err, names.ErrUnresolvable) {
				return fmt.Errorf("%w: %w", ErrInvalidInput, err)
			}
			return fmt.Errorf("resolve %q: %w", input, err)
		}
		state.address = res.Address
		state.name = res.Name
		state.diag.ResolvedFrom = res.Source
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// fetchHistories loads native, ERC-20 and ERC-721 history concurrently. Any
// failure aborts the other two.
func (b *Builder) fetchHistories(ctx context.Context, address string) (histories, error) {
	var out histories
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		native, err := b.explorer.NormalTransactions(gctx, address)
		if err != nil {
			return fmt.Errorf("fetch native history: %w", err)
		}
		out.native = native
		return nil
	})
	g.Go(func() error {
		erc20, err := b.explorer.TokenTransfers(gctx, address)
		if err != nil {
			return fmt.Errorf("fetch token transfers: %w", err)
		}
		out.erc20 = erc20
		return nil
	})
	g.Go(func() error {
		nft, err := b.explorer.NFTTransfers(gctx, address)
		if err != nil {
			return fmt.Errorf("fetch nft transfers: %w", err)
		}
		out.nft = nft
		return nil
	})
	if err := g.Wait(); err != nil {
		return histories{}, err
	}
	return out, nil
}

// enrich runs the non-fatal stages in parallel. full adds prices, balance
// and the display name.
func (b *Builder) enrich(ctx context.Context, state *run, txs []model.Transaction, profile Profile, full bool) enrichment {
	out := enrichment{prices: model.DefaultPriceQuote(), balanceWei: new(big.Int)}

	var g errgroup.Group
	g.Go(func() error {
		out.deployed = b.deployer.Reconcile(ctx, state.address, txs, profile.Deploy)
		if out.deployed.TraceErrors > 0 || out.deployed.ReceiptErrs > 0 {
			state.degrade("deployments")
		}
		return nil
	})
	g.Go(func() error {
		if b.chain == nil {
			state.degrade("interactions")
			return nil
		}
		out.interactions = classify.ClassifyInteractions(ctx, b.chain, txs, profile.Interactions)
		if out.interactions.Failed > 0 {
			state.degrade("interactions")
		}
		return nil
	})
	if full {
		g.Go(func() error {
			if b.prices == nil {
				return nil
			}
			quote, degraded := b.prices.Quote(ctx)
			out.prices = quote
			if degraded {
				state.degrade("prices")
			}
			return nil
		})
		g.Go(func() error {
			balance, err := b.explorer.Balance(ctx, state.address)
			if err != nil {
				b.logger.Warn("balance degraded to zero", zap.String("address", state.address), zap.Error(err))
				state.degrade("balance")
				return nil
			}
			out.balanceWei = balance
			return nil
		})
		g.Go(func() error {
			if state.name != "" && strings.HasSuffix(state.name, b.catalog.NameSuffix) {
				out.name, out.hasName = state.name, true
				return nil
			}
			if b.names == nil {
				return nil
			}
			out.name, out.hasName = b.names.LookupName(ctx, state.address)
			return nil
		})
	}
	_ = g.Wait()

	if b.observer != nil {
		for _, field := range state.diag.Degraded {
			b.observer.IncDegraded(field)
		}
	}

	d := out.deployed
	state.diag.Deployments = model.DeploySources{
		Direct:       len(d.Direct),
		Internal:     len(d.Internal),
		Receipt:      len(d.Receipt),
		TracedHashes: d.TracedHashes,
		ReceiptsRead: d.ReceiptsRead,
		Sampled:      d.Sampled,
	}
	state.diag.CodeChecks = out.interactions.Checked
	state.diag.CodeCheckCap = out.interactions.Capped
	return out
}

func (b *Builder) rollup(address string, hist histories, extra enrichment) aggregate.Rollup {
	txs := hist.native.Transactions
	transfers := make([]model.Transfer, 0, len(hist.erc20)+len(hist.nft))
	transfers = append(transfers, hist.erc20...)
	transfers = append(transfers, hist.nft...)

	return aggregate.Compute(aggregate.Input{
		Address:      address,
		Now:          b.clock(),
		Transactions: txs,
		ERC20:        hist.erc20,
		NFT:          hist.nft,
		Swaps:        classify.DetectSwaps(address, txs, hist.erc20, b.catalog),
		Bridges:      classify.DetectBridges(address, txs, hist.erc20, b.catalog),
		Protocols:    classify.CountProtocols(txs, transfers, b.catalog),
		Interactions: extra.interactions,
		Deployed:     extra.deployed.Count(),
		Prices:       extra.prices,
		BalanceWei:   extra.balanceWei,
		Catalog:      b.catalog,
	})
}

// stage runs fn in its own span and records its wall time.
func (b *Builder) stage(ctx context.Context, state *run, name string, fn func(context.Context) error) error {
	ctx, span := b.tracer.Start(ctx, "report."+name)
	defer span.End()
	if state.address != "" {
		span.SetAttributes(attribute.String("wallet.address", state.address))
	}

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	state.mu.Lock()
	state.diag.StageMillis[name] = elapsed.Milliseconds()
	state.mu.Unlock()
	if b.observer != nil {
		b.observer.ObserveStage(name, elapsed)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (b *Builder) finish(span trace.Span, kind string, err error) {
	if b.observer != nil {
		b.observer.IncReport(kind, err == nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !errors.Is(err, ErrInvalidInput) {
			b.logger.Error("report failed", zap.String("kind", kind), zap.Error(err))
		}
	}
}
