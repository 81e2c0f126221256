package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aristath/safehaven/internal/modules/bootstrap"
	"github.com/aristath/safehaven/internal/modules/export"
	"github.com/aristath/safehaven/internal/modules/history"
	"github.com/aristath/safehaven/internal/modules/scenarios"
	"github.com/aristath/safehaven/internal/modules/screening"
	"github.com/aristath/safehaven/internal/modules/sweep"
	"github.com/aristath/safehaven/internal/utils"
	"github.com/aristath/safehaven/pkg/formulas"
)

// researchFlags are shared by the commands that bootstrap a price history
type researchFlags struct {
	scenario string
	prices   string
	out      string
}

func newResearchFlags(name string) (*flag.FlagSet, *researchFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	rf := &researchFlags{}
	fs.StringVar(&rf.scenario, "scenario", "bitcoin", "scenario name")
	fs.StringVar(&rf.prices, "prices", "", "monthly price CSV (date,close)")
	fs.StringVar(&rf.out, "out", "", "output directory (default SAFEHAVEN_OUTPUT_DIR)")
	return fs, rf
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func (a *app) outputPath(dir string, kind export.Kind, scenario, runID string) string {
	return filepath.Join(outDir(dir, a.cfg.OutputDir), export.Filename(kind, scenario, runID))
}

// loadResearch resolves the scenario and turns its price file into a categorized pool
func (a *app) loadResearch(rf *researchFlags) (scenarios.Scenario, []history.AnnualReturn, bootstrap.Pool, error) {
	if rf.prices == "" {
		return scenarios.Scenario{}, nil, bootstrap.Pool{}, fmt.Errorf("%w: -prices is required", errUsage)
	}

	sc, err := a.registry.Get(rf.scenario)
	if err != nil {
		return scenarios.Scenario{}, nil, bootstrap.Pool{}, err
	}

	f, err := os.Open(rf.prices)
	if err != nil {
		return scenarios.Scenario{}, nil, bootstrap.Pool{}, fmt.Errorf("failed to open prices: %w", err)
	}
	defer f.Close()

	prices, err := history.LoadPricesCSV(f)
	if err != nil {
		return scenarios.Scenario{}, nil, bootstrap.Pool{}, err
	}

	obs, err := history.AnnualReturns(prices, history.Options{FromYear: sc.FromYear, ToYear: sc.ToYear})
	if err != nil {
		return scenarios.Scenario{}, nil, bootstrap.Pool{}, err
	}

	pool, err := sc.Pool(history.Returns(obs))
	if err != nil {
		return scenarios.Scenario{}, nil, bootstrap.Pool{}, err
	}

	a.log.Info().
		Str("scenario", sc.Name).
		Int("prices", len(prices)).
		Int("annual_returns", len(obs)).
		Msg("Loaded return history")

	return sc, obs, pool, nil
}

func categoryCounts(pool bootstrap.Pool) []int {
	cats := make([]int, pool.Len())
	for i, o := range pool.Observations {
		cats[i] = o.Category
	}
	return bootstrap.CategoryCounts(cats, pool.Categories)
}

func runCategorize(_ context.Context, a *app, args []string) error {
	fs, rf := newResearchFlags("categorize")
	if err := parse(fs, args); err != nil {
		return err
	}

	sc, obs, pool, err := a.loadResearch(rf)
	if err != nil {
		return err
	}

	counts := categoryCounts(pool)
	for i, c := range counts {
		a.log.Info().
			Str("bin", sc.Label(i)).
			Int("count", c).
			Float64("share", float64(c)/float64(len(obs))).
			Msg("Return category")
	}

	breakEven, err := bootstrap.BreakEvenPayoff(counts, sc.CrashCategory)
	if err != nil {
		return err
	}
	a.log.Info().
		Str("crash_bin", sc.Label(sc.CrashCategory)).
		Float64("break_even_payoff", breakEven).
		Float64("mean_return", formulas.Mean(history.Returns(obs))).
		Msg("Break-even hedge payoff")
	return nil
}

func runSimulate(ctx context.Context, a *app, args []string) error {
	fs, rf := newResearchFlags("simulate")
	allocation := fs.Float64("allocation", -1, "hedge allocation (negative = scenario default)")
	quantiles := fs.String("quantiles", "", "comma-separated quantiles (default from scenario)")
	if err := parse(fs, args); err != nil {
		return err
	}

	sc, _, pool, err := a.loadResearch(rf)
	if err != nil {
		return err
	}
	if *allocation >= 0 {
		sc.SetAllocation(*allocation)
	}
	qs := sc.Quantiles
	if *quantiles != "" {
		if qs, err = utils.ParseFloats(*quantiles); err != nil {
			return fmt.Errorf("%w: -quantiles: %v", errUsage, err)
		}
	}

	runID := uuid.New().String()
	runner := bootstrap.NewRunner(utils.ResolveWorkers(a.cfg.Workers), a.cfg.ChunkSize, a.log)

	stop := utils.OperationTimer("simulate", a.log)
	traj, err := runner.SimulateParallel(ctx, pool, sc.Params(sc.HedgeAllocation()), a.cfg.Seed)
	stop()
	if err != nil {
		return err
	}

	summary, err := bootstrap.Summarize(traj, qs...)
	if err != nil {
		return err
	}

	for _, qp := range summary.Quantiles {
		a.log.Info().
			Float64("quantile", qp.Q).
			Float64("terminal", qp.Value).
			Float64("cagr", formulas.CAGR(qp.Value, sc.Years)).
			Int("path", qp.Index).
			Msg("Quantile path")
	}

	counts := categoryCounts(pool)
	breakEven, err := bootstrap.BreakEvenPayoff(counts, sc.CrashCategory)
	if err != nil {
		return err
	}

	report := export.NewSimulationReport(export.SimulationMeta{
		RunID:      runID,
		Scenario:   sc.Name,
		Asset:      sc.Asset,
		Allocation: sc.HedgeAllocation(),
		Samples:    sc.Samples,
		Seed:       a.cfg.Seed,
		Labels:     sc.Labels,
		Counts:     counts,
		BreakEven:  breakEven,
	}, summary)

	path := a.outputPath(rf.out, export.KindSimulation, sc.Name, runID)
	if err := export.WriteFile(path, report); err != nil {
		return err
	}
	a.log.Info().Str("file", path).Str("run_id", runID).Msg("Simulation written")
	return nil
}

func runSweep(ctx context.Context, a *app, args []string) error {
	fs, rf := newResearchFlags("sweep")
	if err := parse(fs, args); err != nil {
		return err
	}

	sc, _, pool, err := a.loadResearch(rf)
	if err != nil {
		return err
	}

	svc := sweep.NewService(a.cfg.Workers, a.log)
	res, err := svc.Allocations(ctx, sweep.AllocationRequest{
		Pool:        pool,
		Payoffs:     sc.Payoffs,
		Years:       sc.Years,
		Samples:     sc.Samples,
		Allocations: sc.Sweep.Allocations.Values(),
		Quantiles:   sc.Quantiles,
		Repeats:     sc.Sweep.Repeats,
		Seed:        a.cfg.Seed,
	})
	if err != nil {
		return err
	}

	path := a.outputPath(rf.out, export.KindSweep, sc.Name, res.RunID)
	if err := export.WriteFile(path, export.SweepReport{Kind: export.KindSweep, Scenario: sc.Name, Result: res}); err != nil {
		return err
	}
	a.log.Info().Str("file", path).Dur("duration", res.Duration).Msg("Sweep written")
	return nil
}

func runBoundary(ctx context.Context, a *app, args []string) error {
	fs, rf := newResearchFlags("boundary")
	if err := parse(fs, args); err != nil {
		return err
	}

	sc, _, pool, err := a.loadResearch(rf)
	if err != nil {
		return err
	}

	svc := sweep.NewService(a.cfg.Workers, a.log)
	res, err := svc.Boundary(ctx, sweep.BoundaryRequest{
		Pool:          pool,
		BasePayoffs:   sc.Payoffs,
		CrashCategory: sc.CrashCategory,
		Years:         sc.Years,
		Samples:       sc.Samples,
		Scales:        sc.Boundary.Scales.Values(),
		Allocations:   sc.Boundary.Allocations.Values(),
		Quantiles:     sc.Quantiles,
		Repeats:       sc.Boundary.Repeats,
		Seed:          a.cfg.Seed,
	})
	if err != nil {
		return err
	}

	for _, b := range res.Boundaries {
		event := a.log.Info().
			Float64("quantile", b.Quantile).
			Float64("unhedged_cagr", b.BaselineCAGR)
		if scale, ok := b.BreakEvenScale(); ok {
			event = event.Float64("break_even_payoff", scale*sc.Payoffs[sc.CrashCategory])
		}
		event.Msg("Cost-effective boundary")
	}

	path := a.outputPath(rf.out, export.KindBoundary, sc.Name, res.RunID)
	report := export.BoundaryReport{
		Kind:        export.KindBoundary,
		Scenario:    sc.Name,
		BasePayoffs: sc.Payoffs,
		Result:      res,
	}
	if err := export.WriteFile(path, report); err != nil {
		return err
	}
	a.log.Info().Str("file", path).Dur("duration", res.Duration).Msg("Boundary written")
	return nil
}

func runScreen(_ context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("screen", flag.ContinueOnError)
	chain := fs.String("chain", "", "put chain CSV (expiry,strike,last_price,volume,open_interest)")
	prices := fs.String("prices", "", "price CSV used to estimate volatility when -vol is not set")
	spot := fs.Float64("spot", 0, "current underlying price")
	vol := fs.Float64("vol", 0, "annualized volatility")
	target := fs.Float64("target", 0.85, "crash level as a fraction of spot")
	eff := fs.Float64("eff", 6.8, "required payoff multiple")
	rate := fs.Float64("rate", 0.02, "risk-free rate")
	expiries := fs.Int("expiries", 0, "keep only the next n monthly expiries (0 = all)")
	out := fs.String("out", "", "output directory (default SAFEHAVEN_OUTPUT_DIR)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *chain == "" || *spot <= 0 {
		return fmt.Errorf("%w: -chain and -spot are required", errUsage)
	}

	f, err := os.Open(*chain)
	if err != nil {
		return fmt.Errorf("failed to open chain: %w", err)
	}
	defer f.Close()

	quotes, err := screening.LoadChainCSV(f)
	if err != nil {
		return err
	}

	now := time.Now()
	if *expiries > 0 {
		quotes = keepExpiries(quotes, screening.MonthlyExpiries(now, *expiries))
	}

	sigma := *vol
	if sigma <= 0 && *prices != "" {
		pf, err := os.Open(*prices)
		if err != nil {
			return fmt.Errorf("failed to open prices: %w", err)
		}
		defer pf.Close()
		series, err := history.LoadPricesCSV(pf)
		if err != nil {
			return err
		}
		sigma = history.AnnualizedVolatility(series, 12)
	}

	params := screening.DefaultScreenParams(*spot, sigma, now)
	params.TargetPct = *target
	params.Efficiency = *eff
	params.RiskFreeRate = *rate

	screened, err := screening.Screen(quotes, params)
	if err != nil {
		return err
	}

	for _, s := range screening.CostEffective(screened) {
		a.log.Info().
			Time("expiry", s.Expiry).
			Float64("strike", s.Strike).
			Float64("last_price", s.LastPrice).
			Float64("max_price", s.MaxPrice).
			Float64("expected_return", s.IntrinsicReturn).
			Float64("crash_profit", s.CrashProfit).
			Float64("delta", s.Greeks.Delta).
			Bool("black_scholes_effective", s.BlackScholesEffective).
			Msg("Cost-effective put")
	}

	path := filepath.Join(outDir(*out, a.cfg.OutputDir), export.Filename(export.KindScreen, "", uuid.New().String()))
	report := export.ScreenReport{Kind: export.KindScreen, Params: params, Quotes: screened}
	if err := export.WriteFile(path, report); err != nil {
		return err
	}
	a.log.Info().Str("file", path).Int("quotes", len(screened)).Msg("Screen written")
	return nil
}

func keepExpiries(quotes []screening.Quote, expiries []time.Time) []screening.Quote {
	wanted := make(map[string]bool, len(expiries))
	for _, e := range expiries {
		wanted[e.Format("2006-01-02")] = true
	}
	var out []screening.Quote
	for _, q := range quotes {
		if wanted[q.Expiry.Format("2006-01-02")] {
			out = append(out, q)
		}
	}
	return out
}

func outDir(flagValue, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	return fallback
}

func runStress(_ context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("stress", flag.ContinueOnError)
	book := fs.String("book", "", "option book summary JSON")
	budget := fs.String("budget", "1000", "cash per scenario")
	minDays := fs.Int("min-days", 30, "minimum days to expiry")
	rate := fs.Float64("rate", 0.05, "risk-free rate")
	days := fs.Int("days", 36, "days to maturity when the stress hits")
	out := fs.String("out", "", "output directory (default SAFEHAVEN_OUTPUT_DIR)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *book == "" {
		return fmt.Errorf("%w: -book is required", errUsage)
	}

	amount, err := decimal.NewFromString(*budget)
	if err != nil {
		return fmt.Errorf("%w: -budget: %v", errUsage, err)
	}

	f, err := os.Open(*book)
	if err != nil {
		return fmt.Errorf("failed to open book: %w", err)
	}
	defer f.Close()

	summaries, err := screening.LoadBook(f)
	if err != nil {
		return err
	}
	puts := screening.SelectPuts(summaries, time.Now(), *minDays)
	a.log.Info().Int("book", len(summaries)).Int("eligible_puts", len(puts)).Msg("Loaded option book")

	params := screening.DefaultStressParams()
	params.Budget = amount
	params.RiskFreeRate = *rate
	params.Maturity = float64(*days) / 365

	stop := utils.OperationTimer("stress_grid", a.log)
	res, err := screening.StressGrid(puts, params)
	stop()
	if err != nil {
		return err
	}

	for _, g := range res.ByStrike {
		a.log.Info().Float64("strike", g.Strike).Int("scenarios", len(g.Picks)).Msg("Best strike")
	}
	a.log.Info().
		Float64("drop", res.Best.Drop).
		Float64("iv_increase", res.Best.IVIncrease).
		Str("instrument", res.Best.Instrument).
		Int64("contracts", res.Best.Contracts).
		Str("amount_spent", res.Best.AmountSpent.StringFixed(2)).
		Str("total_value", res.Best.TotalValue.StringFixed(2)).
		Float64("payoff", res.Best.Payoff).
		Msg("Best overall scenario")

	path := filepath.Join(outDir(*out, a.cfg.OutputDir), export.Filename(export.KindStress, "", uuid.New().String()))
	if err := export.WriteFile(path, export.StressReport{Kind: export.KindStress, Result: res}); err != nil {
		return err
	}
	a.log.Info().Str("file", path).Msg("Stress grid written")
	return nil
}

func runScenarios(_ context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("scenarios", flag.ContinueOnError)
	if err := parse(fs, args); err != nil {
		return err
	}

	var list []scenarios.Scenario
	for _, name := range a.registry.Names() {
		sc, err := a.registry.Get(name)
		if err != nil {
			return err
		}
		list = append(list, sc)
	}
	return scenarios.Encode(os.Stdout, list)
}
