package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"balatro-pilot/pilot/coord"
	"balatro-pilot/pilot/memory"
	"balatro-pilot/pilot/sim"
	"balatro-pilot/pilot/store"
	"balatro-pilot/pilot/strategy"

	"github.com/joho/godotenv"
)

//
// ===== pretty printing =====
//

var useColor bool

const (
	colReset  = "\033[0m"
	colBold   = "\033[1m"
	colDim    = "\033[2m"
	colGreen  = "\033[32m"
	colRed    = "\033[31m"
	colYellow = "\033[33m"
	colCyan   = "\033[36m"
)

func c(code, s string) string {
	if !useColor {
		return s
	}
	return code + s + colReset
}
func bold(s string) string { return c(colBold, s) }
func dim(s string) string  { return c(colDim, s) }
func good(s string) string { return c(colGreen, s) }
func warn(s string) string { return c(colYellow, s) }
func bad(s string) string  { return c(colRed, s) }
func cyan(s string) string { return c(colCyan, s) }
func section(title string) { fmt.Printf("\n%s %s %s\n", dim("──"), bold(title), dim("──")) }
func sub(title string)     { fmt.Printf("%s %s\n", dim("•"), bold(title)) }

//
// ===== env helpers =====
//

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func atoiDef(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
func floatDef(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}
func asBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

var stopFlag atomic.Bool

func watchSignals(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	stopFlag.Store(true)
	cancel()
}

// pollStop cancels the context once check trips, so a running session
// honors MAX_SECONDS and STOP_FILE mid-cycle, not just between sessions.
func pollStop(ctx context.Context, cancel context.CancelFunc, check func() bool, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if check() {
				cancel()
				return
			}
		}
	}
}

//
// ===== bootstrap =====
//

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	_ = godotenv.Load()

	useColor = (os.Getenv("NO_COLOR") == "") && (strings.TrimSpace(os.Getenv("USE_COLOR")) != "0")

	var migrate, selfplay, dryRun bool
	for _, a := range os.Args[1:] {
		switch a {
		case "--migrate":
			migrate = true
		case "--selfplay":
			selfplay = true
		case "--dry-run":
			dryRun = true
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchSignals(cancel)

	maxSeconds := atoiDef(os.Getenv("MAX_SECONDS"), 0)
	stopFile := os.Getenv("STOP_FILE")
	var deadline time.Time
	if maxSeconds > 0 {
		deadline = time.Now().Add(time.Duration(maxSeconds) * time.Second)
	}
	checkStop := func() bool {
		select {
		case <-ctx.Done():
			stopFlag.Store(true)
		default:
		}
		if stopFlag.Load() {
			return true
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			stopFlag.Store(true)
			return true
		}
		if stopFile != "" {
			if _, err := os.Stat(stopFile); err == nil {
				stopFlag.Store(true)
				return true
			}
		}
		return false
	}
	go pollStop(ctx, cancel, checkStop, 250*time.Millisecond)

	if migrate {
		dsn := getenv("DATABASE_URL", "")
		if dsn == "" {
			log.Fatal("--migrate needs DATABASE_URL")
		}
		db, err := store.Open(dsn)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close(context.Background())
		if err := store.Migrate(context.Background(), db); err != nil {
			log.Fatal(err)
		}
		log.Println("migrated")
		return
	}

	mem := openMemory()
	if err := mem.Load(); err != nil {
		log.Printf("memory load: %v", err)
	}

	risk := floatDef(os.Getenv("RISK_TOLERANCE"), 0.5)
	if risk < 0 {
		risk = 0
	}
	if risk > 1 {
		risk = 1
	}
	analyzer := strategy.New(risk)
	analyzer.Advisor = mem

	if dryRun {
		runDryRun(analyzer)
		return
	}
	if selfplay {
		runSelfPlay(ctx, checkStop, analyzer, mem)
		return
	}

	// server mode: serve memory over HTTP, optionally self-playing in the
	// background so the status page has something live to show
	var co *coord.Coordinator
	if n := atoiDef(os.Getenv("SELFPLAY_SESSIONS"), 0); n > 0 {
		co = coord.New(nil, nil, analyzer, mem)
		go backgroundSelfPlay(ctx, checkStop, co, analyzer, mem, n)
	}

	port := getenv("PORT", "8080")
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      Router(mem, co),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	log.Printf("listening on http://localhost:%s (Ctrl+C to stop)", port)
	log.Fatal(srv.ListenAndServe())
}

// openMemory picks the persistence backend: postgres when DATABASE_URL is
// set and reachable, plain JSON files otherwise.
func openMemory() *memory.Store {
	if dsn := getenv("DATABASE_URL", ""); dsn != "" {
		db, err := store.Open(dsn)
		if err != nil {
			log.Printf("DB disabled (open failed): %v", err)
		} else {
			if asBool(os.Getenv("AUTO_MIGRATE")) {
				if err := store.Migrate(context.Background(), db); err != nil {
					log.Printf("migrate failed (continuing without DB): %v", err)
					db.Close(context.Background())
					db = nil
				}
			}
			if db != nil {
				return memory.NewStore(db)
			}
		}
	}
	dir := getenv("MEMORY_DIR", "./memory")
	fs, err := memory.NewFileStore(dir)
	if err != nil {
		log.Printf("file memory disabled: %v", err)
		return memory.NewStore(nil)
	}
	return memory.NewStore(fs)
}

//
// ===== self-play =====
//

func runSelfPlay(ctx context.Context, checkStop func() bool, analyzer *strategy.Analyzer, mem *memory.Store) {
	seed := int64(atoiDef(os.Getenv("SELFPLAY_SEED"), 1))
	sessions := atoiDef(os.Getenv("SELFPLAY_SESSIONS"), 10)
	minCycle := time.Duration(atoiDef(os.Getenv("MIN_CYCLE_MS"), 0)) * time.Millisecond

	section("Self-play")
	fmt.Printf("%s seed=%d sessions=%d risk=%.2f\n", bold("Config:"), seed, sessions, analyzer.RiskTolerance)

	wins := 0
	for i := 0; i < sessions; i++ {
		if checkStop() {
			fmt.Println(warn("stop requested, ending self-play"))
			break
		}
		ante := 1 + i%3
		game := sim.New(seed+int64(i), ante)
		co := coord.New(game, game, analyzer, mem)
		co.MinCycle = minCycle

		res := co.Run(ctx)
		tag := bad("LOSS")
		if res.Success {
			tag = good("WIN")
			wins++
		}
		fmt.Printf("  %s session=%s ante=%d score=%d decisions=%d\n",
			tag, dim(res.SessionID[:8]), ante, res.FinalScore, res.Decisions)
	}

	printSummary(mem, wins)
}

func backgroundSelfPlay(ctx context.Context, checkStop func() bool, co *coord.Coordinator, analyzer *strategy.Analyzer, mem *memory.Store, sessions int) {
	seed := int64(atoiDef(os.Getenv("SELFPLAY_SEED"), 1))
	minCycle := time.Duration(atoiDef(os.Getenv("MIN_CYCLE_MS"), 2000)) * time.Millisecond

	for i := 0; i < sessions; i++ {
		if checkStop() {
			return
		}
		game := sim.New(seed+int64(i), 1+i%3)
		co.Observer, co.Actuator = game, game
		co.MinCycle = minCycle
		res := co.Run(ctx)
		log.Printf("selfplay: session %s success=%v score=%d", res.SessionID, res.Success, res.FinalScore)
	}
}

func printSummary(mem *memory.Store, wins int) {
	sum := mem.Summary()
	section("Results")
	fmt.Printf("%s %d sessions, %s wins (win rate %.0f%%, CI [%.2f, %.2f])\n",
		bold("Total:"), sum.TotalSessions, cyan(strconv.Itoa(wins)), sum.WinRate*100, sum.WinRateLow, sum.WinRateHigh)

	agg := mem.AggregateView()
	if len(agg.Jokers) > 0 {
		sub("Joker performance")
		for name, p := range agg.Jokers {
			fmt.Printf("  %-18s used=%d winRate=%.2f avgBoost=%+.0f\n", name, p.UsageCount, p.WinRate, p.AvgScoreBoost)
		}
	}
	if len(agg.HandTypes) > 0 {
		sub("Hand types")
		for ht, p := range agg.HandTypes {
			fmt.Printf("  %-18s played=%d avgScore=%.0f\n", ht, p.UsageCount, p.AvgScore)
		}
	}
}

//
// ===== dry run =====
//

// runDryRun captures one simulated snapshot and prints what the strategy
// would do with it, without executing anything.
func runDryRun(analyzer *strategy.Analyzer) {
	seed := int64(atoiDef(os.Getenv("SELFPLAY_SEED"), 1))
	game := sim.New(seed, 1)
	snap, err := game.Capture(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	section("Dry run")
	fmt.Printf("%s ante=%d money=%d hands=%d discards=%d phase=%s\n",
		bold("State:"), snap.Stats.Ante, snap.Stats.Money, snap.Stats.HandsLeft, snap.Stats.DiscardsLeft, snap.Phase)

	hand := make([]string, len(snap.Hand))
	for i, card := range snap.Hand {
		hand[i] = card.String()
	}
	fmt.Printf("%s %s\n", bold("Hand:"), strings.Join(hand, " "))

	sub("Top candidates")
	for _, cand := range analyzer.AnalyzeHand(snap.Hand, snap.Jokers) {
		names := make([]string, len(cand.Cards))
		for i, card := range cand.Cards {
			names[i] = card.String()
		}
		fmt.Printf("  %-14s %-20s → %d\n", cand.Hand.Type, strings.Join(names, " "), cand.Hand.FinalScore)
	}

	plan := analyzer.PlanAnte(snap)
	sub("Ante plan")
	fmt.Printf("  focus=%s budget=%.0f\n", plan.Focus, plan.ShopBudget)

	var d strategy.Decision
	if snap.Phase == "shop" {
		d = analyzer.ChooseShopAction(snap)
	} else {
		d = analyzer.ChoosePlayOrDiscard(snap)
	}
	sub("Decision")
	fmt.Printf("  %s %s %s\n", good(string(d.Action)), d.Item, dim(d.Reason))
}
