// Package worker runs the background block production for a node. Every
// cycle a proof of work node mines a reward block and a proof of stake node
// forges one.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/strategy"
)

// Producer represents the behavior of a ledger that can produce blocks on
// its own.
type Producer interface {
	MineReward(ctx context.Context, beneficiary string, nonce uint64) (database.Block, error)
	Forge(ctx context.Context) (database.Block, error)
	Strategy() strategy.Strategy
}

// Config represents the configuration of the worker.
type Config struct {
	Beneficiary string        // Identity rewarded for proof of work blocks.
	Cycle       time.Duration // Time between production attempts.
}

// =============================================================================

// Worker manages the block production workflow for the ledger.
type Worker struct {
	ledger       Producer
	beneficiary  string
	cycle        time.Duration
	wg           sync.WaitGroup
	shut         chan struct{}
	startMining  chan bool
	cancelMining chan bool
	evHandler    strategy.EventHandler
}

// Run creates a worker and starts up all the background processes.
func Run(ledger Producer, cfg Config, evHandler strategy.EventHandler) *Worker {
	if evHandler == nil {
		evHandler = func(string, ...any) {}
	}

	w := Worker{
		ledger:       ledger,
		beneficiary:  cfg.Beneficiary,
		cycle:        cfg.Cycle,
		shut:         make(chan struct{}),
		startMining:  make(chan bool, 1),
		cancelMining: make(chan bool, 1),
		evHandler:    evHandler,
	}

	// Load the set of operations we need to run.
	operations := []func(){
		w.miningOperations,
	}
	if w.cycle > 0 {
		operations = append(operations, w.cycleOperations)
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for range g {
		<-hasStarted
	}

	return &w
}

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: signal cancel mining")
	w.SignalCancelMining()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalStartMining starts a mining operation. If there is already a signal
// pending in the channel, just return since a mining operation will start.
func (w *Worker) SignalStartMining() {
	select {
	case w.startMining <- true:
	default:
	}
	w.evHandler("worker: SignalStartMining: mining signaled")
}

// SignalCancelMining signals the G executing the runMiningOperation function
// to stop immediately.
func (w *Worker) SignalCancelMining() {
	select {
	case w.cancelMining <- true:
	default:
	}
	w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled")
}

// =============================================================================

// cycleOperations signals a mining operation at the start of every cycle.
func (w *Worker) cycleOperations() {
	w.evHandler("worker: cycleOperations: G started")
	defer w.evHandler("worker: cycleOperations: G completed")

	ticker := time.NewTicker(w.cycle)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !w.isShutdown() {
				w.SignalStartMining()
			}
		case <-w.shut:
			w.evHandler("worker: cycleOperations: received shut signal")
			return
		}
	}
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
