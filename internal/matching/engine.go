// Package matching implements the order matching core: one actor
// goroutine per symbol running a price-time priority limit order book,
// so order submission and cancellation for different symbols proceed
// fully in parallel while all mutation of a single symbol's book is
// strictly serialized through its actor's command channel.
package matching

import (
	"context"
	"fmt"
	"sync"

	"github.com/archon-trading/spotvenue/internal/account"
	"github.com/archon-trading/spotvenue/internal/config"
	"github.com/archon-trading/spotvenue/internal/eventbus"
	"github.com/archon-trading/spotvenue/internal/logging"
	"github.com/archon-trading/spotvenue/internal/notify"
	"github.com/archon-trading/spotvenue/internal/venueerrors"
)

// Engine owns every symbol's actor and routes requests to the right one.
type Engine struct {
	cfg        *config.Config
	accounts   *account.Manager
	translator *notify.Translator
	bus        *eventbus.Bus
	logger     logging.Logger

	mu     sync.RWMutex
	actors map[string]*symbolActor
}

// New builds an Engine with one actor per configured symbol; an inactive
// symbol's actor rejects every order with SYMBOL_INACTIVE.
func New(cfg *config.Config, accounts *account.Manager, bus *eventbus.Bus, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Engine{
		cfg:        cfg,
		accounts:   accounts,
		translator: notify.New(bus),
		bus:        bus,
		logger:     logger,
		actors:     make(map[string]*symbolActor),
	}
	for _, s := range cfg.Symbols {
		e.actors[s.Symbol] = newSymbolActor(s, cfg.Fees, accounts, e.translator, logger.With())
	}
	return e
}

// Start launches every symbol actor's run loop.
func (e *Engine) Start(ctx context.Context) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, a := range e.actors {
		go a.run(ctx)
	}
}

// Stop signals every actor to drain and exit.
func (e *Engine) Stop() {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, a := range e.actors {
		close(a.cmdCh)
	}
}

func (e *Engine) actorFor(symbol string) (*symbolActor, error) {
	e.mu.RLock()
	a, ok := e.actors[symbol]
	e.mu.RUnlock()
	if !ok {
		return nil, venueerrors.New(venueerrors.Validation, "unknown symbol").WithDetail("symbol", symbol)
	}
	return a, nil
}

// Submit accepts a new order for matching and blocks until the pipeline
// (accept, validate, match, settle, publish) has fully run.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	a, err := e.actorFor(req.Symbol)
	if err != nil {
		return nil, err
	}
	resultCh := make(chan submitOutcome, 1)
	cmd := submitCmd{ctx: ctx, req: req, result: resultCh}
	select {
	case a.cmdCh <- cmd:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case out := <-resultCh:
		return out.result, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel requests cancellation of a resting order by id.
func (e *Engine) Cancel(ctx context.Context, symbol, orderID, userID string) error {
	a, err := e.actorFor(symbol)
	if err != nil {
		return err
	}
	resultCh := make(chan error, 1)
	cmd := cancelCmd{ctx: ctx, orderID: orderID, userID: userID, result: resultCh}
	select {
	case a.cmdCh <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-resultCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Depth returns a synchronous depth snapshot for a symbol.
func (e *Engine) Depth(ctx context.Context, symbol string, levels int) (DepthSnapshot, error) {
	a, err := e.actorFor(symbol)
	if err != nil {
		return DepthSnapshot{}, err
	}
	resultCh := make(chan DepthSnapshot, 1)
	cmd := depthCmd{levels: levels, result: resultCh}
	select {
	case a.cmdCh <- cmd:
	case <-ctx.Done():
		return DepthSnapshot{}, ctx.Err()
	}
	select {
	case snap := <-resultCh:
		return snap, nil
	case <-ctx.Done():
		return DepthSnapshot{}, ctx.Err()
	}
}

func fmtOrderID(symbol string, seq int64) string {
	return fmt.Sprintf("%s-%d", symbol, seq)
}
