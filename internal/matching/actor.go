package matching

import (
	"context"

	"github.com/archon-trading/spotvenue/internal/account"
	"github.com/archon-trading/spotvenue/internal/config"
	"github.com/archon-trading/spotvenue/internal/logging"
	"github.com/archon-trading/spotvenue/internal/notify"
	"github.com/archon-trading/spotvenue/internal/orderbook"
	"github.com/archon-trading/spotvenue/internal/types"
	"github.com/archon-trading/spotvenue/pkg/money"
)

// symbolActor serializes every mutation of one symbol's book through a
// single goroutine reading cmdCh, narrowing what would otherwise be one
// engine-wide processing loop down to a per-symbol scope so unrelated
// symbols never contend on the same channel.
type symbolActor struct {
	symbolCfg config.Symbol
	feeCfg    config.FeeConfig

	book *orderbook.Book

	accounts   *account.Manager
	translator *notify.Translator
	logger     logging.Logger

	cmdCh chan command

	orderSeq int64
	tradeSeq int64

	orders map[string]*types.Order // all orders ever seen on this symbol, for cancel lookups
	lastTradePrice money.Decimal
}

func newSymbolActor(symbolCfg config.Symbol, feeCfg config.FeeConfig, accounts *account.Manager, translator *notify.Translator, logger logging.Logger) *symbolActor {
	return &symbolActor{
		symbolCfg:      symbolCfg,
		feeCfg:         feeCfg,
		book:           orderbook.New(symbolCfg.Symbol),
		accounts:       accounts,
		translator:     translator,
		logger:         logger,
		cmdCh:          make(chan command, 256),
		orders:         make(map[string]*types.Order),
		lastTradePrice: money.Zero(),
	}
}

func (a *symbolActor) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-a.cmdCh:
			if !ok {
				return
			}
			a.handle(ctx, cmd)
		}
	}
}

func (a *symbolActor) handle(ctx context.Context, cmd command) {
	switch c := cmd.(type) {
	case submitCmd:
		result, err := a.submit(c.ctx, c.req)
		c.result <- submitOutcome{result: result, err: err}
	case cancelCmd:
		c.result <- a.cancel(c.ctx, c.orderID, c.userID)
	case depthCmd:
		bids, asks := a.book.Depth(c.levels)
		c.result <- DepthSnapshot{Symbol: a.symbolCfg.Symbol, Bids: bids, Asks: asks}
	}
}

func (a *symbolActor) nextOrderID() string {
	a.orderSeq++
	return fmtOrderID(a.symbolCfg.Symbol, a.orderSeq)
}

func (a *symbolActor) nextTradeID() int64 {
	a.tradeSeq++
	return a.tradeSeq
}

// resolvedFeeBps returns this symbol's taker/maker basis points,
// honoring a per-symbol override before falling back to the venue
// default.
func (a *symbolActor) resolvedFeeBps() (takerBps, makerBps int64) {
	if pair, ok := a.feeCfg.PerSymbolBps[a.symbolCfg.Symbol]; ok {
		return pair[0], pair[1]
	}
	return a.feeCfg.DefaultTakerBps, a.feeCfg.DefaultMakerBps
}
