package account

import (
	"sync"
	"time"

	"github.com/archon-trading/spotvenue/internal/types"
	"github.com/archon-trading/spotvenue/internal/venueerrors"
	"github.com/archon-trading/spotvenue/pkg/money"
)

// Manager owns every user's account and performs settlement across the two
// counterparties of a trade under a canonical lock order (ascending user
// ID) so concurrent trades sharing a counterparty can never deadlock.
type Manager struct {
	mu       sync.RWMutex
	accounts map[string]*UserAccount
}

// NewManager returns an empty account manager.
func NewManager() *Manager {
	return &Manager{accounts: make(map[string]*UserAccount)}
}

// Account returns (creating if necessary) the account for a user.
func (m *Manager) Account(userID string) *UserAccount {
	m.mu.RLock()
	acct, ok := m.accounts[userID]
	m.mu.RUnlock()
	if ok {
		return acct
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acct, ok = m.accounts[userID]; ok {
		return acct
	}
	acct = newUserAccount(userID)
	m.accounts[userID] = acct
	return acct
}

// Snapshot returns a point-in-time view of one user's account, or
// NotFound if the user has never been touched.
func (m *Manager) Snapshot(userID string, now time.Time) (types.AccountSnapshot, error) {
	m.mu.RLock()
	acct, ok := m.accounts[userID]
	m.mu.RUnlock()
	if !ok {
		return types.AccountSnapshot{}, venueerrors.New(venueerrors.NotFound, "unknown user").
			WithDetail("user_id", userID)
	}
	return acct.Snapshot(now), nil
}

// TradeSettlement describes one trade's monetary effect, independent of
// the types.Trade wire shape so the ledger has no matching-engine import.
type TradeSettlement struct {
	TradeID     int64
	Symbol      string
	BaseAsset   string
	QuoteAsset  string
	Quantity    money.Decimal
	Price       money.Decimal
	BuyerUserID string
	TakerFee    money.Decimal
	TakerFeeAsset string
	IsBuyerTaker bool

	SellerUserID  string
	MakerFee      money.Decimal
	MakerFeeAsset string

	Now time.Time
}

// SettleTrade atomically moves locked funds between the buyer and seller
// accounts, updates both positions, and appends transaction records. Locks
// both accounts in ascending user-ID order regardless of buyer/seller
// role, so two trades between the same pair of users (in either role)
// never deadlock against each other.
func (m *Manager) SettleTrade(t TradeSettlement) error {
	buyer := m.Account(t.BuyerUserID)
	seller := m.Account(t.SellerUserID)

	first, second := buyer, seller
	if seller.UserID < buyer.UserID {
		first, second = seller, buyer
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	if first != second {
		second.mu.Lock()
		defer second.mu.Unlock()
	}

	quoteAmount := money.Notional(t.Price, t.Quantity)

	takerFee := t.TakerFee
	takerFeeAsset := t.TakerFeeAsset
	makerFee := t.MakerFee
	makerFeeAsset := t.MakerFeeAsset

	buyerFee, buyerFeeAsset := money.Zero(), ""
	sellerFee, sellerFeeAsset := money.Zero(), ""
	if t.IsBuyerTaker {
		buyerFee, buyerFeeAsset = takerFee, takerFeeAsset
		sellerFee, sellerFeeAsset = makerFee, makerFeeAsset
	} else {
		buyerFee, buyerFeeAsset = makerFee, makerFeeAsset
		sellerFee, sellerFeeAsset = takerFee, takerFeeAsset
	}

	if err := buyer.applySettlementLeg(types.Buy, t.Symbol, t.BaseAsset, t.QuoteAsset, t.Quantity, t.Price, quoteAmount, buyerFee, buyerFeeAsset, t.TradeID, t.Now); err != nil {
		return err
	}
	if err := seller.applySettlementLeg(types.Sell, t.Symbol, t.BaseAsset, t.QuoteAsset, t.Quantity, t.Price, quoteAmount, sellerFee, sellerFeeAsset, t.TradeID, t.Now); err != nil {
		return err
	}
	return nil
}
