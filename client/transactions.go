package client

import (
	"context"
	"sync"
	"time"
)

// Transaction links a service, a buyer and a seller. Enriched fields come
// from server-side joins.
type Transaction struct {
	ID             string    `json:"id"`
	ServiceID      string    `json:"service_id"`
	BuyerID        string    `json:"buyer_id"`
	SellerID       string    `json:"seller_id"`
	Amount         float64   `json:"amount"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	ServiceTitle   string    `json:"service_title,omitempty"`
	BuyerUsername  string    `json:"buyer_username,omitempty"`
	SellerUsername string    `json:"seller_username,omitempty"`
}

// TransactionStore caches the signed-in user's transactions. Mutations
// merge the server-echoed row by id, the same reconciliation rule as the
// other stores.
type TransactionStore struct {
	c *Client

	mu           sync.RWMutex
	transactions []Transaction
	nextSeq      uint64
	applied      uint64
}

// NewTransactionStore creates a transaction store over the client.
func NewTransactionStore(c *Client) *TransactionStore {
	return &TransactionStore{c: c}
}

// FetchTransactions loads all transactions where the signed-in user is
// buyer or seller, newest first.
func (s *TransactionStore) FetchTransactions(ctx context.Context) ([]Transaction, error) {
	s.mu.Lock()
	s.nextSeq++
	seq := s.nextSeq
	s.mu.Unlock()

	var resp struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := s.c.do(ctx, "GET", "/transactions", nil, &resp); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if seq > s.applied {
		s.applied = seq
		s.transactions = resp.Transactions
	}
	s.mu.Unlock()
	return resp.Transactions, nil
}

// CreateTransaction initiates payment on an offer. The seller and amount
// are derived server-side from the listing; the echoed row is merged into
// the cache.
func (s *TransactionStore) CreateTransaction(ctx context.Context, serviceID string) (*Transaction, error) {
	var created Transaction
	err := s.c.do(ctx, "POST", "/transactions", map[string]string{
		"service_id": serviceID,
	}, &created)
	if err != nil {
		return nil, err
	}
	s.merge(created)
	return &created, nil
}

// UpdateTransactionStatus sets a transaction's status (admin only) and
// merges the echoed row.
func (s *TransactionStore) UpdateTransactionStatus(ctx context.Context, id, status string) (*Transaction, error) {
	var updated Transaction
	err := s.c.do(ctx, "POST", "/admin/transactions/"+id+"/status", map[string]string{
		"status": status,
	}, &updated)
	if err != nil {
		return nil, err
	}
	s.merge(updated)
	return &updated, nil
}

// Transactions returns a copy of the cached transaction list.
func (s *TransactionStore) Transactions() []Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// merge counts as the freshest write, so any fetch still in flight is
// discarded when it completes.
func (s *TransactionStore) merge(t Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	s.applied = s.nextSeq
	for i, existing := range s.transactions {
		if existing.ID == t.ID {
			if t.ServiceTitle == "" {
				t.ServiceTitle = existing.ServiceTitle
			}
			if t.BuyerUsername == "" {
				t.BuyerUsername = existing.BuyerUsername
			}
			if t.SellerUsername == "" {
				t.SellerUsername = existing.SellerUsername
			}
			s.transactions[i] = t
			return
		}
	}
	s.transactions = append([]Transaction{t}, s.transactions...)
}
