package cart

import (
	"sync"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/kasir-app/apperrors"
	"github.com/yeremiapane/kasir-app/models"
)

// Snapshot salinan keranjang yang aman dikirim ke luar Store.
type Snapshot struct {
	Items         []models.CartItem    `json:"items"`
	PaymentMethod models.PaymentMethod `json:"payment_method,omitempty"`
	TotalItems    int                  `json:"total_items"`
	TotalPrice    decimal.Decimal      `json:"total_price"`
	DisplayTotal  decimal.Decimal      `json:"display_total"`
}

type entry struct {
	cart        *Cart
	checkingOut bool
}

// Store menyimpan satu keranjang per staff (owner ref).
type Store struct {
	mu    sync.Mutex
	carts map[string]*entry
}

func NewStore() *Store {
	return &Store{carts: make(map[string]*entry)}
}

func (s *Store) entryFor(owner string) *entry {
	e, ok := s.carts[owner]
	if !ok {
		e = &entry{cart: New()}
		s.carts[owner] = e
	}
	return e
}

func snapshotOf(c *Cart) Snapshot {
	return Snapshot{
		Items:         c.Items(),
		PaymentMethod: c.PaymentMethod(),
		TotalItems:    c.TotalItems(),
		TotalPrice:    c.TotalPrice(),
		DisplayTotal:  c.DisplayTotal(),
	}
}

func (s *Store) Snapshot(owner string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotOf(s.entryFor(owner).cart)
}

// Update menjalankan fn terhadap keranjang owner. Ditolak selama checkout berjalan.
func (s *Store) Update(owner string, fn func(c *Cart)) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryFor(owner)
	if e.checkingOut {
		return Snapshot{}, apperrors.NewValidationError("cart is being checked out")
	}
	fn(e.cart)
	return snapshotOf(e.cart), nil
}

// BeginCheckout mengunci keranjang owner untuk dikonversi menjadi order.
// finish(true) mengosongkan keranjang; finish(false) membuka kunci tanpa mengubah isi.
func (s *Store) BeginCheckout(owner string) (Snapshot, func(success bool), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryFor(owner)
	if e.checkingOut {
		return Snapshot{}, nil, apperrors.NewValidationError("cart checkout already in progress")
	}
	if e.cart.IsEmpty() {
		return Snapshot{}, nil, apperrors.NewValidationError("cart is empty",
			apperrors.ValidationDetail{Field: "items", Message: "add at least one item"})
	}
	e.checkingOut = true

	var once sync.Once
	finish := func(success bool) {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			e.checkingOut = false
			if success {
				e.cart.Clear()
			}
		})
	}
	return snapshotOf(e.cart), finish, nil
}
