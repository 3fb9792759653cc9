package ledger

import (
	"context"
	"sort"
	"sync"
)

// Repository abstracts persistence for invoices, account bookings and
// inventory snapshots. All imports are idempotent at this boundary:
// re-adding present data is a no-op, never a duplicate.
type Repository interface {
	Invoice(ctx context.Context, number string) (Invoice, bool, error)
	Invoices(ctx context.Context) ([]Invoice, error)
	SaveInvoice(ctx context.Context, inv Invoice) error
	Bookings(ctx context.Context) ([]AccountBooking, error)
	AddBookings(ctx context.Context, bookings []AccountBooking) (int, error)
	Snapshots(ctx context.Context) ([]Snapshot, error)
	AddSnapshot(ctx context.Context, snap Snapshot) (bool, error)
}

// MemoryRepository is the in-process ledger store used by batch runs and
// tests.
type MemoryRepository struct {
	mu        sync.Mutex
	invoices  map[string]Invoice
	bookings  map[string]AccountBooking
	snapshots map[string]Snapshot
}

// NewMemoryRepository constructs an empty in-memory ledger repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		invoices:  make(map[string]Invoice),
		bookings:  make(map[string]AccountBooking),
		snapshots: make(map[string]Snapshot),
	}
}

// Invoice fetches one invoice by number.
func (r *MemoryRepository) Invoice(_ context.Context, number string) (Invoice, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[number]
	return inv, ok, nil
}

// Invoices lists all invoices ordered by date.
func (r *MemoryRepository) Invoices(_ context.Context) ([]Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// SaveInvoice stores an invoice keyed by its number.
func (r *MemoryRepository) SaveInvoice(_ context.Context, inv Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoices[inv.Number] = inv
	return nil
}

// Bookings lists all bookings ordered by booking date.
func (r *MemoryRepository) Bookings(_ context.Context) ([]AccountBooking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AccountBooking, 0, len(r.bookings))
	for _, b := range r.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingDate.Before(out[j].BookingDate) })
	return out, nil
}

// AddBookings inserts statement rows, skipping ones already present. The
// returned count is the number of newly stored bookings.
func (r *MemoryRepository) AddBookings(_ context.Context, bookings []AccountBooking) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	added := 0
	for _, b := range bookings {
		key := b.Fingerprint()
		if _, ok := r.bookings[key]; ok {
			continue
		}
		r.bookings[key] = b
		added++
	}
	return added, nil
}

// Snapshots lists inventory snapshots in chronological order.
func (r *MemoryRepository) Snapshots(_ context.Context) ([]Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, 0, len(r.snapshots))
	for _, s := range r.snapshots {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// AddSnapshot stores a snapshot unless one with the same date exists.
// Updating a counted snapshot is not supported.
func (r *MemoryRepository) AddSnapshot(_ context.Context, snap Snapshot) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := snap.Date.Format("2006-01-02")
	if _, ok := r.snapshots[key]; ok {
		return false, nil
	}
	r.snapshots[key] = snap
	return true, nil
}
