package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresRepository persists the ledger in PostgreSQL. Price records on
// invoice items are stored denormalized next to the line so an invoice reads
// back without joining the price history.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgresRepository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Invoice fetches one invoice with its items.
func (r *PostgresRepository) Invoice(ctx context.Context, number string) (Invoice, bool, error) {
	const query = `SELECT number, date, total_price FROM invoices WHERE number = $1`
	var inv Invoice
	if err := r.pool.QueryRow(ctx, query, number).Scan(&inv.Number, &inv.Date, &inv.TotalPrice); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, false, nil
		}
		return Invoice{}, false, err
	}
	items, err := r.invoiceItems(ctx, number)
	if err != nil {
		return Invoice{}, false, err
	}
	inv.Items = items
	return inv, true, nil
}

// Invoices lists all invoices with items, ordered by date.
func (r *PostgresRepository) Invoices(ctx context.Context) ([]Invoice, error) {
	const query = `SELECT number, date, total_price FROM invoices ORDER BY date, number`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.Number, &inv.Date, &inv.TotalPrice); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		items, err := r.invoiceItems(ctx, out[i].Number)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (r *PostgresRepository) invoiceItems(ctx context.Context, number string) ([]InvoiceItem, error) {
	const query = `
		SELECT quantity, name, beverage_id, total_price,
		       purchase_price, purchase_deposit, purchase_valid_from,
		       sale_price, sale_deposit, sale_valid_from
		FROM invoice_items WHERE invoice_number = $1 ORDER BY id`
	rows, err := r.pool.Query(ctx, query, number)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []InvoiceItem
	for rows.Next() {
		var it InvoiceItem
		if err := rows.Scan(
			&it.Quantity, &it.Name, &it.BeverageID, &it.TotalPrice,
			&it.PurchasePrice.Price, &it.PurchasePrice.Deposit, &it.PurchasePrice.ValidFrom,
			&it.SalePrice.Price, &it.SalePrice.Deposit, &it.SalePrice.ValidFrom,
		); err != nil {
			return nil, err
		}
		it.PurchasePrice.BeverageID = it.BeverageID
		it.SalePrice.BeverageID = it.BeverageID
		items = append(items, it)
	}
	return items, rows.Err()
}

// SaveInvoice stores an invoice and replaces its items in one transaction.
func (r *PostgresRepository) SaveInvoice(ctx context.Context, inv Invoice) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const upsert = `
		INSERT INTO invoices (number, date, total_price)
		VALUES ($1, $2, $3)
		ON CONFLICT (number) DO UPDATE SET date = EXCLUDED.date, total_price = EXCLUDED.total_price`
	if _, err := tx.Exec(ctx, upsert, inv.Number, inv.Date, inv.TotalPrice); err != nil {
		return fmt.Errorf("save invoice %s: %w", inv.Number, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_number = $1`, inv.Number); err != nil {
		return err
	}
	const insertItem = `
		INSERT INTO invoice_items (
			invoice_number, quantity, name, beverage_id, total_price,
			purchase_price, purchase_deposit, purchase_valid_from,
			sale_price, sale_deposit, sale_valid_from
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	for _, it := range inv.Items {
		if _, err := tx.Exec(ctx, insertItem,
			inv.Number, it.Quantity, it.Name, it.BeverageID, it.TotalPrice,
			it.PurchasePrice.Price, it.PurchasePrice.Deposit, it.PurchasePrice.ValidFrom,
			it.SalePrice.Price, it.SalePrice.Deposit, it.SalePrice.ValidFrom,
		); err != nil {
			return fmt.Errorf("save invoice %s item %s: %w", inv.Number, it.BeverageID, err)
		}
	}
	return tx.Commit(ctx)
}

// Bookings lists all account bookings ordered by booking date.
func (r *PostgresRepository) Bookings(ctx context.Context) ([]AccountBooking, error) {
	const query = `
		SELECT booking_date, value_date, kind, description, creditor_id,
		       mandate_reference, customer_reference, collector_ref,
		       original_amount, chargeback_amount, beneficiary_or_payer,
		       iban, bic, amount, currency, additional_info
		FROM account_bookings ORDER BY booking_date, fingerprint`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AccountBooking
	for rows.Next() {
		var b AccountBooking
		if err := rows.Scan(
			&b.BookingDate, &b.ValueDate, &b.Kind, &b.Description, &b.CreditorID,
			&b.MandateReference, &b.CustomerReference, &b.CollectorRef,
			&b.OriginalAmount, &b.ChargebackAmount, &b.BeneficiaryOrPayer,
			&b.IBAN, &b.BIC, &b.Amount, &b.Currency, &b.AdditionalInfo,
		); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// AddBookings inserts statement rows keyed by fingerprint; rows already
// present are skipped. Returns the number of newly stored bookings.
func (r *PostgresRepository) AddBookings(ctx context.Context, bookings []AccountBooking) (int, error) {
	const insert = `
		INSERT INTO account_bookings (
			fingerprint, booking_date, value_date, kind, description,
			creditor_id, mandate_reference, customer_reference, collector_ref,
			original_amount, chargeback_amount, beneficiary_or_payer,
			iban, bic, amount, currency, additional_info
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (fingerprint) DO NOTHING`
	added := 0
	for _, b := range bookings {
		tag, err := r.pool.Exec(ctx, insert,
			b.Fingerprint(), b.BookingDate, b.ValueDate, string(b.Kind), b.Description,
			b.CreditorID, b.MandateReference, b.CustomerReference, b.CollectorRef,
			b.OriginalAmount, b.ChargebackAmount, b.BeneficiaryOrPayer,
			b.IBAN, b.BIC, b.Amount, b.Currency, b.AdditionalInfo,
		)
		if err != nil {
			return added, err
		}
		added += int(tag.RowsAffected())
	}
	return added, nil
}

// Snapshots lists inventory snapshots in chronological order.
func (r *PostgresRepository) Snapshots(ctx context.Context) ([]Snapshot, error) {
	const query = `
		SELECT id, date, money_in_safe, other_monetary_value
		FROM inventory_snapshots ORDER BY date`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.Date, &s.MoneyInSafe, &s.OtherMonetaryValue); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.fillSnapshot(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *PostgresRepository) fillSnapshot(ctx context.Context, s *Snapshot) error {
	s.Counts = make(map[string]decimal.Decimal)
	const countQuery = `SELECT beverage_id, count FROM snapshot_counts WHERE snapshot_id = $1`
	rows, err := r.pool.Query(ctx, countQuery, s.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var count decimal.Decimal
		if err := rows.Scan(&id, &count); err != nil {
			return err
		}
		s.Counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.ExtraExpenses = make(map[string]decimal.Decimal)
	const expenseQuery = `SELECT label, amount FROM snapshot_expenses WHERE snapshot_id = $1`
	expRows, err := r.pool.Query(ctx, expenseQuery, s.ID)
	if err != nil {
		return err
	}
	defer expRows.Close()
	for expRows.Next() {
		var label string
		var amount decimal.Decimal
		if err := expRows.Scan(&label, &amount); err != nil {
			return err
		}
		s.ExtraExpenses[label] = amount
	}
	return expRows.Err()
}

// AddSnapshot stores a snapshot unless one with the same date exists. Counted
// snapshots are never updated in place.
func (r *PostgresRepository) AddSnapshot(ctx context.Context, snap Snapshot) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	const insert = `
		INSERT INTO inventory_snapshots (id, date, money_in_safe, other_monetary_value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (date) DO NOTHING`
	tag, err := tx.Exec(ctx, insert, snap.ID, snap.Date, snap.MoneyInSafe, snap.OtherMonetaryValue)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	const insertCount = `
		INSERT INTO snapshot_counts (snapshot_id, beverage_id, count)
		VALUES ($1, $2, $3)`
	for id, count := range snap.Counts {
		if _, err := tx.Exec(ctx, insertCount, snap.ID, id, count); err != nil {
			return false, err
		}
	}
	const insertExpense = `
		INSERT INTO snapshot_expenses (snapshot_id, label, amount)
		VALUES ($1, $2, $3)`
	for label, amount := range snap.ExtraExpenses {
		if _, err := tx.Exec(ctx, insertExpense, snap.ID, label, amount); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}
