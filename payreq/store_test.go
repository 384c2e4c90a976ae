package payreq

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "invoices.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testInvoice(id string) *Invoice {
	return &Invoice{
		ID:          id,
		Request:     testRequest(),
		Description: "order 42",
	}
}

// --- Store Tests ---

func TestStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "deep")
	store, err := OpenStore(filepath.Join(dir, "invoices.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(dir)
	require.NoError(t, err)
}

func TestStorePutAndGet(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Put(testInvoice("inv-1")))

	got, err := store.Get("inv-1")
	require.NoError(t, err)
	assert.Equal(t, "inv-1", got.ID)
	assert.Equal(t, "order 42", got.Description)
	require.NotNil(t, got.Request)
	assert.Equal(t, uint64(50000), got.Request.TotalAmount())
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStorePut_DerivesID(t *testing.T) {
	store := openTestStore(t)

	inv := testInvoice("")
	require.NoError(t, store.Put(inv))
	assert.Equal(t, inv.Request.DeriveID(), inv.ID)

	_, err := store.Get(inv.ID)
	require.NoError(t, err)
}

func TestStorePut_NoIDNoRequest(t *testing.T) {
	store := openTestStore(t)

	err := store.Put(&Invoice{Description: "orphan"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestStorePut_Nil(t *testing.T) {
	store := openTestStore(t)

	err := store.Put(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNilParam)
}

func TestStoreGet_NotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestStoreList_Ordered(t *testing.T) {
	store := openTestStore(t)

	base := time.Now().UTC()
	for i, id := range []string{"inv-c", "inv-a", "inv-b"} {
		inv := testInvoice(id)
		inv.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Put(inv))
	}

	invs, err := store.List()
	require.NoError(t, err)
	require.Len(t, invs, 3)
	assert.Equal(t, "inv-c", invs[0].ID)
	assert.Equal(t, "inv-a", invs[1].ID)
	assert.Equal(t, "inv-b", invs[2].ID)
}

func TestStoreSetPaid(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Put(testInvoice("inv-1")))

	require.NoError(t, store.SetPaid("inv-1", "txid-abc"))

	got, err := store.Get("inv-1")
	require.NoError(t, err)
	assert.Equal(t, "txid-abc", got.TxID)
	assert.False(t, got.PaidAt.IsZero())
	assert.Equal(t, InvoicePaid, got.State())
}

func TestStoreSetPaid_Idempotent(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Put(testInvoice("inv-1")))

	require.NoError(t, store.SetPaid("inv-1", "txid-abc"))
	first, err := store.Get("inv-1")
	require.NoError(t, err)

	// A duplicate broadcast reporting the same txid changes nothing.
	require.NoError(t, store.SetPaid("inv-1", "txid-abc"))
	second, err := store.Get("inv-1")
	require.NoError(t, err)
	assert.Equal(t, first.PaidAt, second.PaidAt)
}

func TestStoreSetPaid_NotFound(t *testing.T) {
	store := openTestStore(t)

	err := store.SetPaid("missing", "txid-abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestStoreSetPaid_EmptyTxID(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Put(testInvoice("inv-1")))

	err := store.SetPaid("inv-1", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNilParam)
}

func TestStoreDelete(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Put(testInvoice("inv-1")))

	require.NoError(t, store.Delete("inv-1"))
	_, err := store.Get("inv-1")
	assert.ErrorIs(t, err, ErrInvoiceNotFound)

	// Deleting again is not an error.
	require.NoError(t, store.Delete("inv-1"))
}

func TestStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoices.db")

	store, err := OpenStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(testInvoice("inv-1")))
	require.NoError(t, store.SetPaid("inv-1", "txid-abc"))
	require.NoError(t, store.Close())

	reopened, err := OpenStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get("inv-1")
	require.NoError(t, err)
	assert.Equal(t, "txid-abc", got.TxID)
	assert.Equal(t, InvoicePaid, got.State())
}

// --- Invoice State Tests ---

func TestInvoiceState(t *testing.T) {
	inv := testInvoice("inv-1")
	assert.Equal(t, InvoiceUnpaid, inv.State())

	inv.Request.ExpirationTimestamp = time.Now().Add(-time.Minute).Unix()
	assert.Equal(t, InvoiceExpired, inv.State())

	// Payment wins over expiry.
	inv.TxID = "txid-abc"
	assert.Equal(t, InvoicePaid, inv.State())
}

func TestInvoiceStateString(t *testing.T) {
	assert.Equal(t, "unpaid", InvoiceUnpaid.String())
	assert.Equal(t, "paid", InvoicePaid.String())
	assert.Equal(t, "expired", InvoiceExpired.String())
}
