package wallet

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStateStore(t *testing.T) *TxStateStore {
	t.Helper()
	s, err := OpenTxStateStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testTxID(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

// --- Store tests ---

func TestOpenTxStateStore_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.db")
	s, err := OpenTxStateStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestTxStateStore_TrackAndGet(t *testing.T) {
	s := openTestStateStore(t)
	txID := testTxID(0x01)
	raw := []byte{0xde, 0xad, 0xbe, 0xef}

	require.NoError(t, s.Track(txID, raw, FlagSigned))

	rec, err := s.Get(txID)
	require.NoError(t, err)
	assert.Equal(t, txID, rec.TxID)
	assert.Equal(t, raw, rec.Raw)
	assert.True(t, rec.Flags.Has(FlagSigned))
	assert.True(t, rec.Flags.Has(FlagByteData), "raw bytes should set FlagByteData")
	assert.False(t, rec.UpdatedAt.IsZero())
}

func TestTxStateStore_Track_Idempotent(t *testing.T) {
	s := openTestStateStore(t)
	txID := testTxID(0x01)
	raw := []byte{0x01, 0x02}

	require.NoError(t, s.Track(txID, raw, FlagSigned))
	require.NoError(t, s.Track(txID, nil, FlagDispatched))

	rec, err := s.Get(txID)
	require.NoError(t, err)
	assert.Equal(t, raw, rec.Raw, "raw bytes survive later flag-only tracks")
	assert.True(t, rec.Flags.Has(FlagSigned))
	assert.True(t, rec.Flags.Has(FlagDispatched))
}

func TestTxStateStore_Track_RawStoredOnce(t *testing.T) {
	s := openTestStateStore(t)
	txID := testTxID(0x01)

	require.NoError(t, s.Track(txID, []byte{0x01}, FlagSigned))
	require.NoError(t, s.Track(txID, []byte{0x02, 0x03}, FlagSigned))

	rec, err := s.Get(txID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, rec.Raw, "first raw bytes win")
}

func TestTxStateStore_Track_BadTxID(t *testing.T) {
	s := openTestStateStore(t)
	assert.ErrorIs(t, s.Track([]byte{0x01}, nil, FlagSigned), ErrInvalidTxID)
}

func TestTxStateStore_Get_NotTracked(t *testing.T) {
	s := openTestStateStore(t)
	_, err := s.Get(testTxID(0x09))
	assert.ErrorIs(t, err, ErrTxNotTracked)
}

func TestTxStateStore_MergeFlags(t *testing.T) {
	s := openTestStateStore(t)
	txID := testTxID(0x01)
	require.NoError(t, s.Track(txID, nil, FlagSigned))

	merged, err := s.MergeFlags(txID, FlagDispatched)
	require.NoError(t, err)
	assert.True(t, merged.Has(FlagSigned))
	assert.True(t, merged.Has(FlagDispatched))

	// Merging the same flag again changes nothing.
	again, err := s.MergeFlags(txID, FlagDispatched)
	require.NoError(t, err)
	assert.Equal(t, merged, again)
}

func TestTxStateStore_MergeFlags_NotTracked(t *testing.T) {
	s := openTestStateStore(t)
	_, err := s.MergeFlags(testTxID(0x09), FlagDispatched)
	assert.ErrorIs(t, err, ErrTxNotTracked)
}

func TestTxStateStore_SetLabel(t *testing.T) {
	s := openTestStateStore(t)
	txID := testTxID(0x01)
	require.NoError(t, s.Track(txID, nil, FlagSigned))

	require.NoError(t, s.SetLabel(txID, "rent"))
	rec, err := s.Get(txID)
	require.NoError(t, err)
	assert.Equal(t, "rent", rec.Label)
}

func TestTxStateStore_SetLabel_NotTracked(t *testing.T) {
	s := openTestStateStore(t)
	assert.ErrorIs(t, s.SetLabel(testTxID(0x09), "x"), ErrTxNotTracked)
}

func TestTxStateStore_List(t *testing.T) {
	s := openTestStateStore(t)
	require.NoError(t, s.Track(testTxID(0x01), nil, FlagSigned))
	require.NoError(t, s.Track(testTxID(0x02), nil, FlagDispatched))

	recs, err := s.List()
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestTxStateStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	txID := testTxID(0x01)

	s, err := OpenTxStateStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Track(txID, []byte{0xaa}, FlagSigned))
	require.NoError(t, s.Close())

	reopened, err := OpenTxStateStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	rec, err := reopened.Get(txID)
	require.NoError(t, err)
	assert.True(t, rec.Flags.Has(FlagSigned))
	assert.Equal(t, []byte{0xaa}, rec.Raw)
}

// --- Flag tests ---

func TestTxFlags_State(t *testing.T) {
	tests := []struct {
		name  string
		flags TxFlags
		want  TxFlags
	}{
		{"none", 0, 0},
		{"signed only", FlagSigned, FlagSigned},
		{"signed and dispatched", FlagSigned | FlagDispatched, FlagDispatched},
		{"full progression", FlagSigned | FlagDispatched | FlagCleared | FlagSettled, FlagSettled},
		{"bytedata alone has no state", FlagByteData, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.flags.State())
		})
	}
}

func TestTxFlags_String(t *testing.T) {
	assert.Equal(t, "none", TxFlags(0).String())
	assert.Equal(t, "signed", FlagSigned.String())
	assert.Equal(t, "signed|dispatched|bytedata", (FlagSigned | FlagDispatched | FlagByteData).String())
	assert.Contains(t, TxFlags(1<<30).String(), "unknown")
}
