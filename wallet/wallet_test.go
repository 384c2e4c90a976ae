package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testWallet(t *testing.T) *Wallet {
	t.Helper()
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	w, err := NewWallet(seed, &MainNet)
	require.NoError(t, err)
	return w
}

// --- Mnemonic tests ---

func TestGenerateMnemonic_12Words(t *testing.T) {
	mnemonic, err := GenerateMnemonic(Mnemonic12Words)
	require.NoError(t, err)

	words := strings.Fields(mnemonic)
	assert.Len(t, words, 12, "12-word mnemonic should have 12 words")
	assert.True(t, ValidateMnemonic(mnemonic), "generated mnemonic should be valid")
}

func TestGenerateMnemonic_24Words(t *testing.T) {
	mnemonic, err := GenerateMnemonic(Mnemonic24Words)
	require.NoError(t, err)

	words := strings.Fields(mnemonic)
	assert.Len(t, words, 24, "24-word mnemonic should have 24 words")
	assert.True(t, ValidateMnemonic(mnemonic), "generated mnemonic should be valid")
}

func TestGenerateMnemonic_InvalidEntropy(t *testing.T) {
	_, err := GenerateMnemonic(64)
	assert.ErrorIs(t, err, ErrInvalidEntropy)

	_, err = GenerateMnemonic(192)
	assert.ErrorIs(t, err, ErrInvalidEntropy)
}

func TestGenerateMnemonic_Unique(t *testing.T) {
	m1, err := GenerateMnemonic(Mnemonic12Words)
	require.NoError(t, err)

	m2, err := GenerateMnemonic(Mnemonic12Words)
	require.NoError(t, err)

	assert.NotEqual(t, m1, m2, "two generated mnemonics should be different")
}

func TestValidateMnemonic(t *testing.T) {
	tests := []struct {
		name     string
		mnemonic string
		valid    bool
	}{
		{"valid 12-word", testMnemonic, true},
		{"invalid words", "foo bar baz qux quux corge grault garply waldo fred plugh xyzzy", false},
		{"empty", "", false},
		{"partial", "abandon abandon", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateMnemonic(tt.mnemonic))
		})
	}
}

// --- Seed derivation tests ---

func TestSeedFromMnemonic_Deterministic(t *testing.T) {
	seed1, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	seed2, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	assert.Equal(t, seed1, seed2, "same mnemonic+passphrase should produce same seed")
	assert.Len(t, seed1, 64, "BIP39 seed should be 64 bytes")
}

func TestSeedFromMnemonic_DifferentPassphrase(t *testing.T) {
	seed1, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	seed2, err := SeedFromMnemonic(testMnemonic, "my secret passphrase")
	require.NoError(t, err)

	assert.NotEqual(t, seed1, seed2, "different passphrases should produce different seeds")
}

func TestSeedFromMnemonic_InvalidMnemonic(t *testing.T) {
	_, err := SeedFromMnemonic("invalid mnemonic words here", "")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
}

// --- Seed encryption tests ---

func TestEncryptDecryptSeed_RoundTrip(t *testing.T) {
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	encrypted, err := EncryptSeed(seed, "correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, seed, encrypted)

	decrypted, err := DecryptSeed(encrypted, "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, seed, decrypted)
}

func TestDecryptSeed_WrongPassword(t *testing.T) {
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	encrypted, err := EncryptSeed(seed, "right password")
	require.NoError(t, err)

	_, err = DecryptSeed(encrypted, "wrong password")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestEncryptSeed_EmptySeed(t *testing.T) {
	_, err := EncryptSeed(nil, "password")
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

func TestDecryptSeed_TooShort(t *testing.T) {
	_, err := DecryptSeed([]byte{0x01, 0x02, 0x03}, "password")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecryptSeed_Corrupted(t *testing.T) {
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	encrypted, err := EncryptSeed(seed, "password")
	require.NoError(t, err)

	// Flip a ciphertext byte; GCM authentication must reject it.
	encrypted[len(encrypted)-1] ^= 0xff
	_, err = DecryptSeed(encrypted, "password")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestEncryptSeed_DifferentCiphertexts(t *testing.T) {
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	enc1, err := EncryptSeed(seed, "password")
	require.NoError(t, err)
	enc2, err := EncryptSeed(seed, "password")
	require.NoError(t, err)

	assert.NotEqual(t, enc1, enc2, "random salt and nonce should vary the ciphertext")
}

// --- Wallet and key derivation tests ---

func TestNewWallet(t *testing.T) {
	w := testWallet(t)
	assert.Equal(t, "mainnet", w.Network().Name)
}

func TestNewWallet_EmptySeed(t *testing.T) {
	_, err := NewWallet(nil, &MainNet)
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

func TestNewWallet_NilNetwork(t *testing.T) {
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	w, err := NewWallet(seed, nil)
	require.NoError(t, err)
	assert.Equal(t, "mainnet", w.Network().Name, "nil network should default to mainnet")
}

func TestDeriveKey(t *testing.T) {
	w := testWallet(t)

	kp, err := w.DeriveKey(DefaultAccount, ExternalChain, 0)
	require.NoError(t, err)
	require.NotNil(t, kp.PrivateKey)
	require.NotNil(t, kp.PublicKey)
	assert.Equal(t, "m/44'/236'/0'/0/0", kp.Path)
}

func TestDeriveKey_Deterministic(t *testing.T) {
	w := testWallet(t)

	kp1, err := w.DeriveKey(DefaultAccount, InternalChain, 7)
	require.NoError(t, err)
	kp2, err := w.DeriveKey(DefaultAccount, InternalChain, 7)
	require.NoError(t, err)

	assert.Equal(t, kp1.PublicKey.Compressed(), kp2.PublicKey.Compressed())
}

func TestDeriveKey_DifferentIndices(t *testing.T) {
	w := testWallet(t)

	kp0, err := w.DeriveKey(DefaultAccount, ExternalChain, 0)
	require.NoError(t, err)
	kp1, err := w.DeriveKey(DefaultAccount, ExternalChain, 1)
	require.NoError(t, err)

	assert.NotEqual(t, kp0.PublicKey.Compressed(), kp1.PublicKey.Compressed())
}

func TestDeriveKey_UnknownChain(t *testing.T) {
	w := testWallet(t)

	_, err := w.DeriveKey(DefaultAccount, 2, 0)
	assert.ErrorIs(t, err, ErrDerivationFailed)
}

func TestDeriveKey_IndexOutOfRange(t *testing.T) {
	w := testWallet(t)

	_, err := w.DeriveKey(DefaultAccount, ExternalChain, MaxAddressIndex+1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestDeriveKey_AccountOutOfRange(t *testing.T) {
	w := testWallet(t)

	_, err := w.DeriveKey(Hardened, ExternalChain, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestReceiveAndChangeKeysDiffer(t *testing.T) {
	w := testWallet(t)

	recv, err := w.ReceiveKey(0)
	require.NoError(t, err)
	change, err := w.ChangeKey(0)
	require.NoError(t, err)

	assert.Equal(t, "m/44'/236'/0'/0/0", recv.Path)
	assert.Equal(t, "m/44'/236'/0'/1/0", change.Path)
	assert.NotEqual(t, recv.PublicKey.Compressed(), change.PublicKey.Compressed())
}

func TestAddress(t *testing.T) {
	w := testWallet(t)

	kp, err := w.ReceiveKey(0)
	require.NoError(t, err)

	addr, err := w.Address(kp)
	require.NoError(t, err)
	assert.NotEmpty(t, addr)
	assert.True(t, strings.HasPrefix(addr, "1"), "mainnet P2PKH address should start with 1, got %q", addr)

	addr2, err := w.Address(kp)
	require.NoError(t, err)
	assert.Equal(t, addr, addr2, "address derivation should be deterministic")
}

func TestAddress_NilKeyPair(t *testing.T) {
	w := testWallet(t)

	_, err := w.Address(nil)
	assert.ErrorIs(t, err, ErrNilParam)
}

func TestAddress_DifferentIndicesDiffer(t *testing.T) {
	w := testWallet(t)

	kp0, err := w.ReceiveKey(0)
	require.NoError(t, err)
	kp1, err := w.ReceiveKey(1)
	require.NoError(t, err)

	a0, err := w.Address(kp0)
	require.NoError(t, err)
	a1, err := w.Address(kp1)
	require.NoError(t, err)
	assert.NotEqual(t, a0, a1)
}

// --- Key path parsing tests ---

func TestParseKeyPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		account uint32
		chain   uint32
		index   uint32
		wantErr bool
	}{
		{"standard change path", "m/44'/236'/0'/1/7", 0, 1, 7, false},
		{"standard receive path", "m/44'/236'/0'/0/0", 0, 0, 0, false},
		{"higher account", "m/44'/236'/3'/0/12", 3, 0, 12, false},
		{"short relative path", "0'/1/2", 0, 1, 2, false},
		{"too short", "1/2", 0, 0, 0, true},
		{"account not hardened", "m/44'/236'/0/1/7", 0, 0, 0, true},
		{"bad chain", "m/44'/236'/0'/x/7", 0, 0, 0, true},
		{"bad index", "m/44'/236'/0'/1/x", 0, 0, 0, true},
		{"empty", "", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, chain, index, err := parseKeyPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.account, account)
			assert.Equal(t, tt.chain, chain)
			assert.Equal(t, tt.index, index)
		})
	}
}

// --- Network tests ---

func TestGetNetwork(t *testing.T) {
	for _, name := range []string{"mainnet", "testnet", "regtest"} {
		net, err := GetNetwork(name)
		require.NoError(t, err, "network %q", name)
		assert.Equal(t, name, net.Name)
	}
}

func TestGetNetwork_Unknown(t *testing.T) {
	_, err := GetNetwork("lunarnet")
	assert.ErrorIs(t, err, ErrInvalidNetwork)
}

func TestLoadCustomNetwork(t *testing.T) {
	custom := NetworkConfig{
		Name:           "simnet",
		AddressVersion: 0x3f,
		DefaultPort:    28333,
		RPCPort:        28332,
	}
	data, err := json.Marshal(custom)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "network.json")
	require.NoError(t, os.WriteFile(path, data, 0600))

	loaded, err := LoadCustomNetwork(path)
	require.NoError(t, err)
	assert.Equal(t, custom, *loaded)
}

func TestLoadCustomNetwork_MissingName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rpc_port": 1}`), 0600))

	_, err := LoadCustomNetwork(path)
	assert.Error(t, err)
}

func TestLoadCustomNetwork_FileMissing(t *testing.T) {
	_, err := LoadCustomNetwork(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
