package wallet

import (
	"fmt"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	script "github.com/bsv-blockchain/go-sdk/script"
	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"
)

const (
	// BIP44 path constants.
	PurposeBIP44   = 44
	CoinTypeBSV    = 236
	DefaultAccount = 0

	// Chain indices.
	ExternalChain = 0 // Receive addresses
	InternalChain = 1 // Change addresses

	// MaxAddressIndex is the largest non-hardened child index.
	MaxAddressIndex = 1<<31 - 1

	// BIP32 hardened offset.
	Hardened = 0x80000000
)

// Wallet is the HD keystore. It holds the BIP32 master key in memory and
// derives payment keys along m/44'/236'/{account}'/{chain}/{index}.
type Wallet struct {
	masterKey *bip32.ExtendedKey
	network   *NetworkConfig
}

// KeyPair holds a derived public/private key pair.
type KeyPair struct {
	PrivateKey *ec.PrivateKey `json:"-"`
	PublicKey  *ec.PublicKey  `json:"public_key"`
	Path       string         `json:"path"` // Human-readable derivation path
}

// NewWallet creates a new Wallet from a BIP39 seed.
func NewWallet(seed []byte, network *NetworkConfig) (*Wallet, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	if network == nil {
		network = &MainNet
	}

	// Map our NetworkConfig to go-sdk chaincfg.Params for BIP32.
	var net *chaincfg.Params
	switch network.Name {
	case "mainnet":
		net = &chaincfg.MainNet
	default:
		net = &chaincfg.TestNet
	}

	masterKey, err := bip32.NewMaster(seed, net)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}

	return &Wallet{
		masterKey: masterKey,
		network:   network,
	}, nil
}

// Network returns the wallet's network configuration.
func (w *Wallet) Network() *NetworkConfig {
	return w.network
}

// deriveAccount derives the account-level key: m/44'/236'/account'
func (w *Wallet) deriveAccount(account uint32) (*bip32.ExtendedKey, error) {
	if account >= Hardened {
		return nil, fmt.Errorf("%w: account %d exceeds BIP32 hardened boundary", ErrIndexOutOfRange, account)
	}

	// m/44'
	purpose, err := w.masterKey.Child(PurposeBIP44 + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: purpose derivation: %w", ErrDerivationFailed, err)
	}

	// m/44'/236'
	coinType, err := purpose.Child(CoinTypeBSV + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: coin type derivation: %w", ErrDerivationFailed, err)
	}

	// m/44'/236'/account'
	accountKey, err := coinType.Child(account + Hardened)
	if err != nil {
		return nil, fmt.Errorf("%w: account derivation: %w", ErrDerivationFailed, err)
	}

	return accountKey, nil
}

// DeriveKey derives a payment key pair.
//
//	account: BIP44 account (hardened)
//	chain:   ExternalChain (0) for receive, InternalChain (1) for change
//	index:   address index (non-hardened)
//	Path:    m/44'/236'/account'/chain/index
func (w *Wallet) DeriveKey(account, chain, index uint32) (*KeyPair, error) {
	if chain != ExternalChain && chain != InternalChain {
		return nil, fmt.Errorf("%w: unknown chain %d", ErrDerivationFailed, chain)
	}
	if index > MaxAddressIndex {
		return nil, ErrIndexOutOfRange
	}

	accountKey, err := w.deriveAccount(account)
	if err != nil {
		return nil, err
	}

	// m/44'/236'/account'/chain
	chainKey, err := accountKey.Child(chain)
	if err != nil {
		return nil, fmt.Errorf("%w: chain derivation: %w", ErrDerivationFailed, err)
	}

	// m/44'/236'/account'/chain/index
	childKey, err := chainKey.Child(index)
	if err != nil {
		return nil, fmt.Errorf("%w: index derivation: %w", ErrDerivationFailed, err)
	}

	return extKeyToKeyPair(childKey, fmt.Sprintf("m/44'/%d'/%d'/%d/%d", CoinTypeBSV, account, chain, index))
}

// ReceiveKey derives the key at receive chain position index on the default account.
//
//	Path: m/44'/236'/0'/0/index
func (w *Wallet) ReceiveKey(index uint32) (*KeyPair, error) {
	return w.DeriveKey(DefaultAccount, ExternalChain, index)
}

// ChangeKey derives the key at change chain position index on the default account.
//
//	Path: m/44'/236'/0'/1/index
func (w *Wallet) ChangeKey(index uint32) (*KeyPair, error) {
	return w.DeriveKey(DefaultAccount, InternalChain, index)
}

// Address returns the P2PKH address string for a key pair on the wallet's network.
func (w *Wallet) Address(kp *KeyPair) (string, error) {
	if kp == nil || kp.PublicKey == nil {
		return "", fmt.Errorf("%w: key pair", ErrNilParam)
	}
	addr, err := script.NewAddressFromPublicKey(kp.PublicKey, w.network.Name == "mainnet")
	if err != nil {
		return "", fmt.Errorf("%w: address encoding: %w", ErrDerivationFailed, err)
	}
	return addr.AddressString, nil
}

// extKeyToKeyPair converts a BIP32 extended key to a KeyPair.
func extKeyToKeyPair(extKey *bip32.ExtendedKey, path string) (*KeyPair, error) {
	privKey, err := extKey.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to extract EC private key: %w", ErrDerivationFailed, err)
	}

	pubKey := privKey.PubKey()
	if pubKey == nil {
		return nil, fmt.Errorf("%w: failed to derive public key", ErrDerivationFailed)
	}

	return &KeyPair{
		PrivateKey: privKey,
		PublicKey:  pubKey,
		Path:       path,
	}, nil
}
