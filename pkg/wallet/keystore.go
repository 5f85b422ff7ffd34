package wallet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Klingon-tech/klingvm-sdk/internal/log"
	"github.com/Klingon-tech/klingvm-sdk/pkg/types"
)

// walletFile is the on-disk JSON format for an encrypted wallet.
type walletFile struct {
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	SealedSeed []byte    `json:"sealed_seed"`
	Accounts   []Account `json:"accounts"`
	NextIndex  uint32    `json:"next_index"` // next m/44'/60'/0'/0/i account index
}

// Account is the metadata for a derived account.
type Account struct {
	Index   uint32        `json:"index"`
	Name    string        `json:"name"`
	Address types.Address `json:"address"`
}

// Path returns the account's full derivation path.
func (a Account) Path() string {
	return fmt.Sprintf("%s/%d", DefaultAccountPathPrefix, a.Index)
}

// Keystore manages encrypted wallet files in a directory.
type Keystore struct {
	dir string
}

// NewKeystore creates a keystore rooted at dir, creating the directory
// if needed.
func NewKeystore(dir string) (*Keystore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{dir: dir}, nil
}

func (ks *Keystore) walletPath(name string) string {
	return filepath.Join(ks.dir, name+".wallet")
}

// Create writes a new encrypted wallet holding the given seed.
func (ks *Keystore) Create(name string, seed, passphrase []byte, params KDFParams) error {
	path := ks.walletPath(name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("wallet %q already exists", name)
	}

	sealed, err := SealSeed(seed, passphrase, params)
	if err != nil {
		return fmt.Errorf("seal seed: %w", err)
	}

	wf := walletFile{
		Version:    1,
		CreatedAt:  time.Now().UTC(),
		SealedSeed: sealed,
		Accounts:   []Account{},
	}
	if err := ks.writeFile(path, &wf); err != nil {
		return err
	}
	log.Keystore.Info().Str("wallet", name).Msg("wallet created")
	return nil
}

// Seed decrypts a wallet and returns its seed.
func (ks *Keystore) Seed(name string, passphrase []byte) ([]byte, error) {
	wf, err := ks.readFile(ks.walletPath(name))
	if err != nil {
		return nil, err
	}
	seed, err := OpenSeed(wf.SealedSeed, passphrase)
	if err != nil {
		return nil, fmt.Errorf("open wallet %q: %w", name, err)
	}
	return seed, nil
}

// NextAccount derives the wallet's next sequential account at
// m/44'/60'/0'/0/i, records its address, and bumps the index.
func (ks *Keystore) NextAccount(name string, passphrase []byte, label string) (Account, error) {
	path := ks.walletPath(name)
	wf, err := ks.readFile(path)
	if err != nil {
		return Account{}, err
	}

	seed, err := OpenSeed(wf.SealedSeed, passphrase)
	if err != nil {
		return Account{}, fmt.Errorf("open wallet %q: %w", name, err)
	}
	defer zeroBytes(seed)

	index := wf.NextIndex
	node, err := NodeFromSeedAndPath(seed, fmt.Sprintf("%s/%d", DefaultAccountPathPrefix, index))
	if err != nil {
		return Account{}, fmt.Errorf("derive account %d: %w", index, err)
	}

	acct := Account{Index: index, Name: label, Address: node.Address()}
	wf.Accounts = append(wf.Accounts, acct)
	wf.NextIndex = index + 1
	if err := ks.writeFile(path, wf); err != nil {
		return Account{}, err
	}
	log.Keystore.Debug().
		Str("wallet", name).
		Uint32("index", index).
		Str("address", acct.Address.String()).
		Msg("account derived")
	return acct, nil
}

// Accounts returns the derived-account metadata for a wallet.
func (ks *Keystore) Accounts(name string) ([]Account, error) {
	wf, err := ks.readFile(ks.walletPath(name))
	if err != nil {
		return nil, err
	}
	return wf.Accounts, nil
}

// List returns the names of all wallets in the keystore.
func (ks *Keystore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.dir)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".wallet") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".wallet"))
	}
	return names, nil
}

func (ks *Keystore) readFile(path string) (*walletFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wallet: %w", err)
	}
	var wf walletFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse wallet: %w", err)
	}
	return &wf, nil
}

func (ks *Keystore) writeFile(path string, wf *walletFile) error {
	data, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return fmt.Errorf("encode wallet: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}
	return nil
}
