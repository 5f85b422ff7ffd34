// klingvm-keytool manages KlingVM keys: mnemonics, HD derivation,
// encrypted wallets, signing, and signer recovery.
package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Klingon-tech/klingvm-sdk/internal/log"
	"github.com/Klingon-tech/klingvm-sdk/pkg/crypto"
	"github.com/Klingon-tech/klingvm-sdk/pkg/wallet"
	"golang.org/x/term"
)

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingvm"
	}
	return filepath.Join(home, ".klingvm")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Parse global flags that appear before the subcommand.
	dataDir := defaultDataDir()
	logLevel := "info"
	jsonLogs := false

	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--datadir" && len(args) > 1:
			dataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			dataDir = args[0][len("--datadir="):]
			args = args[1:]
		case args[0] == "--log-level" && len(args) > 1:
			logLevel = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--log-level="):
			logLevel = args[0][len("--log-level="):]
			args = args[1:]
		case args[0] == "--json-logs":
			jsonLogs = true
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	log.Init(logLevel, jsonLogs)

	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	ksDir := filepath.Join(dataDir, "keystore")
	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "mnemonic":
		cmdMnemonic()
	case "derive":
		cmdDerive(cmdArgs)
	case "wallet":
		cmdWallet(ksDir, cmdArgs)
	case "sign":
		cmdSign(cmdArgs)
	case "verify":
		cmdVerify(cmdArgs)
	case "recover":
		cmdRecover(cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: klingvm-keytool [flags] <command> [args]

Flags:
  --datadir <dir>     data directory (default ~/.klingvm)
  --log-level <lvl>   debug|info|warn|error
  --json-logs         structured JSON log output

Commands:
  mnemonic                           generate a new 24-word mnemonic
  derive [path]                      derive an account from a mnemonic (read from stdin)
  wallet create <name>               create an encrypted wallet from a mnemonic
  wallet list                        list wallets
  wallet accounts <name>             list derived accounts
  wallet new-account <name> [label]  derive the next account
  sign <keyhex> <hash>               sign a 32-byte hash (ECDSA)
  verify <sighex> <hash>             recover the signer and verify
  recover <sighex> <hash>            recover the signer address
`)
}

func fatal(err error) {
	log.Keytool.Error().Err(err).Msg("command failed")
	os.Exit(1)
}

func readMnemonic() string {
	fmt.Fprintln(os.Stderr, "Enter mnemonic:")
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		fatal(fmt.Errorf("no mnemonic provided"))
	}
	return strings.TrimSpace(scanner.Text())
}

func readPassphrase(confirm bool) []byte {
	fmt.Fprint(os.Stderr, "Passphrase: ")
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fatal(fmt.Errorf("read passphrase: %w", err))
	}
	if confirm {
		fmt.Fprint(os.Stderr, "Confirm passphrase: ")
		again, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			fatal(fmt.Errorf("read passphrase: %w", err))
		}
		if string(pass) != string(again) {
			fatal(fmt.Errorf("passphrases do not match"))
		}
	}
	return pass
}

func cmdMnemonic() {
	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		fatal(err)
	}
	fmt.Println(mnemonic)
}

func cmdDerive(args []string) {
	path := wallet.DefaultAccountPathPrefix + "/0"
	if len(args) > 0 {
		path = args[0]
	}

	mnemonic := readMnemonic()
	if !wallet.ValidateMnemonic(mnemonic) {
		log.Keytool.Warn().Msg("mnemonic failed BIP-39 checksum validation")
	}

	node, err := wallet.NodeFromMnemonic(mnemonic, "")
	if err != nil {
		fatal(err)
	}
	derived, err := node.DerivePath(path)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("path:    %s\n", path)
	fmt.Printf("address: %s\n", derived.Address())
	fmt.Printf("pubkey:  0x%s\n", hex.EncodeToString(derived.PublicKeyBytes()))
}

func cmdWallet(ksDir string, args []string) {
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	ks, err := wallet.NewKeystore(ksDir)
	if err != nil {
		fatal(err)
	}

	switch args[0] {
	case "create":
		if len(args) < 2 {
			fatal(fmt.Errorf("wallet create requires a name"))
		}
		mnemonic := readMnemonic()
		pass := readPassphrase(true)
		seed := wallet.MnemonicToSeed(mnemonic)
		if err := ks.Create(args[1], seed, pass, wallet.DefaultKDFParams()); err != nil {
			fatal(err)
		}
		fmt.Printf("wallet %q created\n", args[1])
	case "list":
		names, err := ks.List()
		if err != nil {
			fatal(err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
	case "accounts":
		if len(args) < 2 {
			fatal(fmt.Errorf("wallet accounts requires a name"))
		}
		accounts, err := ks.Accounts(args[1])
		if err != nil {
			fatal(err)
		}
		for _, acct := range accounts {
			fmt.Printf("%-4d %-16s %s\n", acct.Index, acct.Name, acct.Address)
		}
	case "new-account":
		if len(args) < 2 {
			fatal(fmt.Errorf("wallet new-account requires a name"))
		}
		label := ""
		if len(args) > 2 {
			label = args[2]
		}
		pass := readPassphrase(false)
		acct, err := ks.NextAccount(args[1], pass, label)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("%s %s\n", acct.Path(), acct.Address)
	default:
		fmt.Fprintf(os.Stderr, "unknown wallet command %q\n", args[0])
		os.Exit(1)
	}
}

func parseHash(s string) []byte {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(raw) != 32 {
		fatal(fmt.Errorf("hash must be 32 hex-encoded bytes"))
	}
	return raw
}

func cmdSign(args []string) {
	if len(args) < 2 {
		fatal(fmt.Errorf("sign requires <keyhex> <hash>"))
	}
	keyBytes, err := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
	if err != nil {
		fatal(fmt.Errorf("invalid key hex: %w", err))
	}
	signer, err := crypto.NewECDSASigner(keyBytes)
	if err != nil {
		fatal(err)
	}
	sig, err := signer.Sign(parseHash(args[1]))
	if err != nil {
		fatal(err)
	}
	fmt.Printf("address:   %s\n", signer.Address())
	fmt.Printf("signature: %s\n", sig.Hex())
}

func cmdVerify(args []string) {
	if len(args) < 2 {
		fatal(fmt.Errorf("verify requires <sighex> <hash>"))
	}
	sig, err := crypto.ParseSignatureHex(args[0])
	if err != nil {
		fatal(err)
	}
	hash := parseHash(args[1])
	pub, err := crypto.RecoverPubkey(sig, hash)
	if err != nil {
		fatal(err)
	}
	if !crypto.VerifyECDSA(pub, hash, sig) {
		fmt.Println("INVALID")
		os.Exit(1)
	}
	fmt.Printf("VALID, signer %s\n", crypto.AddressFromPubKey(pub))
}

func cmdRecover(args []string) {
	if len(args) < 2 {
		fatal(fmt.Errorf("recover requires <sighex> <hash>"))
	}
	sig, err := crypto.ParseSignatureHex(args[0])
	if err != nil {
		fatal(err)
	}
	addr, err := crypto.RecoverAddress(sig, parseHash(args[1]))
	if err != nil {
		fatal(err)
	}
	fmt.Println(addr)
}
