package wallet

import (
	"sort"

	"github.com/tyler-smith/go-bip39/wordlists"
)

// WordlistSize is the number of words in the BIP-39 English wordlist.
const WordlistSize = 2048

// wordlist is the process-wide, read-only English wordlist. The list is
// lexicographically sorted, so index lookup is a binary search.
var wordlist = wordlists.English

// WordAt returns the word at the given wordlist index.
func WordAt(index uint16) (string, bool) {
	if int(index) >= len(wordlist) {
		return "", false
	}
	return wordlist[index], true
}

// WordIndex returns the index of an exact word in the wordlist. Empty
// input and words not in the list return ok=false.
func WordIndex(word string) (uint16, bool) {
	if word == "" {
		return 0, false
	}
	i := sort.SearchStrings(wordlist, word)
	if i >= len(wordlist) || wordlist[i] != word {
		return 0, false
	}
	return uint16(i), true
}
