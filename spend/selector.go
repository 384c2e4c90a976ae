package spend

import "github.com/cobaltwallet/libcobalt-go/tx"

// SelectCoins filters an account's coin snapshot down to the coins a build
// may spend. It is a pure function: no side effects, deterministic for a
// given snapshot, and an empty result is valid (the builder reports
// insufficiency, not the selector).
//
// When pinned is non-empty the user chose specific coins; exactly that set
// is returned and every filter, the frozen one included, is bypassed.
// Otherwise frozen coins are dropped when excludeFrozen is set, and
// invoiceMode additionally drops unconfirmed change from the wallet's own
// transactions, which is not yet acceptable for paying external invoices.
func SelectCoins(coins, pinned []*tx.UTXO, excludeFrozen, invoiceMode bool) []*tx.UTXO {
	if len(pinned) > 0 {
		out := make([]*tx.UTXO, 0, len(pinned))
		for _, c := range pinned {
			out = append(out, c.Clone())
		}
		return out
	}

	var out []*tx.UTXO
	for _, c := range coins {
		if c == nil {
			continue
		}
		if excludeFrozen && c.Frozen {
			continue
		}
		if invoiceMode && c.FromSelf && !c.Confirmed() {
			continue
		}
		out = append(out, c.Clone())
	}
	return out
}
