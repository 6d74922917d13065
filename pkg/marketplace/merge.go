package marketplace

import (
	"slices"
	"strings"
)

// Merge de-duplicates the given sets by Key (a later duplicate replaces the earlier one
// in place), re-applies the window and sorts newest first. Equal timestamps keep their
// merge order.
func Merge(window DateWindow, sets ...[]Exchange) []Exchange {
	total := 0
	for _, set := range sets {
		total += len(set)
	}

	unique := make([]Exchange, 0, total)
	index := make(map[string]int, total)
	for _, set := range sets {
		for _, ex := range set {
			key := ex.Key()
			if i, ok := index[key]; ok {
				unique[i] = ex
				continue
			}
			index[key] = len(unique)
			unique = append(unique, ex)
		}
	}

	out := window.Filter(unique)
	slices.SortStableFunc(out, func(a, b Exchange) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out
}

// DecodeSide returns the side of ex from wallet's point of view.
// Addresses compare case-insensitively. A taker sees the initializer's side inverted.
func DecodeSide(ex Exchange, wallet string) Side {
	if wallet == "" {
		return NA
	}
	isInitializer := strings.EqualFold(ex.OrderInitializer, wallet)
	isTaker := strings.EqualFold(ex.OrderTaker, wallet)
	if !isInitializer && !isTaker {
		return NA
	}

	if isTaker && ex.Side != "" {
		switch ex.Side {
		case Buy:
			return Sell
		case Sell:
			return Buy
		default:
			return NA
		}
	}

	switch ex.Side {
	case Buy, Sell:
		return ex.Side
	default:
		return NA
	}
}
