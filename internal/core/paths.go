package core

import "github.com/ethereum/go-ethereum/common"

// CandidatePaths enumerates routes from src to dst through the protocol's
// connector assets: the direct pair, every single-connector hop, and every
// ordered two-connector combination. The quoter picks whichever yields the
// most output, so a useless hop only costs a query.
func CandidatePaths(src, dst common.Address, connectors []common.Address) [][]common.Address {
	paths := [][]common.Address{{src, dst}}

	hops := make([]common.Address, 0, len(connectors))
	for _, c := range connectors {
		if c == src || c == dst {
			continue
		}
		hops = append(hops, c)
	}

	for _, a := range hops {
		paths = append(paths, []common.Address{src, a, dst})
	}
	for _, a := range hops {
		for _, b := range hops {
			if a == b {
				continue
			}
			paths = append(paths, []common.Address{src, a, b, dst})
		}
	}
	return paths
}
