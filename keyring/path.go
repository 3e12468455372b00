// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keyring

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// parseRelPath converts a relative derivation path suffix such as 0'/0/0
// into child indices with the hardened bit applied.  Components are decimal
// with an optional trailing apostrophe; anything else fails with
// ErrInvalidPath.
func parseRelPath(path string) ([]uint32, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	parts := strings.Split(path, "/")
	indices := make([]uint32, 0, len(parts))
	for _, part := range parts {
		hardened := strings.HasSuffix(part, "'")
		digits := strings.TrimSuffix(part, "'")
		if digits == "" {
			return nil, fmt.Errorf("%w: empty component in %q",
				ErrInvalidPath, path)
		}
		for _, r := range digits {
			if r < '0' || r > '9' {
				return nil, fmt.Errorf("%w: bad component "+
					"%q in %q", ErrInvalidPath, part, path)
			}
		}
		index, err := strconv.ParseUint(digits, 10, 32)
		if err != nil || index >= hdkeychain.HardenedKeyStart {
			return nil, fmt.Errorf("%w: index %q out of range "+
				"in %q", ErrInvalidPath, part, path)
		}
		if hardened {
			index += hdkeychain.HardenedKeyStart
		}
		indices = append(indices, uint32(index))
	}
	return indices, nil
}

// formatPath renders the absolute path string for a relative suffix, e.g.
// coin type 1 and suffix 0'/0/0 become m/86'/1'/0'/0/0.  The suffix is
// appended verbatim.
func formatPath(coinType uint32, relPath string) string {
	return fmt.Sprintf("m/%d'/%d'/%s", purpose, coinType, relPath)
}
