package storage

import (
	"crypto/sha256"
	"math/big"
)

// btc58 is the base58btc alphabet used by IPFS CIDv0 strings.
const btc58 = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// ContentID computes the CIDv0 of data: base58btc of the sha256 multihash
// (0x12 0x20 prefix + digest). Anyone holding the bytes can recompute the
// identifier and verify the address.
func ContentID(data []byte) string {
	sum := sha256.Sum256(data)
	mh := make([]byte, 0, 2+len(sum))
	mh = append(mh, 0x12, 0x20)
	mh = append(mh, sum[:]...)
	return base58Encode(mh)
}

func base58Encode(b []byte) string {
	x := new(big.Int).SetBytes(b)
	radix := big.NewInt(58)
	mod := new(big.Int)

	out := make([]byte, 0, len(b)*138/100+1)
	for x.Sign() > 0 {
		x.DivMod(x, radix, mod)
		out = append(out, btc58[mod.Int64()])
	}
	// leading zero bytes map to '1'
	for _, c := range b {
		if c != 0 {
			break
		}
		out = append(out, btc58[0])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}
