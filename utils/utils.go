package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// verification IDs skip 0/O/1/I so the printed code survives retyping
const verificationAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateVerificationID generates the unguessable, human-presentable code
// printed on issued certificates, e.g. CERT-8FKQ-2NWZ-XR4T
func GenerateVerificationID() string {
	groups := make([]string, 3)
	for g := range groups {
		chunk := make([]byte, 4)
		for i := range chunk {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(verificationAlphabet))))
			if err != nil {
				// crypto/rand failing means the process has bigger problems
				panic(err)
			}
			chunk[i] = verificationAlphabet[n.Int64()]
		}
		groups[g] = string(chunk)
	}
	return fmt.Sprintf("CERT-%s-%s-%s", groups[0], groups[1], groups[2])
}
