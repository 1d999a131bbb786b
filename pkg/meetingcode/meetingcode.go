package meetingcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// alphabet is the 36-character set meeting codes are drawn from.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const codeLength = 8

// Issuer generates human-typable meeting codes for tele consultations.
// Codes are 8 characters over [A-Z0-9] formatted as XXX-XXX-XX, giving a
// 36^8 keyspace; collisions within the active appointment set are
// operationally negligible, and the persistence layer's unique index is
// the final guard.
type Issuer struct{}

func NewIssuer() *Issuer {
	return &Issuer{}
}

// Issue generates a new meeting code using crypto/rand.
func (i *Issuer) Issue() (string, error) {
	chars := make([]byte, codeLength)
	max := big.NewInt(int64(len(alphabet)))
	for idx := range chars {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate meeting code: %w", err)
		}
		chars[idx] = alphabet[n.Int64()]
	}

	return fmt.Sprintf("%s-%s-%s", chars[0:3], chars[3:6], chars[6:8]), nil
}
