package meetingcode

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{3}-[A-Z0-9]{3}-[A-Z0-9]{2}$`)

func TestIssue_Format(t *testing.T) {
	issuer := NewIssuer()

	for i := 0; i < 100; i++ {
		code, err := issuer.Issue()
		require.NoError(t, err)
		assert.Regexp(t, codePattern, code)
	}
}

func TestIssue_CodesVary(t *testing.T) {
	issuer := NewIssuer()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := issuer.Issue()
		require.NoError(t, err)
		seen[code] = true
	}

	// 36^8 keyspace; 50 draws colliding would indicate a broken generator
	assert.Greater(t, len(seen), 45)
}
