package signin

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppSign(t *testing.T) {
	// md5("appkeyKsecretStimestamp1700000000000randomabcdeftokentok")
	got := appSign("K", "S", "1700000000000", "abcdef", "tok")
	want := strings.ToUpper(md5Hex("appkeyKsecretStimestamp1700000000000randomabcdeftokentok"))
	require.Equal(t, want, got)
	require.Len(t, got, 32)
	require.Equal(t, strings.ToUpper(got), got)
}

func TestAppSignWithoutToken(t *testing.T) {
	got := appSign("K", "S", "1", "r", "")
	require.Equal(t, strings.ToUpper(md5Hex("appkeyKsecretStimestamp1randomr")), got)
}

func TestTCSSign(t *testing.T) {
	got := tcsSign("evcard_tcs", "secret", "1700000015000")
	require.Equal(t, md5Hex("evcard_tcssecret1700000015000"), got)
	require.Equal(t, strings.ToLower(got), got)
}

func TestMD5Hex(t *testing.T) {
	require.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", md5Hex(""))
	require.Equal(t, "900150983cd24fb0d6963f7d28e17f72", md5Hex("abc"))
}

func TestRandomNonce(t *testing.T) {
	for i := 0; i < 100; i++ {
		n := randomNonce(nonceLength)
		require.Len(t, n, 6)
		for _, r := range n {
			require.True(t, strings.ContainsRune(nonceAlphabet, r), "unexpected %q in %q", r, n)
		}
	}
}
