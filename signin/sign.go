package signin

import (
	"crypto/md5"
	"encoding/hex"
	"math/rand"
	"strings"
)

// nonceAlphabet leaves out characters that are easy to confuse (0/O, 1/l/I, ...).
const nonceAlphabet = "ABCDEFGHJKMNPQRSTWXYZabcdefhijkmnprstwxyz2345678"

const nonceLength = 6

// randomNonce returns n characters drawn from nonceAlphabet.
func randomNonce(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = nonceAlphabet[rand.Intn(len(nonceAlphabet))]
	}
	return string(b)
}

// appSign is the primary request signature, an uppercase hex MD5 digest.
func appSign(appKey, appSecret, timestamp, nonce, token string) string {
	var sb strings.Builder
	sb.WriteString("appkey" + appKey)
	sb.WriteString("secret" + appSecret)
	sb.WriteString("timestamp" + timestamp)
	sb.WriteString("random" + nonce)
	if token != "" {
		sb.WriteString("token" + token)
	}
	return strings.ToUpper(md5Hex(sb.String()))
}

// tcsSign is the secondary signature, a lowercase hex MD5 digest.
func tcsSign(tcsKey, tcsSecret, tcsTimestamp string) string {
	return md5Hex(tcsKey + tcsSecret + tcsTimestamp)
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
