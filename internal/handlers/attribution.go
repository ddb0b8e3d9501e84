package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	attributionCookie = "aff_attr"
	attributionTTL    = 30 * 24 * time.Hour
)

// attribution is the visitor-to-affiliate binding carried in the signed
// cookie. Last click wins: every counted redirect overwrites it.
type attribution struct {
	AffiliateID uint
	LinkID      uint
}

func signAttribution(secret string, affiliateID, linkID uint, expires int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%d.%d", affiliateID, linkID, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

// cookieSink establishes attribution by setting the signed cookie on the
// redirect response. The value is tamper-evident, not encrypted.
type cookieSink struct {
	c      *gin.Context
	secret string
}

func (s *cookieSink) Establish(affiliateID, linkID uint) error {
	expires := time.Now().Add(attributionTTL).Unix()
	sig := signAttribution(s.secret, affiliateID, linkID, expires)
	value := fmt.Sprintf("%d.%d.%d.%s", affiliateID, linkID, expires, sig)

	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(attributionCookie, value, int(attributionTTL.Seconds()), "/", "", false, true)
	return nil
}

// readAttribution parses and verifies the attribution cookie. A missing,
// malformed, expired or forged cookie reads as no attribution.
func readAttribution(c *gin.Context, secret string) (*attribution, bool) {
	raw, err := c.Cookie(attributionCookie)
	if err != nil {
		return nil, false
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 4 {
		return nil, false
	}

	affiliateID, err1 := strconv.ParseUint(parts[0], 10, 32)
	linkID, err2 := strconv.ParseUint(parts[1], 10, 32)
	expires, err3 := strconv.ParseInt(parts[2], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return nil, false
	}
	if time.Now().Unix() > expires {
		return nil, false
	}

	expected := signAttribution(secret, uint(affiliateID), uint(linkID), expires)
	if !hmac.Equal([]byte(expected), []byte(parts[3])) {
		return nil, false
	}

	return &attribution{AffiliateID: uint(affiliateID), LinkID: uint(linkID)}, true
}
