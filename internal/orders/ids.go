package orders

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// randomSuffix returns n upper-case alphanumerics taken from a random UUID.
func randomSuffix(n int) string {
	s := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return s[:n]
}

// NewOrderID returns ORDER-<unix millis>-<9 chars>.
func NewOrderID(now time.Time) string {
	return "ORDER-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + randomSuffix(9)
}

// NewTrackingCode returns TRACK-<last 6 digits of unix millis>-<6 chars>.
func NewTrackingCode(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "TRACK-" + ms + "-" + randomSuffix(6)
}
