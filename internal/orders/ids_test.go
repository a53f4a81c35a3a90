package orders

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderIDFormat(t *testing.T) {
	now := time.UnixMilli(1717171717171)
	id := NewOrderID(now)
	assert.Regexp(t, regexp.MustCompile(`^ORDER-1717171717171-[0-9A-F]{9}$`), id)
	assert.NotEqual(t, id, NewOrderID(now))
}

func TestTrackingCodeFormat(t *testing.T) {
	code := NewTrackingCode(time.UnixMilli(1717171717171))
	assert.Regexp(t, regexp.MustCompile(`^TRACK-717171-[0-9A-F]{6}$`), code)
}
