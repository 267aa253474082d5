package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextSerial(t *testing.T) {
	now := time.Date(2026, time.October, 17, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name    string
		current uint64
		want    uint64
	}{
		{"placeholder resets to today", 0, 2026101700},
		{"yesterday resets to today", 2026101605, 2026101700},
		{"old template serial", 2023101901, 2026101700},
		{"first bump today", 2026101700, 2026101701},
		{"later bump today", 2026101741, 2026101742},
		{"suffix overflow keeps counting", 2026101799, 2026101800},
		{"future serial increments", 2030010100, 2030010101},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextSerial(tt.current, now))
		})
	}
}

func TestNextSerial_Monotonic(t *testing.T) {
	start := time.Date(2026, time.December, 30, 23, 0, 0, 0, time.UTC)
	serial := uint64(0)

	for i := 0; i < 500; i++ {
		now := start.Add(time.Duration(i) * 17 * time.Minute)
		next := NextSerial(serial, now)

		y, m, d := now.Date()
		base := (uint64(y)*10000 + uint64(m)*100 + uint64(d)) * 100
		assert.GreaterOrEqual(t, next, serial)
		assert.GreaterOrEqual(t, next, base)
		if serial < base {
			assert.Equal(t, base, next)
		} else {
			assert.Equal(t, serial+1, next)
		}
		serial = next
	}
}

func TestNextSerial_ClockGoesBackwards(t *testing.T) {
	today := time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC)
	s := NextSerial(0, today)
	s = NextSerial(s, today.AddDate(0, 0, -3))
	assert.Equal(t, uint64(2026101701), s)
}
