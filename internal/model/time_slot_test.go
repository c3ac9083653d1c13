package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{in: "09:00", hour: 9},
		{in: "23:59", hour: 23, minute: 59},
		{in: "00:00"},
		{in: "9:05", hour: 9, minute: 5},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			hour, minute, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hour, hour)
			assert.Equal(t, tt.minute, minute)
		})
	}
}

func TestReminderClock(t *testing.T) {
	ts := TimeSlot{SlotNumber: 1, StartTime: "09:00", EndTime: "10:30"}

	hour, minute, err := ts.ReminderClock(5 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 8, hour)
	assert.Equal(t, 55, minute)
}

func TestReminderClock_WrapsAroundMidnight(t *testing.T) {
	ts := TimeSlot{SlotNumber: 1, StartTime: "00:03", EndTime: "01:30"}

	hour, minute, err := ts.ReminderClock(5 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 23, hour)
	assert.Equal(t, 58, minute)
}

func TestReminderClock_InvalidStart(t *testing.T) {
	ts := TimeSlot{SlotNumber: 1, StartTime: "later", EndTime: "10:30"}

	_, _, err := ts.ReminderClock(5 * time.Minute)
	assert.Error(t, err)
}
