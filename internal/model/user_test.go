package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserIsActive(t *testing.T) {
	now := time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		user User
		want bool
	}{
		{name: "без паузы", user: User{}, want: true},
		{name: "пауза истекла", user: User{PausedUntil: &past}, want: true},
		{name: "пауза действует", user: User{PausedUntil: &future}, want: false},
		{name: "бессрочная пауза", user: User{PausedIndefinitely: true}, want: false},
		{name: "бессрочная важнее истёкшей", user: User{PausedUntil: &past, PausedIndefinitely: true}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.IsActive(now))
		})
	}
}
