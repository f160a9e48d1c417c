package domain_test

import (
	"testing"
	"time"

	"github.com/dmarkin/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestDownloadVerificationUsable(t *testing.T) {
	createdAt := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	dv := domain.DownloadVerification{
		ID:        "dv-1",
		ProductID: "product-1",
		ExpiresAt: createdAt.Add(24 * time.Hour),
	}

	t.Run("BeforeExpiry", func(t *testing.T) {
		now := createdAt.Add(23*time.Hour + 59*time.Minute)
		assert.True(t, dv.Usable(now))
	})

	t.Run("AtExpiry", func(t *testing.T) {
		assert.False(t, dv.Usable(dv.ExpiresAt))
	})

	t.Run("AfterExpiry", func(t *testing.T) {
		now := createdAt.Add(24*time.Hour + 1*time.Minute)
		assert.False(t, dv.Usable(now))
	})
}
