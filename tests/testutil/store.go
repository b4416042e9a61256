package testutil

import (
	"testing"

	"github.com/pr-poehali-dev/mailgate/internal/account"
)

// NewTestStore creates an in-memory account store with all migrations
// applied. It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *account.Store {
	t.Helper()

	s, err := account.NewStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}
