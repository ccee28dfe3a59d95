package membership

import (
	"context"
	"time"

	"kestiv/internal/api"

	"github.com/google/uuid"
)

// MutateFunc computes a member's next state from the locked current row.
type MutateFunc func(m Member) (*Mutation, error)

type Repository interface {
	Create(ctx context.Context, m *Member) (*Member, error)
	GetByID(ctx context.Context, businessID, id uuid.UUID) (*Member, error)
	List(ctx context.Context, businessID uuid.UUID, search string, page api.Page) ([]Member, error)
	Search(ctx context.Context, businessID uuid.UUID, search string) ([]Member, error)
	UpdateContact(ctx context.Context, m *Member) (*Member, error)
	History(ctx context.Context, businessID, memberID uuid.UUID, page api.Page) ([]HistoryEntry, error)
	Mutate(ctx context.Context, businessID, memberID uuid.UUID, fn MutateFunc) (*Mutation, error)
	ListExpiring(ctx context.Context, from, to time.Time) ([]ExpiringMember, error)
	MarkReminded(ctx context.Context, businessID, memberID uuid.UUID, expiresAt time.Time) error
}
