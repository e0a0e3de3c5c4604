package careerpilot

import "context"

// Users is the credential store contract the auth core depends on. The
// store is the final authority on email uniqueness: Create must fail with
// ErrEmailTaken when the unique index rejects a duplicate, regardless of any
// pre-check the service performed.
type Users interface {
	Create(ctx context.Context, account *Account) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*Account, error)
}

// ChatLogs records assistant exchanges for later attribution. Recording is
// best-effort; the chat proxy never fails a reply over a logging error.
type ChatLogs interface {
	Record(ctx context.Context, turn *ChatTurn) error
}
