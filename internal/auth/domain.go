package auth

import "time"

// Plan is the subscription tier attached to an account.
type Plan string

const (
	PlanFree  Plan = "free"
	PlanPro   Plan = "pro"
	PlanElite Plan = "elite"
)

// TokenClass discriminates the purpose of a token. Session tokens carry the
// class inside their signed claims; ephemeral tokens carry it as a column.
type TokenClass string

const (
	ClassAccess       TokenClass = "access"
	ClassRefresh      TokenClass = "refresh"
	ClassVerification TokenClass = "verification"
	ClassReset        TokenClass = "reset"
)

// User represents a registered account.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	FullName     string
	IsActive     bool
	IsVerified   bool
	Plan         Plan
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLogin    *time.Time
}

// EphemeralToken is a persisted single-use secret mediating the email
// verification and password reset flows. Rows are never deleted; superseded
// or consumed tokens are marked used and retained for audit.
type EphemeralToken struct {
	ID        int64
	UserID    int64
	Token     string
	Class     TokenClass
	CreatedAt time.Time
	ExpiresAt time.Time
	IsUsed    bool
}

// TokenPair bundles the two session tokens returned by login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
