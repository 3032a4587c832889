// Package tenant persists tenant, user and profile records for
// multi-tenant Slack resolution.
package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("not found")

// Tenant is one customer workspace. SlackBotToken and RagieAPIKey are
// per-tenant credentials.
type Tenant struct {
	ID            string
	Name          string
	Slug          string
	SlackTeamID   string
	SlackBotToken string
	RagieAPIKey   string
}

// User is a chat-surface user known to the platform.
type User struct {
	ID          string
	SlackUserID string
	Name        string
	RealName    string
}

// Profile binds a user to a tenant with a role.
type Profile struct {
	ID       string
	TenantID string
	UserID   string
	Role     string
}

const schema = `
CREATE TABLE IF NOT EXISTS tenants (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT UNIQUE NOT NULL,
	slack_team_id TEXT UNIQUE,
	slack_bot_token TEXT,
	ragie_api_key TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	slack_user_id TEXT UNIQUE,
	name TEXT,
	real_name TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS profiles (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL REFERENCES tenants(id),
	user_id TEXT NOT NULL REFERENCES users(id),
	role TEXT NOT NULL DEFAULT 'guest',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(tenant_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_tenants_slack_team ON tenants(slack_team_id);
CREATE INDEX IF NOT EXISTS idx_users_slack_user ON users(slack_user_id);
`

// Store is a sqlite-backed tenant store.
type Store struct {
	db *sql.DB
}

// NewStore opens (and if needed initializes) the tenant database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open tenant db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// CreateTenant inserts a tenant and returns it with a generated ID.
func (s *Store) CreateTenant(ctx context.Context, t Tenant) (*Tenant, error) {
	t.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tenants (id, name, slug, slack_team_id, slack_bot_token, ragie_api_key) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Slug, nullable(t.SlackTeamID), nullable(t.SlackBotToken), nullable(t.RagieAPIKey))
	if err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	return &t, nil
}

// TenantBySlackTeamID resolves the tenant owning a Slack workspace.
func (s *Store) TenantBySlackTeamID(ctx context.Context, teamID string) (*Tenant, error) {
	return s.scanTenant(s.db.QueryRowContext(ctx,
		`SELECT id, name, slug, COALESCE(slack_team_id, ''), COALESCE(slack_bot_token, ''), COALESCE(ragie_api_key, '')
		 FROM tenants WHERE slack_team_id = ?`, teamID))
}

// TenantBySlug resolves a tenant by its public slug.
func (s *Store) TenantBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return s.scanTenant(s.db.QueryRowContext(ctx,
		`SELECT id, name, slug, COALESCE(slack_team_id, ''), COALESCE(slack_bot_token, ''), COALESCE(ragie_api_key, '')
		 FROM tenants WHERE slug = ?`, slug))
}

func (s *Store) scanTenant(row *sql.Row) (*Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.SlackTeamID, &t.SlackBotToken, &t.RagieAPIKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	return &t, nil
}

// UserBySlackUserID looks up a user by Slack user ID.
func (s *Store) UserBySlackUserID(ctx context.Context, slackUserID string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, COALESCE(slack_user_id, ''), COALESCE(name, ''), COALESCE(real_name, '')
		 FROM users WHERE slack_user_id = ?`, slackUserID).
		Scan(&u.ID, &u.SlackUserID, &u.Name, &u.RealName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// CreateSlackUser inserts a user discovered through Slack.
func (s *Store) CreateSlackUser(ctx context.Context, slackUserID, name, realName string) (*User, error) {
	u := User{ID: uuid.NewString(), SlackUserID: slackUserID, Name: name, RealName: realName}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, slack_user_id, name, real_name) VALUES (?, ?, ?, ?)`,
		u.ID, u.SlackUserID, u.Name, u.RealName)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// ProfileByTenantAndUser looks up a user's profile within a tenant.
func (s *Store) ProfileByTenantAndUser(ctx context.Context, tenantID, userID string) (*Profile, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, user_id, role FROM profiles WHERE tenant_id = ? AND user_id = ?`,
		tenantID, userID).
		Scan(&p.ID, &p.TenantID, &p.UserID, &p.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &p, nil
}

// CreateProfile binds a user to a tenant with the given role.
func (s *Store) CreateProfile(ctx context.Context, tenantID, userID, role string) (*Profile, error) {
	p := Profile{ID: uuid.NewString(), TenantID: tenantID, UserID: userID, Role: role}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, tenant_id, user_id, role) VALUES (?, ?, ?, ?)`,
		p.ID, p.TenantID, p.UserID, p.Role)
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return &p, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
