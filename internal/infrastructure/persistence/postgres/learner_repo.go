// Package postgres implements the PostgreSQL persistence layer.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/speakably/speakably-backend/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const learnerColumns = `
	user_id, username, email, selected_language_id, proficiency,
	xp, hearts, gems, daily_goal_target, daily_goal_completed,
	current_streak, best_streak, last_activity_date, last_streak_date,
	daily_reminder, reminder_time, created_at, updated_at
`

// LearnerRepository implements learner.Repository for PostgreSQL.
type LearnerRepository struct {
	conn *Connection
}

// NewLearnerRepository creates a new LearnerRepository.
func NewLearnerRepository(conn *Connection) *LearnerRepository {
	return &LearnerRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create creates a new learner profile.
func (r *LearnerRepository) Create(ctx context.Context, p *learner.Profile) error {
	query := `
		INSERT INTO learner_profiles (
			user_id, username, email, selected_language_id, proficiency,
			xp, hearts, gems, daily_goal_target, daily_goal_completed,
			current_streak, best_streak, last_activity_date, last_streak_date,
			daily_reminder, reminder_time, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.conn.Exec(ctx, query,
		p.UserID,
		string(p.Username),
		p.Email,
		p.SelectedLanguageID,
		string(p.Proficiency),
		int(p.XP),
		p.Hearts,
		p.Gems,
		p.DailyGoalTarget,
		p.DailyGoalCompleted,
		p.CurrentStreak,
		p.BestStreak,
		nullableDay(p.LastActivityDate),
		p.LastStreakDate,
		p.Preferences.DailyReminder,
		p.Preferences.ReminderTime,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return learner.ErrProfileAlreadyExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetByUserID returns a profile by user ID.
func (r *LearnerRepository) GetByUserID(ctx context.Context, userID string) (*learner.Profile, error) {
	query := `SELECT ` + learnerColumns + ` FROM learner_profiles WHERE user_id = $1`
	return r.scanProfile(r.conn.QueryRow(ctx, query, userID))
}

// GetByUsername returns a profile by username.
func (r *LearnerRepository) GetByUsername(ctx context.Context, username learner.Username) (*learner.Profile, error) {
	query := `SELECT ` + learnerColumns + ` FROM learner_profiles WHERE username = $1`
	return r.scanProfile(r.conn.QueryRow(ctx, query, string(username)))
}

// GetForUpdate returns a profile with an exclusive row lock. Must be called
// inside a transaction; the lock is held until commit or rollback.
func (r *LearnerRepository) GetForUpdate(ctx context.Context, userID string) (*learner.Profile, error) {
	query := `SELECT ` + learnerColumns + ` FROM learner_profiles WHERE user_id = $1 FOR UPDATE`
	return r.scanProfile(r.conn.QueryRow(ctx, query, userID))
}

// Update updates a profile.
func (r *LearnerRepository) Update(ctx context.Context, p *learner.Profile) error {
	query := `
		UPDATE learner_profiles SET
			username = $1,
			email = $2,
			selected_language_id = $3,
			proficiency = $4,
			xp = $5,
			hearts = $6,
			gems = $7,
			daily_goal_target = $8,
			daily_goal_completed = $9,
			current_streak = $10,
			best_streak = $11,
			last_activity_date = $12,
			last_streak_date = $13,
			daily_reminder = $14,
			reminder_time = $15,
			updated_at = $16
		WHERE user_id = $17
	`

	result, err := r.conn.Exec(ctx, query,
		string(p.Username),
		p.Email,
		p.SelectedLanguageID,
		string(p.Proficiency),
		int(p.XP),
		p.Hearts,
		p.Gems,
		p.DailyGoalTarget,
		p.DailyGoalCompleted,
		p.CurrentStreak,
		p.BestStreak,
		nullableDay(p.LastActivityDate),
		p.LastStreakDate,
		p.Preferences.DailyReminder,
		p.Preferences.ReminderTime,
		time.Now().UTC(),
		p.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	if result.RowsAffected() == 0 {
		return learner.ErrProfileNotFound
	}

	return nil
}

// ListAll returns profiles with pagination, ordered by creation time.
func (r *LearnerRepository) ListAll(ctx context.Context, opts learner.ListOptions) ([]*learner.Profile, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + learnerColumns + `
		FROM learner_profiles
		ORDER BY created_at
		LIMIT $1 OFFSET $2`

	rows, err := r.conn.Query(ctx, query, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	return r.scanProfiles(rows)
}

// FindReminderCandidates returns profiles with the daily reminder enabled
// whose last activity was before today. The reminder job filters further
// by reminder time and today's effective goal.
func (r *LearnerRepository) FindReminderCandidates(ctx context.Context) ([]*learner.Profile, error) {
	query := `SELECT ` + learnerColumns + `
		FROM learner_profiles
		WHERE daily_reminder
		  AND (last_activity_date IS NULL OR last_activity_date < (NOW() AT TIME ZONE 'UTC')::date)`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to find reminder candidates: %w", err)
	}
	defer rows.Close()

	return r.scanProfiles(rows)
}

// Exists reports whether a profile exists.
func (r *LearnerRepository) Exists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM learner_profiles WHERE user_id = $1)`, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check profile existence: %w", err)
	}
	return exists, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning helpers
// ─────────────────────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *LearnerRepository) scanProfile(row rowScanner) (*learner.Profile, error) {
	var (
		username         string
		proficiency      string
		xp               int
		lastActivityDate *time.Time
	)

	profile := &learner.Profile{}

	err := row.Scan(
		&profile.UserID,
		&username,
		&profile.Email,
		&profile.SelectedLanguageID,
		&proficiency,
		&xp,
		&profile.Hearts,
		&profile.Gems,
		&profile.DailyGoalTarget,
		&profile.DailyGoalCompleted,
		&profile.CurrentStreak,
		&profile.BestStreak,
		&lastActivityDate,
		&profile.LastStreakDate,
		&profile.Preferences.DailyReminder,
		&profile.Preferences.ReminderTime,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, learner.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	profile.Username = learner.Username(username)
	profile.Proficiency = learner.Proficiency(proficiency)
	profile.XP = learner.XP(xp)
	if lastActivityDate != nil {
		profile.LastActivityDate = lastActivityDate.UTC()
	}

	return profile, nil
}

func (r *LearnerRepository) scanProfiles(rows interface {
	rowScanner
	Next() bool
	Err() error
}) ([]*learner.Profile, error) {
	var profiles []*learner.Profile
	for rows.Next() {
		p, err := r.scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// nullableDay maps the zero time to NULL for DATE columns.
func nullableDay(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	day := t.UTC()
	return &day
}

// ══════════════════════════════════════════════════════════════════════════════
// CREDENTIAL REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CredentialRepository stores login credentials separately from profiles.
type CredentialRepository struct {
	conn *Connection
}

// NewCredentialRepository creates a new CredentialRepository.
func NewCredentialRepository(conn *Connection) *CredentialRepository {
	return &CredentialRepository{conn: conn}
}

// SaveCredentials stores the bcrypt password hash for a user.
func (r *CredentialRepository) SaveCredentials(ctx context.Context, userID, email string, passwordHash []byte) error {
	query := `
		INSERT INTO learner_credentials (user_id, email, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET email = $2, password_hash = $3
	`

	if _, err := r.conn.Exec(ctx, query, userID, email, passwordHash); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	return nil
}

// GetPasswordHash returns the stored password hash for an e-mail.
func (r *CredentialRepository) GetPasswordHash(ctx context.Context, email string) (userID string, hash []byte, err error) {
	query := `SELECT user_id, password_hash FROM learner_credentials WHERE email = $1`

	if err := r.conn.QueryRow(ctx, query, email).Scan(&userID, &hash); err != nil {
		if IsNoRows(err) {
			return "", nil, learner.ErrProfileNotFound
		}
		return "", nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	return userID, hash, nil
}
