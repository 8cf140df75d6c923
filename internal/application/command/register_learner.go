package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/speakably/speakably-backend/internal/domain/learner"
	"github.com/speakably/speakably-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER LEARNER COMMAND
// Creates a learner account with a fresh profile: default hearts, empty
// streak, default daily goal.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterLearnerCommand contains the data to register a new learner.
type RegisterLearnerCommand struct {
	// Username is the public handle.
	Username string

	// Email is the login e-mail.
	Email string

	// Password is the plaintext password; only its bcrypt hash is stored.
	Password string

	// SelectedLanguageID optionally picks the first language to learn.
	SelectedLanguageID string

	// Proficiency optionally sets the starting level (defaults to beginner).
	Proficiency string
}

// Validate validates the command.
func (c RegisterLearnerCommand) Validate() error {
	if !learner.Username(c.Username).IsValid() {
		return learner.ErrInvalidUsername
	}
	if !strings.Contains(c.Email, "@") {
		return learner.ErrInvalidEmail
	}
	if len(c.Password) < 8 {
		return errors.New("register_learner: password must be at least 8 chars")
	}
	if c.Proficiency != "" && !learner.Proficiency(c.Proficiency).IsValid() {
		return learner.ErrInvalidProficiency
	}
	return nil
}

// RegisterLearnerResult contains the result of the registration.
type RegisterLearnerResult struct {
	UserID   string
	Username string
	Email    string
}

// CredentialStore persists login credentials separately from the profile.
type CredentialStore interface {
	// SaveCredentials stores the bcrypt password hash for a user.
	SaveCredentials(ctx context.Context, userID, email string, passwordHash []byte) error
}

// RegisterLearnerHandler handles the RegisterLearnerCommand.
type RegisterLearnerHandler struct {
	tx          TxRunner
	profiles    learner.Repository
	credentials CredentialStore
	publisher   shared.EventPublisher
}

// NewRegisterLearnerHandler creates a new RegisterLearnerHandler.
func NewRegisterLearnerHandler(
	tx TxRunner,
	profiles learner.Repository,
	credentials CredentialStore,
	publisher shared.EventPublisher,
) *RegisterLearnerHandler {
	return &RegisterLearnerHandler{
		tx:          tx,
		profiles:    profiles,
		credentials: credentials,
		publisher:   publisher,
	}
}

// Handle executes the register learner command.
func (h *RegisterLearnerHandler) Handle(ctx context.Context, cmd RegisterLearnerCommand) (*RegisterLearnerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("learner", "Register", shared.ErrValidation, "validation failed", err)
	}

	existing, err := h.profiles.GetByUsername(ctx, learner.Username(cmd.Username))
	if err == nil && existing != nil {
		return nil, shared.ErrLearnerAlreadyExists
	}
	if err != nil && !errors.Is(err, learner.ErrProfileNotFound) && !shared.IsNotFound(err) {
		return nil, fmt.Errorf("register_learner: failed to check username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register_learner: failed to hash password: %w", err)
	}

	profile, err := learner.NewProfile(learner.NewProfileParams{
		UserID:   uuid.New().String(),
		Username: learner.Username(cmd.Username),
		Email:    cmd.Email,
	})
	if err != nil {
		return nil, shared.WrapError("learner", "Register", shared.ErrValidation, "invalid profile", err)
	}

	if cmd.SelectedLanguageID != "" {
		profile.SelectLanguage(cmd.SelectedLanguageID)
	}
	if cmd.Proficiency != "" {
		if err := profile.SetProficiency(learner.Proficiency(cmd.Proficiency)); err != nil {
			return nil, shared.WrapError("learner", "Register", shared.ErrValidation, "invalid proficiency", err)
		}
	}

	err = h.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := h.profiles.Create(ctx, profile); err != nil {
			if errors.Is(err, shared.ErrStorageConflict) || shared.IsAlreadyExists(err) {
				return shared.ErrLearnerAlreadyExists
			}
			return fmt.Errorf("failed to create profile: %w", err)
		}
		if err := h.credentials.SaveCredentials(ctx, profile.UserID, cmd.Email, hash); err != nil {
			return fmt.Errorf("failed to save credentials: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = h.publisher.Publish(shared.NewLearnerRegisteredEvent(profile.UserID, cmd.Username, cmd.Email))

	return &RegisterLearnerResult{
		UserID:   profile.UserID,
		Username: cmd.Username,
		Email:    cmd.Email,
	}, nil
}
