package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sony/gobreaker"
	"golang.org/x/crypto/bcrypt"

	"github.com/touristsafety/identity-access-service/internal/config"
	"github.com/touristsafety/identity-access-service/internal/core/domain"
	"github.com/touristsafety/identity-access-service/internal/core/ports"
)

const bcryptCost = bcrypt.DefaultCost

// SQLCredentialStore verifies and creates accounts against Postgres.
// Passwords are stored as bcrypt hashes; the comparison happens here and the
// plaintext never leaves this adapter. Account creation writes the user row
// and an outbox event in one transaction so the relay can publish the
// registration without dual-write races.
type SQLCredentialStore struct {
	db *sql.DB
	cb *gobreaker.CircuitBreaker
}

var _ ports.CredentialStore = (*SQLCredentialStore)(nil)

func NewSQLCredentialStore(db *sql.DB) *SQLCredentialStore {
	return &SQLCredentialStore{
		db: db,
		cb: config.NewCircuitBreaker("PostgreSQL"),
	}
}

func (r *SQLCredentialStore) Verify(ctx context.Context, email, password string) (*domain.Identity, error) {
	res, err := r.cb.Execute(func() (interface{}, error) {
		var identity domain.Identity
		var passwordHash string
		var authorityName, authorityType sql.NullString
		var touristUID, nationality, passportNumber sql.NullString

		err := r.db.QueryRowContext(ctx, `
			SELECT id, email, display_name, role, password_hash, created_at,
			       authority_name, authority_type,
			       tourist_uid, nationality, passport_number
			FROM users WHERE email = $1`,
			email,
		).Scan(
			&identity.ID, &identity.Email, &identity.DisplayName, &identity.Role,
			&passwordHash, &identity.CreatedAt,
			&authorityName, &authorityType,
			&touristUID, &nationality, &passportNumber,
		)
		if err == sql.ErrNoRows {
			return nil, domain.ErrInvalidCredentials
		}
		if err != nil {
			return nil, err
		}

		if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
			return nil, domain.ErrInvalidCredentials
		}

		identity.AuthorityName = authorityName.String
		identity.AuthorityType = domain.AuthorityType(authorityType.String)
		identity.TouristUID = touristUID.String
		identity.Nationality = nationality.String
		identity.PassportNumber = passportNumber.String
		return &identity, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	return res.(*domain.Identity), nil
}

func (r *SQLCredentialStore) Create(ctx context.Context, account domain.NewAccount) (*domain.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(account.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	identity := identityFromAccount(account)

	outboxPayload, err := json.Marshal(ports.IdentityRegisteredEvent{
		UserID:        identity.ID,
		Email:         identity.Email,
		Role:          string(identity.Role),
		AuthorityName: identity.AuthorityName,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal outbox payload: %w", err)
	}

	_, err = r.cb.Execute(func() (interface{}, error) {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(ctx, `
			INSERT INTO users (id, email, display_name, role, password_hash, created_at,
			                   authority_name, authority_type,
			                   tourist_uid, nationality, passport_number)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			identity.ID, identity.Email, identity.DisplayName, identity.Role,
			string(hash), identity.CreatedAt,
			nullable(identity.AuthorityName), nullable(string(identity.AuthorityType)),
			nullable(identity.TouristUID), nullable(identity.Nationality), nullable(identity.PassportNumber),
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
				return nil, domain.ErrEmailTaken
			}
			return nil, err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO outbox_events (id, event_type, payload, created_at)
			VALUES ($1, $2, $3, NOW())`,
			identity.ID, "identity.registered", outboxPayload,
		)
		if err != nil {
			return nil, err
		}

		return nil, tx.Commit()
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return identity, nil
}

func identityFromAccount(account domain.NewAccount) *domain.Identity {
	return &domain.Identity{
		ID:            account.ID,
		Email:         account.Email,
		DisplayName:   account.DisplayName,
		Role:          account.Role,
		CreatedAt:     time.Now().UTC(),
		AuthorityName: account.AuthorityName,
		AuthorityType: account.AuthorityType,
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
