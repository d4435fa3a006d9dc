// Package identity signs users in and issues the tokens that carry their user ID.
package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"prize_wheel/internal/domain"
	"prize_wheel/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// ReferralCodeLength is the length of generated referral codes.
const ReferralCodeLength = 8

const codeAttempts = 5

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// Records is the record store used for sign-in.
type Records interface {
	Create(ctx context.Context, rec *domain.LedgerRecord) error
	Get(ctx context.Context, userID string) (*domain.LedgerRecord, error)
	FindByUsername(ctx context.Context, username string) (*domain.LedgerRecord, error)
	FindByReferralCode(ctx context.Context, code string) (*domain.LedgerRecord, error)
}

// Session is an issued token and the record it belongs to.
type Session struct {
	Token  string              `json:"token"`
	UserID string              `json:"user_id"`
	Record domain.LedgerRecord `json:"record"`
}

// Provider creates records on first sign-in and issues JWTs.
type Provider struct {
	records Records
	secret  string
	cost    int
	log     logrus.FieldLogger
}

// NewProvider creates a provider signing tokens with secret.
func NewProvider(records Records, secret string, log logrus.FieldLogger) *Provider {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Provider{records: records, secret: secret, cost: bcrypt.DefaultCost, log: log}
}

// WithCost sets the bcrypt cost; tests use bcrypt.MinCost.
func (p *Provider) WithCost(cost int) *Provider {
	p.cost = cost
	return p
}

// SignInAnonymous creates a fresh record, optionally linked to the owner of
// referralCode, and returns a token for it.
func (p *Provider) SignInAnonymous(ctx context.Context, referralCode string) (*Session, error) {
	rec := &domain.LedgerRecord{}
	if err := p.create(ctx, rec, referralCode); err != nil {
		return nil, err
	}
	return p.issue(*rec)
}

// Register creates a named record with a bcrypt password hash.
func (p *Provider) Register(ctx context.Context, username, password, referralCode string) (*Session, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if !usernamePattern.MatchString(username) {
		return nil, &domain.ValidationError{
			Reason:  domain.ReasonInvalidCredentials,
			Message: "Username must be 3-20 letters, digits or underscores",
		}
	}
	if len(password) < 8 || len(password) > 72 {
		return nil, &domain.ValidationError{
			Reason:  domain.ReasonInvalidCredentials,
			Message: "Password must be 8-72 characters",
		}
	}
	if _, err := p.records.FindByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("username %q: %w", username, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, err
	}
	rec := &domain.LedgerRecord{Username: &username, PasswordHash: string(hash)}
	if err := p.create(ctx, rec, referralCode); err != nil {
		return nil, err
	}
	return p.issue(*rec)
}

// Login checks username and password. Any mismatch is ErrAuth.
func (p *Provider) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	rec, err := p.records.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrAuth
	} else if err != nil {
		return nil, err
	}
	if rec.PasswordHash == "" {
		return nil, domain.ErrAuth
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrAuth
	}
	return p.issue(*rec)
}

// Authenticate resolves a bearer token to a user ID. An invalid token, or
// one whose record no longer exists, is ErrAuth.
func (p *Provider) Authenticate(ctx context.Context, token string) (string, error) {
	claims, err := utils.ParseJWT(token, p.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAuth, err)
	}
	if _, err := p.records.Get(ctx, claims.UserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrAuth
		}
		return "", fmt.Errorf("%w: %v", domain.ErrAuth, err)
	}
	return claims.UserID, nil
}

func (p *Provider) create(ctx context.Context, rec *domain.LedgerRecord, referralCode string) error {
	if code := NormalizeCode(referralCode); code != "" {
		referrer, err := p.records.FindByReferralCode(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.ValidationError{
				Reason:  domain.ReasonInvalidReferral,
				Message: "Unknown referral code",
			}
		} else if err != nil {
			return err
		}
		rec.ReferredBy = &referrer.UserID
	}

	rec.UserID = uuid.NewString()
	code, err := p.freeCode(ctx)
	if err != nil {
		return err
	}
	rec.ReferralCode = code
	if err := p.records.Create(ctx, rec); err != nil {
		return err
	}
	fields := logrus.Fields{"user_id": rec.UserID, "anonymous": rec.Username == nil}
	if rec.ReferredBy != nil {
		fields["referred_by"] = *rec.ReferredBy
	}
	p.log.WithFields(fields).Info("Ledger record created")
	return nil
}

// freeCode generates referral codes until one is unused.
func (p *Provider) freeCode(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code := NewReferralCode()
		_, err := p.records.FindByReferralCode(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no free referral code after %d attempts: %w", codeAttempts, domain.ErrConflict)
}

func (p *Provider) issue(rec domain.LedgerRecord) (*Session, error) {
	token, err := utils.GenerateJWT(rec.UserID, rec.Role, p.secret)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, UserID: rec.UserID, Record: rec}, nil
}

// NewReferralCode returns ReferralCodeLength upper-case hex characters.
func NewReferralCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:ReferralCodeLength])
}

// NormalizeCode trims and upper-cases a referral code as typed by a user.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
