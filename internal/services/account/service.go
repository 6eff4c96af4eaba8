package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pmorrell/surveyid/internal/dependencies/clock"
	"github.com/pmorrell/surveyid/internal/model"
	"github.com/pmorrell/surveyid/internal/services/anonymizer"
	"github.com/pmorrell/surveyid/internal/services/credential"
	"github.com/pmorrell/surveyid/internal/services/session"
	"github.com/pmorrell/surveyid/internal/storage"
)

// Validator enforces field-level input rules. It is supplied by the
// caller; the flow only cares that a failure is a *model.FieldError
// naming the offending field.
type Validator interface {
	Validate(field, value string) error
}

// RecoveryTicket is one pending password reset, issued per participant
// matching a recovery email. Tickets go to the mail dispatcher only and
// never into a response.
type RecoveryTicket struct {
	UserID    string
	Name      string
	Token     string
	ExpiresAt time.Time
}

// MailDispatcher delivers recovery and reminder mail. Implemented
// outside the core.
type MailDispatcher interface {
	SendRecoveryEmail(ctx context.Context, email string, tickets []RecoveryTicket) error
	SendIDReminder(ctx context.Context, email string, userids []string) error
}

// Config holds configuration for the account flow
type Config struct {
	ResetTTL time.Duration
}

// DefaultConfig returns default account configuration
func DefaultConfig() Config {
	return Config{
		ResetTTL: credential.DefaultResetTTL,
	}
}

// Service orchestrates registration, login, session switching and
// credential recovery over the identity store
type Service struct {
	store    storage.Store
	creds    *credential.Service
	anon     *anonymizer.Service
	validate Validator
	mail     MailDispatcher
	clock    clock.Clock
	logger   *slog.Logger
	cfg      Config
}

// New creates a new account service
func New(store storage.Store, creds *credential.Service, anon *anonymizer.Service,
	validate Validator, mail MailDispatcher, clk clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if cfg.ResetTTL == 0 {
		cfg.ResetTTL = DefaultConfig().ResetTTL
	}
	return &Service{
		store:    store,
		creds:    creds,
		anon:     anon,
		validate: validate,
		mail:     mail,
		clock:    clk,
		logger:   logger,
		cfg:      cfg,
	}
}

// RegisterParams carries the participant-provided registration fields
type RegisterParams struct {
	UserID    string
	Password  string
	FirstName string
	LastName  string
	Email     string
}

// Register creates a new participant, issues their access token and
// makes them the active identity. Two concurrent registrations of the
// same userid cannot both succeed; the loser gets ErrDuplicateID from
// the store.
func (s *Service) Register(ctx context.Context, st *session.State, p RegisterParams) (*model.Identity, error) {
	if err := s.validateRegistration(p); err != nil {
		return nil, err
	}

	hash, err := s.creds.HashPassword(p.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	id := &model.Identity{
		Ref:      model.Ref(uuid.NewString()),
		PublicID: model.PublicID(p.UserID),
		Kind:     model.KindParticipant,
		Profile: model.Profile{
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Email:     p.Email,
		},
		PasswordHash: hash,
		AccessToken:  s.creds.NewAccessToken(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateIdentity(ctx, id); err != nil {
		if errors.Is(err, model.ErrDuplicateID) {
			s.logger.Info("registration rejected, userid taken",
				slog.String("userid", p.UserID))
		}
		return nil, err
	}

	s.logger.Info("participant registered", slog.String("userid", p.UserID))

	st.Remember(p.UserID, "")
	st.SetActive(p.UserID)
	return id, nil
}

// LoginWithPassword authenticates a participant by password and makes
// them the active identity
func (s *Service) LoginWithPassword(ctx context.Context, st *session.State, userid, password string) (*model.Identity, error) {
	id, err := s.lookupParticipant(ctx, userid, "password login")
	if err != nil {
		return nil, err
	}

	if !s.creds.VerifyPassword(password, id.PasswordHash) {
		s.logger.Info("password login failed, incorrect password",
			slog.String("userid", userid))
		return nil, model.ErrBadPassword
	}

	st.Remember(userid, "")
	st.SetActive(userid)
	return id, nil
}

// LoginWithToken authenticates a participant by their bearer access
// token, the silent cookie-based login path
func (s *Service) LoginWithToken(ctx context.Context, st *session.State, userid, token string) (*model.Identity, error) {
	id, err := s.lookupParticipant(ctx, userid, "token login")
	if err != nil {
		return nil, err
	}

	if !s.creds.VerifyAccessToken(id, token) {
		s.logger.Info("token login failed, incorrect token",
			slog.String("userid", userid))
		return nil, model.ErrBadToken
	}

	st.Remember(userid, "")
	st.SetActive(userid)
	return id, nil
}

// ResumeAs switches the active identity to another identifier this
// browser has already used, without re-presenting credentials
func (s *Service) ResumeAs(ctx context.Context, st *session.State, userid string) (*model.Identity, error) {
	if !st.IsKnown(userid) {
		return nil, model.ErrIdentityNotFound
	}

	id, err := s.lookupParticipant(ctx, userid, "resume")
	if err != nil {
		return nil, err
	}

	st.SetActive(userid)
	return id, nil
}

// Logout clears the active identity, keeping the remembered mapping
func (s *Service) Logout(st *session.State) {
	st.Logout()
}

// Forget drops an identifier from the browser's remembered mapping
func (s *Service) Forget(st *session.State, userid string) {
	st.Forget(userid)
}

// EstablishProxy resolves (creating on first use) the anonymous proxy
// for the active identity and records its id in the session mapping
func (s *Service) EstablishProxy(ctx context.Context, st *session.State) (*model.Identity, error) {
	if st.Active() == "" {
		return nil, model.ErrIdentityNotFound
	}

	id, err := s.lookupParticipant(ctx, st.Active(), "proxy")
	if err != nil {
		return nil, err
	}

	proxy, err := s.anon.GetOrCreateProxy(ctx, id)
	if err != nil {
		return nil, err
	}

	st.Remember(st.Active(), string(proxy.PublicID))
	return proxy, nil
}

// RequestRecovery issues one reset ticket per participant registered
// under the email and hands them to the mail dispatcher. The returned
// error distinguishes "no match" for the caller's logs; responses to
// the end user must stay opaque either way.
func (s *Service) RequestRecovery(ctx context.Context, email string) ([]RecoveryTicket, error) {
	matches, err := s.store.FindParticipantsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		s.logger.Info("recovery requested for unknown email")
		return nil, model.ErrNoMatchingEmail
	}

	tickets := make([]RecoveryTicket, 0, len(matches))
	for _, id := range matches {
		token, err := s.creds.IssueResetToken(ctx, id, s.cfg.ResetTTL)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, RecoveryTicket{
			UserID:    string(id.PublicID),
			Name:      id.Profile.DisplayName(),
			Token:     composeResetToken(id.PublicID, token.Secret),
			ExpiresAt: token.ExpiresAt,
		})
	}

	if err := s.mail.SendRecoveryEmail(ctx, email, tickets); err != nil {
		s.logger.Error("failed to send recovery email", slog.String("error", err.Error()))
		return nil, err
	}
	return tickets, nil
}

// SendIDReminder mails the list of identifiers registered under an
// email address
func (s *Service) SendIDReminder(ctx context.Context, email string) error {
	matches, err := s.store.FindParticipantsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		s.logger.Info("reminder requested for unknown email")
		return model.ErrNoMatchingEmail
	}

	userids := make([]string, 0, len(matches))
	for _, id := range matches {
		userids = append(userids, string(id.PublicID))
	}
	return s.mail.SendIDReminder(ctx, email, userids)
}

// ResetPassword redeems a recovery ticket and installs a new password.
// The ticket is spent even when the attempt fails.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := s.validate.Validate("password", newPassword); err != nil {
		return err
	}

	userid, secret, ok := splitResetToken(token)
	if !ok {
		return model.ErrInvalidReset
	}

	id, err := s.store.GetIdentity(ctx, userid)
	if err != nil {
		if errors.Is(err, model.ErrIdentityNotFound) {
			return model.ErrInvalidReset
		}
		return err
	}
	if !id.IsParticipant() {
		return model.ErrInvalidReset
	}

	if err := s.creds.ConsumeResetToken(ctx, id, secret); err != nil {
		s.logger.Info("password reset rejected",
			slog.String("userid", string(userid)),
			slog.String("reason", err.Error()))
		return err
	}

	hash, err := s.creds.HashPassword(newPassword)
	if err != nil {
		return err
	}
	id.PasswordHash = hash
	id.UpdatedAt = s.clock.Now()
	if err := s.store.SaveIdentity(ctx, id); err != nil {
		return err
	}

	s.logger.Info("password reset", slog.String("userid", string(userid)))
	return nil
}

// SetName updates the participant's display name fields
func (s *Service) SetName(ctx context.Context, userid, firstName, lastName string) (*model.Identity, error) {
	if err := s.validate.Validate("firstname", firstName); err != nil {
		return nil, err
	}
	if err := s.validate.Validate("lastname", lastName); err != nil {
		return nil, err
	}

	id, err := s.lookupParticipant(ctx, userid, "profile update")
	if err != nil {
		return nil, err
	}

	id.Profile.FirstName = firstName
	id.Profile.LastName = lastName
	id.UpdatedAt = s.clock.Now()
	if err := s.store.SaveIdentity(ctx, id); err != nil {
		return nil, err
	}
	return id, nil
}

// SetEmail updates or, with an empty value, clears the participant's
// email address
func (s *Service) SetEmail(ctx context.Context, userid, email string) (*model.Identity, error) {
	if email != "" {
		if err := s.validate.Validate("email", email); err != nil {
			return nil, err
		}
	}

	id, err := s.lookupParticipant(ctx, userid, "profile update")
	if err != nil {
		return nil, err
	}

	id.Profile.Email = email
	id.UpdatedAt = s.clock.Now()
	if err := s.store.SaveIdentity(ctx, id); err != nil {
		return nil, err
	}
	return id, nil
}

// ChangePassword replaces the password of a logged-in participant
func (s *Service) ChangePassword(ctx context.Context, userid, newPassword string) error {
	if err := s.validate.Validate("password", newPassword); err != nil {
		return err
	}

	id, err := s.lookupParticipant(ctx, userid, "password change")
	if err != nil {
		return err
	}

	hash, err := s.creds.HashPassword(newPassword)
	if err != nil {
		return err
	}
	id.PasswordHash = hash
	id.UpdatedAt = s.clock.Now()
	return s.store.SaveIdentity(ctx, id)
}

// RotateAccessToken issues a fresh bearer token, invalidating the
// previous one
func (s *Service) RotateAccessToken(ctx context.Context, userid string) (string, error) {
	id, err := s.lookupParticipant(ctx, userid, "token rotation")
	if err != nil {
		return "", err
	}

	id.AccessToken = s.creds.NewAccessToken()
	id.UpdatedAt = s.clock.Now()
	if err := s.store.SaveIdentity(ctx, id); err != nil {
		return "", err
	}
	return id.AccessToken, nil
}

// IsUserIDAvailable reports whether a public id is free to register
func (s *Service) IsUserIDAvailable(ctx context.Context, userid string) (bool, error) {
	_, err := s.store.GetIdentity(ctx, model.PublicID(userid))
	if err == nil {
		return false, nil
	}
	if errors.Is(err, model.ErrIdentityNotFound) {
		return true, nil
	}
	return false, err
}

// lookupParticipant resolves a userid to a participant record. A store
// conflict is logged at error severity and propagated: the request
// aborts, the process survives.
func (s *Service) lookupParticipant(ctx context.Context, userid, op string) (*model.Identity, error) {
	id, err := s.store.GetIdentity(ctx, model.PublicID(userid))
	if err != nil {
		if errors.Is(err, model.ErrIdentityConflict) {
			s.logger.Error("identity store invariant violated",
				slog.String("userid", userid),
				slog.String("op", op))
			return nil, err
		}
		if errors.Is(err, model.ErrIdentityNotFound) {
			s.logger.Info("lookup failed, unknown userid",
				slog.String("userid", userid),
				slog.String("op", op))
		}
		return nil, err
	}
	if !id.IsParticipant() {
		// Proxy ids are not login identities
		return nil, model.ErrIdentityNotFound
	}
	return id, nil
}

func (s *Service) validateRegistration(p RegisterParams) error {
	if err := s.validate.Validate("userid", p.UserID); err != nil {
		return err
	}
	if err := s.validate.Validate("password", p.Password); err != nil {
		return err
	}
	if err := s.validate.Validate("firstname", p.FirstName); err != nil {
		return err
	}
	if err := s.validate.Validate("lastname", p.LastName); err != nil {
		return err
	}
	if p.Email != "" {
		if err := s.validate.Validate("email", p.Email); err != nil {
			return err
		}
	}
	return nil
}

// Reset tokens travel as "<userid>.<secret>" so the reset operation
// needs no separate identifier field. Userids cannot contain dots.

func composeResetToken(userid model.PublicID, secret string) string {
	return string(userid) + "." + secret
}

func splitResetToken(token string) (model.PublicID, string, bool) {
	i := strings.LastIndex(token, ".")
	if i <= 0 || i == len(token)-1 {
		return "", "", false
	}
	return model.PublicID(token[:i]), token[i+1:], true
}
