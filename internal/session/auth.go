package session

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/okian/devbasics/internal/adapters/http/client"
	"github.com/okian/devbasics/internal/domain/model"
	"github.com/okian/devbasics/internal/domain/types"
	"github.com/okian/devbasics/pkg/logger"
	"github.com/okian/devbasics/pkg/metrics"
)

// User-facing messages.
const (
	MsgInvalidEmail    = "Введите корректный email"
	MsgShortPassword   = "Минимум 6 символов"
	MsgShortName       = "Минимум 2 символа"
	MsgAuthDone        = "Готово"
	MsgAuthFailed      = "Не удалось выполнить запрос"
	minPasswordLength  = 6
	minNameLength      = 2
	submissionKindAuth = "auth"
)

// Form field names used in ValidationError.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldName     = "name"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Authenticator performs the login or register round-trip.
type Authenticator interface {
	Authenticate(ctx context.Context, mode model.AuthMode, creds model.Credentials) (client.AuthResponse, error)
}

// AuthResult is a successful auth round-trip.
type AuthResult struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// ValidationError lists the form fields that failed validation, keyed by
// field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid input: %s", strings.Join(names, ", "))
}

// Unwrap lets callers match ErrInvalidInput.
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// textLength counts s in UTF-16 code units, the way the form measures
// input. Characters outside the BMP count twice.
func textLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// Validate checks the auth form. The name is only required to register.
func Validate(mode model.AuthMode, creds model.Credentials) error {
	fields := make(map[string]string)
	if !emailPattern.MatchString(creds.Email) {
		fields[FieldEmail] = MsgInvalidEmail
	}
	if textLength(creds.Password) < minPasswordLength {
		fields[FieldPassword] = MsgShortPassword
	}
	if mode.OrDefault() == model.ModeRegister && textLength(strings.TrimSpace(creds.Name)) < minNameLength {
		fields[FieldName] = MsgShortName
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// SubmitAuth validates the form and runs the login or register round-trip.
//
// Invalid input never reaches the network. Only one submission runs at a
// time; a second call meanwhile fails with ErrPending. On success the user
// is stored when the response carries one and the overlay closes after the
// auto-close delay. On failure a *types.SubmitError carries the message to
// show and the overlay and user stay as they were.
func (s *Store) SubmitAuth(ctx context.Context, mode model.AuthMode, creds model.Credentials) (AuthResult, error) {
	mode = mode.OrDefault()

	if err := Validate(mode, creds); err != nil {
		metrics.RecordSubmission(submissionKindAuth, "invalid")
		return AuthResult{}, err
	}
	if s.auth == nil {
		return AuthResult{}, ErrNoAuthenticator
	}
	if s.isClosed() {
		return AuthResult{}, ErrClosed
	}
	if !s.inflight.TryAcquire(1) {
		metrics.RecordSubmission(submissionKindAuth, "pending")
		return AuthResult{}, ErrPending
	}
	defer s.inflight.Release(1)

	s.setPending(true)
	defer s.setPending(false)

	// a new attempt replaces whatever close the previous one scheduled
	s.mu.Lock()
	s.cancelTimerLocked()
	s.mu.Unlock()

	resp, err := s.auth.Authenticate(ctx, mode, creds)
	if err != nil {
		metrics.RecordSubmission(submissionKindAuth, "error")
		s.log.Info(ctx, "auth request failed",
			logger.String("mode", string(mode)),
			logger.Error(err))
		return AuthResult{}, &types.SubmitError{Message: client.MessageOr(err, MsgAuthFailed), Err: err}
	}

	if resp.User != nil {
		if err := s.SetUser(ctx, resp.User); err != nil {
			metrics.RecordSubmission(submissionKindAuth, "error")
			s.log.Error(ctx, "failed to store signed-in user", logger.Error(err))
			return AuthResult{}, &types.SubmitError{Message: MsgAuthFailed, Err: err}
		}
	}

	msg := strings.TrimSpace(resp.Message)
	if msg == "" {
		msg = MsgAuthDone
	}
	s.scheduleClose()
	metrics.RecordSubmission(submissionKindAuth, "ok")
	return AuthResult{Message: msg, User: resp.User.Clone()}, nil
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
