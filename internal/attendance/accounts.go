package attendance

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"attendclient/internal/auth"
)

// Register creates a student or faculty account.
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	if in.ID == "" || in.Name == "" || in.Email == "" {
		return badRequest("All fields are required.")
	}
	if _, err := s.repo.GetUser(ctx, in.ID); err == nil {
		return badRequest("User ID already exists.")
	} else if !errors.Is(err, ErrNotFound) {
		return storeError(err, "")
	}

	role := strings.ToLower(in.Role)
	if role != RoleStudent && role != RoleFaculty {
		return badRequest("Role must be student or faculty.")
	}
	if !passwordValid(in.Password) {
		return badRequest("Password does not meet complexity requirements.")
	}
	u := &User{UserID: in.ID, Name: in.Name, Role: role, Email: in.Email, CreatedAt: s.now().UTC()}
	switch role {
	case RoleStudent:
		if in.Year == "" || in.Branch == "" {
			return badRequest("Year and branch are required for students.")
		}
		u.Year, u.Branch = in.Year, in.Branch
	case RoleFaculty:
		if in.Department == "" {
			return badRequest("Department is required for faculty.")
		}
		u.Department = in.Department
	}
	if _, err := s.repo.FindUserByEmail(ctx, in.Email); err == nil {
		return badRequest("Email already registered.")
	} else if !errors.Is(err, ErrNotFound) {
		return storeError(err, "")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return storeError(err, "")
	}
	u.PasswordHash = string(hash)
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return storeError(err, "")
	}
	s.logActivity(ctx, u.UserID, "register", "")
	return nil
}

// Login checks credentials and returns a signed token. username may be the
// user id or the registered email.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", badRequest("Missing username or password")
	}
	u, err := s.repo.GetUser(ctx, username)
	if errors.Is(err, ErrNotFound) {
		u, err = s.repo.FindUserByEmail(ctx, username)
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", storeError(err, "")
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", fail(http.StatusUnauthorized, "Invalid username or password")
	}
	token, _, err := auth.Issue(u.UserID, s.opts.Issuer, s.opts.SigningKey, s.opts.TokenTTL, s.now())
	if err != nil {
		return "", storeError(err, "")
	}
	s.logActivity(ctx, u.UserID, "login", "")
	return token, nil
}

// Refresh issues a fresh token for an already authenticated user.
func (s *Service) Refresh(ctx context.Context, userID string) (string, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", fail(http.StatusUnauthorized, "Token is invalid!")
		}
		return "", storeError(err, "")
	}
	token, _, err := auth.Issue(userID, s.opts.Issuer, s.opts.SigningKey, s.opts.TokenTTL, s.now())
	if err != nil {
		return "", storeError(err, "")
	}
	return token, nil
}

// ForgotPassword stores and returns a single-use reset token.
func (s *Service) ForgotPassword(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", badRequest("User ID is required.")
	}
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return "", storeError(err, "User not found.")
	}
	expiry := s.now().Add(s.opts.ResetTTL)
	u.ResetToken = uuid.NewString()
	u.ResetExpiry = &expiry
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return "", storeError(err, "User not found.")
	}
	s.logActivity(ctx, u.UserID, "forgot_password", "")
	return u.ResetToken, nil
}

// ResetPassword swaps the password when the reset token matches and has
// not expired.
func (s *Service) ResetPassword(ctx context.Context, in ResetInput) error {
	if in.UserID == "" || in.ResetToken == "" || in.NewPassword == "" {
		return badRequest("All fields are required.")
	}
	u, err := s.repo.GetUser(ctx, in.UserID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return storeError(err, "")
	}
	if u == nil || u.ResetToken == "" || u.ResetToken != in.ResetToken ||
		u.ResetExpiry == nil || u.ResetExpiry.Before(s.now()) {
		return badRequest("Invalid or expired reset token.")
	}
	if !passwordValid(in.NewPassword) {
		return badRequest("Password does not meet complexity requirements.")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return storeError(err, "")
	}
	u.PasswordHash = string(hash)
	u.ResetToken = ""
	u.ResetExpiry = nil
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return storeError(err, "")
	}
	s.logActivity(ctx, u.UserID, "reset_password", "")
	return nil
}

// passwordValid requires eight characters with upper, lower and digit.
func passwordValid(p string) bool {
	if len(p) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}
