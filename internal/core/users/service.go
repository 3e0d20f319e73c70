package users

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"Atelie/internal/appwrite"
	"Atelie/internal/core/apperr"
	"Atelie/internal/core/session"
)

type userService struct {
	accounts     appwrite.Accounts
	databases    appwrite.Databases
	avatars      appwrite.Avatars
	collectionID string
}

// NewUserService creates the auth service over the backend contracts.
// collectionID is the collection holding user documents.
func NewUserService(accounts appwrite.Accounts, databases appwrite.Databases, avatars appwrite.Avatars, collectionID string) UserService {
	return &userService{
		accounts:     accounts,
		databases:    databases,
		avatars:      avatars,
		collectionID: collectionID,
	}
}

// SignUp creates the account, signs in and stores the user document.
func (s *userService) SignUp(ctx context.Context, req SignUpRequest) (*AuthResult, error) {
	if err := validateSignUp(req); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)

	account, err := s.accounts.CreateAccount(ctx, appwrite.UniqueID(), email, req.Password, username)
	if err != nil {
		return nil, mapBackendError("signUp", err)
	}

	avatarURL := s.avatars.InitialsURL(username)

	backendSession, err := s.accounts.CreateEmailSession(ctx, email, req.Password)
	if err != nil {
		return nil, mapAuthError("signUp", err)
	}

	doc, err := s.databases.CreateDocument(ctx, s.collectionID, appwrite.UniqueID(), userDocument{
		AccountID: account.ID,
		Email:     email,
		Username:  username,
		AvatarURL: avatarURL,
	})
	if err != nil {
		// The account exists without a profile; sign-in will report it as missing.
		log.Warn().Err(err).Str("account_id", account.ID).Msg("account created without user document")
		s.revokeSession(ctx, account.ID, backendSession.Secret)
		return nil, apperr.Wrap(apperr.KindPersist, "signUp", "Your account was created but the profile could not be saved.", err)
	}

	user, err := decodeUser(doc)
	if err != nil {
		s.revokeSession(ctx, account.ID, backendSession.Secret)
		return nil, apperr.Wrap(apperr.KindInternal, "signUp", "", err)
	}

	log.Info().Str("user_id", user.ID).Str("account_id", account.ID).Msg("user signed up")
	return &AuthResult{User: user, Session: newSession(backendSession, user)}, nil
}

// revokeSession drops a session the caller will never receive.
func (s *userService) revokeSession(ctx context.Context, accountID, secret string) {
	if err := s.accounts.DeleteSession(ctx, secret, "current"); err != nil {
		log.Warn().Err(err).Str("account_id", accountID).Msg("failed to revoke unused session")
	}
}

// SignIn creates a session and loads the signed-in user.
func (s *userService) SignIn(ctx context.Context, req SignInRequest) (*AuthResult, error) {
	if err := validateSignIn(req); err != nil {
		return nil, err
	}

	backendSession, err := s.accounts.CreateEmailSession(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return nil, mapAuthError("signIn", err)
	}

	user, err := s.userForSecret(ctx, "signIn", backendSession.Secret)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Msg("user signed in")
	return &AuthResult{User: user, Session: newSession(backendSession, user)}, nil
}

// SignOut revokes the current backend session.
func (s *userService) SignOut(ctx context.Context, sess session.Session) error {
	if sess.Secret == "" {
		return apperr.New(apperr.KindUnauthorized, "signOut", msgSessionExpired)
	}
	if err := s.accounts.DeleteSession(ctx, sess.Secret, "current"); err != nil {
		return mapSessionError("signOut", err)
	}
	log.Info().Str("user_id", sess.UserID).Msg("user signed out")
	return nil
}

// CurrentUser loads the account behind sess and its user document.
func (s *userService) CurrentUser(ctx context.Context, sess session.Session) (*User, error) {
	if sess.Secret == "" {
		return nil, apperr.New(apperr.KindUnauthorized, "currentUser", msgSessionExpired)
	}
	return s.userForSecret(ctx, "currentUser", sess.Secret)
}

// RequestPasswordRecovery asks the backend to email a recovery link.
func (s *userService) RequestPasswordRecovery(ctx context.Context, email, redirectURL string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperr.Validation("requestPasswordRecovery", map[string]string{"email": "email is required"})
	}
	if !validEmail(email) {
		return apperr.Validation("requestPasswordRecovery", map[string]string{"email": "email address is invalid"})
	}
	if err := s.accounts.CreateRecovery(ctx, email, redirectURL); err != nil {
		return mapAuthError("requestPasswordRecovery", err)
	}
	return nil
}

func (s *userService) userForSecret(ctx context.Context, op, secret string) (*User, error) {
	account, err := s.accounts.GetAccount(ctx, secret)
	if err != nil {
		return nil, mapSessionError(op, err)
	}

	docs, err := s.databases.ListDocuments(ctx, s.collectionID, appwrite.Equal("accountId", account.ID))
	if err != nil {
		return nil, mapBackendError(op, err)
	}
	if len(docs) == 0 {
		return nil, apperr.New(apperr.KindNotFound, op, "No profile exists for this account.")
	}

	user, err := decodeUser(&docs[0])
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, "", err)
	}
	return user, nil
}

func decodeUser(doc *appwrite.Document) (*User, error) {
	var user User
	if err := doc.Decode(&user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		user.ID = doc.ID
	}
	return &user, nil
}

func newSession(s *appwrite.Session, user *User) session.Session {
	return session.Session{
		ID:        s.ID,
		Secret:    s.Secret,
		AccountID: s.UserID,
		UserID:    user.ID,
		Username:  user.Username,
		ExpiresAt: s.ExpiresAt,
	}
}
