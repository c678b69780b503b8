// Package backend implements the finance API on top of the sqlite repositories.
// It returns api types and *api.Error values so that transports only have to
// encode them.
package backend

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jask/finmgr/internal/api"
	"github.com/jask/finmgr/internal/database"
	"github.com/jask/finmgr/internal/database/repository"
	"github.com/jask/finmgr/internal/service"
)

// DefaultSessionTTL bounds the lifetime of a login.
const DefaultSessionTTL = 30 * 24 * time.Hour

const minPasswordLength = 4

// Options configures a Backend.
type Options struct {
	BackupDir  string
	Location   *time.Location
	Logger     *slog.Logger
	SessionTTL time.Duration
}

// Backend serves every api operation.
type Backend struct {
	db          *sql.DB
	users       *repository.UserRepo
	sessions    *repository.SessionRepo
	contacts    *repository.ContactRepo
	accounts    *repository.AccountRepo
	plans       *repository.SavingsPlanRepo
	securities  *repository.SecurityRepo
	postings    *repository.PostingRepo
	attachments *repository.AttachmentRepo

	ingest      *service.IngestService
	importMu    sync.Mutex
	maintenance *service.MaintenanceService

	log        *slog.Logger
	sessionTTL time.Duration
	now        func() time.Time
}

func New(db *sql.DB, opts Options) *Backend {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	b := &Backend{
		db:          db,
		users:       repository.NewUserRepo(db),
		sessions:    repository.NewSessionRepo(db),
		contacts:    repository.NewContactRepo(db),
		accounts:    repository.NewAccountRepo(db),
		plans:       repository.NewSavingsPlanRepo(db),
		securities:  repository.NewSecurityRepo(db),
		postings:    repository.NewPostingRepo(db),
		attachments: repository.NewAttachmentRepo(db),
		log:         opts.Logger,
		sessionTTL:  opts.SessionTTL,
		now:         database.Now,
	}
	b.ingest = &service.IngestService{Postings: b.postings, Accounts: b.accounts, Contacts: b.contacts, Location: opts.Location}
	b.maintenance = &service.MaintenanceService{DB: db, Dir: opts.BackupDir}
	return b
}

// internal logs err and hides it behind a generic api error.
func (b *Backend) internal(op string, err error) error {
	b.log.Error("backend failure", "op", op, "err", err)
	return api.NewError(http.StatusInternalServerError, api.CodeInternal, op+" failed")
}

// Login checks credentials and opens a session.
func (b *Backend) Login(ctx context.Context, username, password string) (*api.LoginResponse, error) {
	u, err := b.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, b.internal("login", err)
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, api.NewError(http.StatusUnauthorized, api.CodeInvalidLogin, "invalid username or password")
	}
	token, err := newToken()
	if err != nil {
		return nil, b.internal("login", err)
	}
	now := b.now()
	if err := b.sessions.Insert(ctx, repository.Session{Token: token, UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(b.sessionTTL)}); err != nil {
		return nil, b.internal("login", err)
	}
	b.log.Info("user logged in", "user", u.Username)
	return &api.LoginResponse{Token: token, User: toAPIUser(*u)}, nil
}

// Logout ends a session. Unknown tokens are ignored.
func (b *Backend) Logout(ctx context.Context, token string) error {
	if err := b.sessions.Delete(ctx, token); err != nil {
		return b.internal("logout", err)
	}
	return nil
}

// Authenticate resolves a session token to its user.
func (b *Backend) Authenticate(ctx context.Context, token string) (*api.User, error) {
	if token == "" {
		return nil, api.ErrUnauthorized
	}
	s, err := b.sessions.Get(ctx, token, b.now())
	if err != nil {
		return nil, b.internal("authenticate", err)
	}
	if s == nil {
		return nil, api.ErrUnauthorized
	}
	u, err := b.users.Get(ctx, s.UserID)
	if err != nil {
		return nil, b.internal("authenticate", err)
	}
	if u == nil {
		return nil, api.ErrUnauthorized
	}
	out := toAPIUser(*u)
	return &out, nil
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (b *Backend) ListUsers(ctx context.Context) ([]api.User, error) {
	rows, err := b.users.List(ctx)
	if err != nil {
		return nil, b.internal("list users", err)
	}
	out := make([]api.User, 0, len(rows))
	for _, u := range rows {
		out = append(out, toAPIUser(u))
	}
	return out, nil
}

func (b *Backend) GetUser(ctx context.Context, id uuid.UUID) (*api.User, error) {
	u, err := b.users.Get(ctx, id)
	if err != nil {
		return nil, b.internal("get user", err)
	}
	if u == nil {
		return nil, nil
	}
	out := toAPIUser(*u)
	return &out, nil
}

func (b *Backend) CreateUser(ctx context.Context, req api.UserRequest) (*api.User, error) {
	if len(req.Password) < minPasswordLength {
		return nil, api.Invalid(fmt.Sprintf("password must have at least %d characters", minPasswordLength))
	}
	return b.saveUser(ctx, repository.User{ID: uuid.New()}, req)
}

// UpdateUser changes a user. An empty password keeps the current one.
func (b *Backend) UpdateUser(ctx context.Context, id uuid.UUID, req api.UserRequest) (*api.User, error) {
	u, err := b.users.Get(ctx, id)
	if err != nil {
		return nil, b.internal("update user", err)
	}
	if u == nil {
		return nil, api.NotFound("user")
	}
	if req.Password != "" && len(req.Password) < minPasswordLength {
		return nil, api.Invalid(fmt.Sprintf("password must have at least %d characters", minPasswordLength))
	}
	if u.IsAdmin && !req.IsAdmin {
		if err := b.requireOtherAdmin(ctx, id); err != nil {
			return nil, err
		}
	}
	return b.saveUser(ctx, *u, req)
}

func (b *Backend) saveUser(ctx context.Context, u repository.User, req api.UserRequest) (*api.User, error) {
	name := strings.TrimSpace(req.Username)
	if name == "" {
		return nil, api.Invalid("username is required")
	}
	if other, err := b.users.GetByUsername(ctx, name); err != nil {
		return nil, b.internal("save user", err)
	} else if other != nil && other.ID != u.ID {
		return nil, api.NewError(http.StatusConflict, api.CodeConflict, "username already taken")
	}
	u.Username = name
	u.IsAdmin = req.IsAdmin
	u.PreferredLanguage = req.PreferredLanguage
	if u.PreferredLanguage == "" {
		u.PreferredLanguage = "en"
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, b.internal("hash password", err)
		}
		u.PasswordHash = string(hash)
	}
	if err := b.users.Upsert(ctx, u); err != nil {
		return nil, b.internal("save user", err)
	}
	return b.GetUser(ctx, u.ID)
}

// DeleteUser removes a user. Nobody can delete themselves or the last admin.
func (b *Backend) DeleteUser(ctx context.Context, actor, id uuid.UUID) error {
	if actor == id {
		return api.NewError(http.StatusConflict, api.CodeConflict, "cannot delete the current user")
	}
	u, err := b.users.Get(ctx, id)
	if err != nil {
		return b.internal("delete user", err)
	}
	if u == nil {
		return api.NotFound("user")
	}
	if u.IsAdmin {
		if err := b.requireOtherAdmin(ctx, id); err != nil {
			return err
		}
	}
	if err := b.users.Delete(ctx, id); err != nil {
		return b.internal("delete user", err)
	}
	return nil
}

func (b *Backend) requireOtherAdmin(ctx context.Context, id uuid.UUID) error {
	n, err := b.users.CountAdmins(ctx, id)
	if err != nil {
		return b.internal("count admins", err)
	}
	if n == 0 {
		return api.NewError(http.StatusConflict, api.CodeConflict, "at least one admin is required")
	}
	return nil
}

func (b *Backend) ListBackups(ctx context.Context) ([]api.Backup, error) {
	files, err := b.maintenance.ListBackups(ctx)
	if err != nil {
		return nil, b.internal("list backups", err)
	}
	out := make([]api.Backup, 0, len(files))
	for _, f := range files {
		out = append(out, api.Backup{FileName: f.Name, Size: f.Size, CreatedAt: f.CreatedAt})
	}
	return out, nil
}

func (b *Backend) CreateBackup(ctx context.Context) (*api.Backup, error) {
	f, err := b.maintenance.Backup(ctx)
	if err != nil {
		return nil, b.internal("backup", err)
	}
	b.log.Info("backup created", "file", f.Name, "size", f.Size)
	return &api.Backup{FileName: f.Name, Size: f.Size, CreatedAt: f.CreatedAt}, nil
}

// PruneSessions drops expired sessions.
func (b *Backend) PruneSessions(ctx context.Context) error {
	n, err := b.maintenance.PruneSessions(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		b.log.Info("pruned sessions", "count", n)
	}
	return nil
}

func toAPIUser(u repository.User) api.User {
	return api.User{
		ID:                u.ID,
		Username:          u.Username,
		IsAdmin:           u.IsAdmin,
		PreferredLanguage: u.PreferredLanguage,
		CreatedAt:         u.CreatedAt,
	}
}
