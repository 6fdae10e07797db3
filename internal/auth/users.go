package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/quizchamp/quizchamp/internal/apperr"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

type User struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type UserStore struct{ db *sql.DB }

func NewUserStore(db *sql.DB) *UserStore { return &UserStore{db: db} }

// Register creates a local account. Email is the identity: trimmed,
// lowercased, unique.
func (s *UserStore) Register(ctx context.Context, role, name, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return User{}, apperr.Validationf("email and password required")
	}
	if role != RoleStudent && role != RoleTeacher {
		return User{}, apperr.Validationf("role must be student or teacher")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u := User{ID: uuid.NewString(), Role: role, Name: strings.TrimSpace(name), Email: email}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id,role,name,email,password_hash,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		u.ID, u.Role, u.Name, u.Email, string(hash), time.Now().Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
			strings.Contains(err.Error(), "duplicate key") {
			return User{}, apperr.Validationf("email already registered")
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Authenticate checks email+password for the given role.
func (s *UserStore) Authenticate(ctx context.Context, role, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u User
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id,role,name,email,password_hash FROM users WHERE email=$1 AND role=$2`,
		email, role).Scan(&u.ID, &u.Role, &u.Name, &u.Email, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, apperr.ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, apperr.ErrNotFound
	}
	return u, nil
}
