package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type User struct {
	UserID       int64
	Email        string
	Name         string
	PasswordHash string
	IsAdmin      bool
	IsDeleted    bool
	CreatedAt    time.Time
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, u *User) error
	Revive(ctx context.Context, u *User) error
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) UserStore {
	return &Store{db: db}
}

// 見つからない場合は (nil, nil) を返す
func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	const q = `
SELECT user_id, email, name, password_hash, is_admin, is_deleted, created_at
FROM user
WHERE email = ?
LIMIT 1
`
	return s.scanOne(s.db.QueryRowContext(ctx, q, email))
}

func (s *Store) GetByID(ctx context.Context, id int64) (*User, error) {
	const q = `
SELECT user_id, email, name, password_hash, is_admin, is_deleted, created_at
FROM user
WHERE user_id = ?
LIMIT 1
`
	return s.scanOne(s.db.QueryRowContext(ctx, q, id))
}

func (s *Store) Create(ctx context.Context, u *User) error {
	const q = `
INSERT INTO user (email, name, password_hash, is_admin, is_deleted, created_at)
VALUES (?, ?, ?, ?, 0, NOW(6))
`
	res, err := s.db.ExecContext(ctx, q, u.Email, u.Name, u.PasswordHash, u.IsAdmin)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.UserID = id
	return nil
}

// Revive: 退会済みの行を新しい内容で上書きして復活させる。
// email にユニーク制約があるので、同じメールアドレスの再登録はINSERTではなくこちらを通る。
func (s *Store) Revive(ctx context.Context, u *User) error {
	const q = `
UPDATE user
SET name = ?, password_hash = ?, is_admin = ?, is_deleted = 0, created_at = NOW(6)
WHERE email = ? AND is_deleted = 1
`
	res, err := s.db.ExecContext(ctx, q, u.Name, u.PasswordHash, u.IsAdmin, u.Email)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) scanOne(row *sql.Row) (*User, error) {
	var u User
	var isAdminInt, isDeletedInt int
	err := row.Scan(
		&u.UserID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&isAdminInt,
		&isDeletedInt,
		&u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.IsAdmin = isAdminInt != 0
	u.IsDeleted = isDeletedInt != 0
	return &u, nil
}
