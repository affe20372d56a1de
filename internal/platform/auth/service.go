package auth

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"LIBRA-backend/internal/platform/apierr"
)

const tokenTTL = 24 * time.Hour

type Service struct {
	store  UserStore
	secret []byte
}

func NewService(db *sql.DB, secret []byte) *Service {
	return &Service{store: NewStore(db), secret: secret}
}

// Login: メールアドレスとパスワードを検証してJWTを発行する。
// 未登録・削除済み・パスワード不一致はすべて同じエラーにする（列挙攻撃対策）。
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if u == nil || u.IsDeleted {
		return "", apierr.ErrUnauth("authentication failed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", apierr.ErrUnauth("authentication failed")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   strconv.FormatInt(u.UserID, 10),
		"name":  u.Name,
		"admin": u.IsAdmin,
		"exp":   time.Now().Add(tokenTTL).Unix(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

func (s *Service) Register(ctx context.Context, name, email, password string) (*User, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, apierr.ErrInvalid("name, email, password are required")
	}

	exists, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists != nil && !exists.IsDeleted {
		return nil, apierr.ErrConflict("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		IsAdmin:      false,
	}

	if exists != nil {
		// 退会済みの行が email のユニーク制約を握ったままなので、
		// 再INSERTではなく上書きして復活させる。権限は引き継がない。
		u.UserID = exists.UserID
		if err := s.store.Revive(ctx, u); err != nil {
			return nil, err
		}
		return u, nil
	}

	if err := s.store.Create(ctx, u); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 { // 同時登録に負けた
			return nil, apierr.ErrConflict("email already registered")
		}
		return nil, err
	}
	return u, nil
}

// ActiveUser: トークンの裏取り用。削除済みユーザーは存在しない扱い。
func (s *Service) ActiveUser(ctx context.Context, id int64) (*User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil || u.IsDeleted {
		return nil, nil
	}
	return u, nil
}
