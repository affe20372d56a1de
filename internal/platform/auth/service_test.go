package auth

import (
	"context"
	"database/sql"
	"testing"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"LIBRA-backend/internal/platform/apierr"
)

type fakeUserStore struct {
	nextID int64
	users  []*User
}

func newFakeUserStore() *fakeUserStore { return &fakeUserStore{nextID: 1} }

func (f *fakeUserStore) seed(email, name, password string, admin, deleted bool) *User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &User{
		UserID:       f.nextID,
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		IsAdmin:      admin,
		IsDeleted:    deleted,
	}
	f.nextID++
	f.users = append(f.users, u)
	return u
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*User, error) {
	for _, u := range f.users {
		if u.UserID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) Create(_ context.Context, u *User) error {
	// uq_user_email: 退会済みの行もユニークキーを握ったまま
	for _, x := range f.users {
		if x.Email == u.Email {
			return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
		}
	}
	u.UserID = f.nextID
	f.nextID++
	cp := *u
	f.users = append(f.users, &cp)
	return nil
}

func (f *fakeUserStore) Revive(_ context.Context, u *User) error {
	for _, x := range f.users {
		if x.Email == u.Email && x.IsDeleted {
			x.Name = u.Name
			x.PasswordHash = u.PasswordHash
			x.IsAdmin = u.IsAdmin
			x.IsDeleted = false
			return nil
		}
	}
	return sql.ErrNoRows
}

var testSecret = []byte("test-secret")

func newTestService(store UserStore) *Service {
	return &Service{store: store, secret: testSecret}
}

func assertCode(t *testing.T, err error, code apierr.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apierr.From(err).Code)
}

func TestLogin(t *testing.T) {
	f := newFakeUserStore()
	f.seed("taro@example.com", "太郎", "correct-horse", false, false)
	f.seed("gone@example.com", "退会済み", "whatever", false, true)
	svc := newTestService(f)
	ctx := context.Background()

	t.Run("issues verifiable token", func(t *testing.T) {
		tokenStr, err := svc.Login(ctx, "taro@example.com", "correct-horse")
		require.NoError(t, err)

		token, err := jwt.Parse(tokenStr, func(*jwt.Token) (any, error) { return testSecret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		require.NoError(t, err)
		claims := token.Claims.(jwt.MapClaims)
		assert.Equal(t, "1", claims["sub"])
		assert.Equal(t, "太郎", claims["name"])
		assert.Equal(t, false, claims["admin"])
	})

	// 未登録・削除済み・パスワード不一致は区別がつかないこと
	t.Run("failures look identical", func(t *testing.T) {
		for _, tc := range []struct{ email, password string }{
			{"nobody@example.com", "correct-horse"},
			{"gone@example.com", "whatever"},
			{"taro@example.com", "wrong-password"},
		} {
			_, err := svc.Login(ctx, tc.email, tc.password)
			require.Error(t, err)
			api := apierr.From(err)
			assert.Equal(t, apierr.CodeUnauthenticated, api.Code)
			assert.Equal(t, "authentication failed", api.Message)
		}
	})
}

func TestRegister(t *testing.T) {
	f := newFakeUserStore()
	f.seed("taro@example.com", "太郎", "pw", false, false)
	f.seed("old@example.com", "退会済み", "pw", false, true)
	svc := newTestService(f)
	ctx := context.Background()

	t.Run("missing fields rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, "", "a@example.com", "pw")
		assertCode(t, err, apierr.CodeInvalidArgument)
		_, err = svc.Register(ctx, "花子", "  ", "pw")
		assertCode(t, err, apierr.CodeInvalidArgument)
		_, err = svc.Register(ctx, "花子", "a@example.com", "")
		assertCode(t, err, apierr.CodeInvalidArgument)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := svc.Register(ctx, "別人", "taro@example.com", "pw")
		assertCode(t, err, apierr.CodeConflict)
	})

	t.Run("creates non-admin with hashed password", func(t *testing.T) {
		u, err := svc.Register(ctx, "花子", "hanako@example.com", "s3cret")
		require.NoError(t, err)
		assert.NotZero(t, u.UserID)
		assert.False(t, u.IsAdmin)
		assert.NotEqual(t, "s3cret", u.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret")))

		// 登録直後にログインできる
		_, err = svc.Login(ctx, "hanako@example.com", "s3cret")
		assert.NoError(t, err)
	})

	// email のユニークキーは退会済みの行も握ったままなので、
	// 再登録はINSERTの1062ではなく復活で成功すること
	t.Run("deleted user's email is revived not conflicted", func(t *testing.T) {
		oldID := f.users[1].UserID

		u, err := svc.Register(ctx, "復帰者", "old@example.com", "new-pw")
		require.NoError(t, err)
		assert.Equal(t, oldID, u.UserID)
		assert.False(t, u.IsAdmin)

		// 新しいパスワードでログインでき、古いパスワードでは入れない
		_, err = svc.Login(ctx, "old@example.com", "new-pw")
		assert.NoError(t, err)
		_, err = svc.Login(ctx, "old@example.com", "pw")
		assertCode(t, err, apierr.CodeUnauthenticated)
	})
}

// 存在チェックの後、INSERTの前に同じメールアドレスの登録が先に入った場合。
// ユニークキー違反は 500 ではなく CONFLICT になること。
func TestRegisterLosesRace(t *testing.T) {
	f := newFakeUserStore()
	f.seed("taro@example.com", "太郎", "pw", false, false)
	svc := newTestService(&racingUserStore{fakeUserStore: f})

	_, err := svc.Register(context.Background(), "別人", "taro@example.com", "pw2")
	assertCode(t, err, apierr.CodeConflict)
}

// 存在チェックだけ空振りさせて、同時登録に負けた状況を作る
type racingUserStore struct{ *fakeUserStore }

func (r *racingUserStore) GetByEmail(context.Context, string) (*User, error) {
	return nil, nil
}

func TestActiveUser(t *testing.T) {
	f := newFakeUserStore()
	live := f.seed("taro@example.com", "太郎", "pw", true, false)
	gone := f.seed("old@example.com", "退会済み", "pw", true, true)
	svc := newTestService(f)
	ctx := context.Background()

	u, err := svc.ActiveUser(ctx, live.UserID)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, u.IsAdmin)

	u, err = svc.ActiveUser(ctx, gone.UserID)
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = svc.ActiveUser(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, u)
}
