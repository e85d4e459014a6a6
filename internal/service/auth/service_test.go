package auth

import (
	"testing"

	"klav_chat_server/internal/config"
	"klav_chat_server/internal/dao"
	"klav_chat_server/pkg/errorx"
	myjwt "klav_chat_server/pkg/util/jwt"
)

func newService(t *testing.T) *Service {
	t.Helper()
	myjwt.Init("test-secret", 60, 168)
	repos, err := dao.Init(&config.StorageConfig{Backend: "file", StateDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = repos.Close() })
	return NewService(repos.User)
}

func TestRegisterDefaultsNicknameAndReportsDuplicates(t *testing.T) {
	svc := newService(t)

	resp, err := svc.Register("alice", "secret", "")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != "CREATED" {
		t.Fatalf("expected CREATED, got %s", resp.Status)
	}

	resp, err = svc.Register("alice", "other", "Alice2")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ALREADY" {
		t.Fatalf("expected ALREADY, got %s", resp.Status)
	}

	login, err := svc.Login("alice", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if login.Nickname != "alice" {
		t.Fatalf("nickname should default to the username, got %q", login.Nickname)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newService(t)
	if _, err := svc.Register("alice", "secret", "Alice"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login("alice", "wrong"); errorx.GetCode(err) != errorx.CodeUnauthorized {
		t.Fatalf("wrong password should be unauthorized, got %v", err)
	}
	if _, err := svc.Login("ghost", "secret"); errorx.GetCode(err) != errorx.CodeUnauthorized {
		t.Fatalf("unknown user should be unauthorized, got %v", err)
	}
}

func TestLoginMintsUsableTokenPair(t *testing.T) {
	svc := newService(t)
	if _, err := svc.Register("alice", "secret", "Alice"); err != nil {
		t.Fatal(err)
	}
	login, err := svc.Login("alice", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if login.TokenType != "Bearer" || login.AccessToken == "" || login.RefreshToken == "" {
		t.Fatalf("incomplete token pair: %+v", login)
	}

	claims, err := myjwt.ParseToken(login.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Username != "alice" || claims.Subject != "access_token" {
		t.Fatalf("unexpected access claims: %+v", claims)
	}
}

func TestRefreshRejectsAccessTokens(t *testing.T) {
	svc := newService(t)
	if _, err := svc.Register("alice", "secret", "Alice"); err != nil {
		t.Fatal(err)
	}
	login, err := svc.Login("alice", "secret")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Refresh(login.AccessToken); errorx.GetCode(err) != errorx.CodeUnauthorized {
		t.Fatalf("an access token must not refresh, got %v", err)
	}

	fresh, err := svc.Refresh(login.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.AccessToken == "" {
		t.Fatal("refresh should mint a new access token")
	}
}
