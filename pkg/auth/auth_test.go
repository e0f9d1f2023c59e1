package auth

import (
	"testing"

	"github.com/arnavshah/allocation-api-go/pkg/database"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func TestHMACKeyRoundTrip(t *testing.T) {
	a := NewAuthenticator("jwt", "master")

	key := a.GenerateHMACKey("acme.pm")
	userID, err := a.VerifyHMACKey(key)
	if err != nil {
		t.Fatalf("VerifyHMACKey: %v", err)
	}
	if userID != "acme.pm" {
		t.Errorf("userID: want=%q got=%q", "acme.pm", userID)
	}

	other := NewAuthenticator("jwt", "different")
	if _, err := other.VerifyHMACKey(key); err == nil {
		t.Errorf("expected a key signed with another secret to fail")
	}
	for _, bad := range []string{"", "nodot", ".sig", "user."} {
		if _, err := a.VerifyHMACKey(bad); err == nil {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	a := NewAuthenticator("jwt-secret", "master")

	token, err := a.CreateToken("root", database.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	claims, err := a.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.Username != "root" || claims.Role != database.RoleAdmin {
		t.Errorf("unexpected claims %+v", claims)
	}

	if _, err := NewAuthenticator("other", "master").VerifyToken(token); err == nil {
		t.Errorf("expected token signed with another secret to fail")
	}
}

func TestEnsureAdminExists(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:auth_admin?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	a := NewAuthenticator("jwt", "master").WithBcryptCost(bcrypt.MinCost)
	created, err := a.EnsureAdminExists(db, "root", "s3cret")
	if err != nil || !created {
		t.Fatalf("EnsureAdminExists: created=%v err=%v", created, err)
	}
	created, err = a.EnsureAdminExists(db, "root", "s3cret")
	if err != nil || created {
		t.Fatalf("second EnsureAdminExists: created=%v err=%v", created, err)
	}

	var user database.MasterUser
	if err := db.Where("username = ?", "root").First(&user).Error; err != nil {
		t.Fatalf("load admin: %v", err)
	}
	if !CheckPasswordHash("s3cret", user.PasswordHash) {
		t.Errorf("stored hash does not match password")
	}
	if user.Role != database.RoleAdmin {
		t.Errorf("role: want=%q got=%q", database.RoleAdmin, user.Role)
	}
}
