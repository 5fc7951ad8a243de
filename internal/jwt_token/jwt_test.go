package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"

	id "satudata/pkg/domain"
	dErrors "satudata/pkg/domain-errors"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("test-key", "satudata", "satudata-admin")
	userID := id.UserID(uuid.New())

	token, err := svc.GenerateAccessToken(userID, id.RoleAdminEkonomi, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	gotUser, gotRole, err := claims.Identity()
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	if gotUser != userID || gotRole != id.RoleAdminEkonomi {
		t.Fatalf("claims round trip mismatch: %v %v", gotUser, gotRole)
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewJWTService("test-key", "satudata", "satudata-admin")
	token, err := svc.GenerateAccessToken(id.UserID(uuid.New()), id.RoleViewer, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	_, err = svc.ValidateToken(token)
	if !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
		t.Fatalf("expired token must be unauthorized, got %v", err)
	}
}

func TestValidateRejectsWrongKey(t *testing.T) {
	svc := NewJWTService("test-key", "satudata", "satudata-admin")
	other := NewJWTService("other-key", "satudata", "satudata-admin")

	token, err := svc.GenerateAccessToken(id.UserID(uuid.New()), id.RoleViewer, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	_, err = other.ValidateToken(token)
	if !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
		t.Fatalf("wrong key must be unauthorized, got %v", err)
	}
}

func TestIdentityRejectsUnknownRole(t *testing.T) {
	claims := &Claims{UserID: uuid.NewString(), Role: "editor"}
	if _, _, err := claims.Identity(); !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
		t.Fatalf("unknown role must be unauthorized, got %v", err)
	}
}
