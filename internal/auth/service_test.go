package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixelwork/pixelwork/internal/db"
	"github.com/pixelwork/pixelwork/internal/httperr"
	"github.com/pixelwork/pixelwork/internal/security"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	conn, errOpen := db.Open("file:" + filepath.Join(t.TempDir(), "pw-test.db"))
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	codec, errCodec := security.NewCodec("test-secret")
	if errCodec != nil {
		t.Fatalf("new codec: %v", errCodec)
	}
	return NewService(conn, codec)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var httpErr *httperr.Error
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected httperr.Error, got %v", err)
	}
	return httpErr.Status
}

func TestBootstrapOrLoginAdmin_FirstCallSetsPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, errFirst := svc.BootstrapOrLoginAdmin(ctx, "initial-pass")
	if errFirst != nil {
		t.Fatalf("bootstrap: %v", errFirst)
	}
	if !first.Bootstrapped {
		t.Fatalf("expected first login to bootstrap")
	}
	if first.Token == "" {
		t.Fatalf("expected a signed token")
	}

	if _, errWrong := svc.BootstrapOrLoginAdmin(ctx, "different-pass"); statusOf(t, errWrong) != 401 {
		t.Fatalf("expected 401 for wrong password after bootstrap")
	}

	again, errAgain := svc.BootstrapOrLoginAdmin(ctx, "initial-pass")
	if errAgain != nil {
		t.Fatalf("login after bootstrap: %v", errAgain)
	}
	if again.Bootstrapped {
		t.Fatalf("expected second login to not re-bootstrap")
	}
}

func TestUpdateAdminPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if errNone := svc.UpdateAdminPassword(ctx, "a", "b"); statusOf(t, errNone) != 404 {
		t.Fatalf("expected 404 before bootstrap")
	}

	if _, errBoot := svc.BootstrapOrLoginAdmin(ctx, "old-pass"); errBoot != nil {
		t.Fatalf("bootstrap: %v", errBoot)
	}
	if errWrong := svc.UpdateAdminPassword(ctx, "bad", "new-pass"); statusOf(t, errWrong) != 401 {
		t.Fatalf("expected 401 for wrong current password")
	}
	if errUpdate := svc.UpdateAdminPassword(ctx, "old-pass", "new-pass"); errUpdate != nil {
		t.Fatalf("update password: %v", errUpdate)
	}
	if _, errOld := svc.BootstrapOrLoginAdmin(ctx, "old-pass"); statusOf(t, errOld) != 401 {
		t.Fatalf("expected old password rejected after change")
	}
	if _, errNew := svc.BootstrapOrLoginAdmin(ctx, "new-pass"); errNew != nil {
		t.Fatalf("expected new password accepted, got %v", errNew)
	}
}

func TestLoginUserWithKey_AmbiguousFailures(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, secret, errCreate := svc.CreateUserKey(ctx, "Alice", "")
	if errCreate != nil {
		t.Fatalf("create user key: %v", errCreate)
	}

	if _, _, errUnknown := svc.LoginUserWithKey(ctx, "uk_live_unknown"); statusOf(t, errUnknown) != 401 {
		t.Fatalf("expected 401 for unknown key")
	}

	token, logged, errLogin := svc.LoginUserWithKey(ctx, secret)
	if errLogin != nil {
		t.Fatalf("login: %v", errLogin)
	}
	if token == "" || logged.ID != user.ID {
		t.Fatalf("unexpected login result token=%q id=%d", token, logged.ID)
	}

	inactive := false
	if _, errDisable := svc.UpdateUserKey(ctx, user.ID, UserKeyUpdate{IsActive: &inactive}); errDisable != nil {
		t.Fatalf("disable: %v", errDisable)
	}
	if _, _, errDisabled := svc.LoginUserWithKey(ctx, secret); statusOf(t, errDisabled) != 403 {
		t.Fatalf("expected 403 for disabled user")
	}
}

func TestCreateUserKey_DuplicateRejected(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, _, errCreate := svc.CreateUserKey(ctx, "Alice", "shared-key"); errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	if _, _, errDup := svc.CreateUserKey(ctx, "Bob", "shared-key"); statusOf(t, errDup) != 400 {
		t.Fatalf("expected 400 for duplicate key material")
	}
}

func TestCreateUserKey_RecoverableVariants(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	generated, secret, errGenerated := svc.CreateUserKey(ctx, "Alice", "")
	if errGenerated != nil {
		t.Fatalf("create generated: %v", errGenerated)
	}
	if generated.PlainKey != "" {
		t.Fatalf("expected generated secret to not be persisted recoverable")
	}
	if secret == "" {
		t.Fatalf("expected generated secret returned once")
	}

	supplied, echoed, errSupplied := svc.CreateUserKey(ctx, "Bob", "bob-custom-key")
	if errSupplied != nil {
		t.Fatalf("create supplied: %v", errSupplied)
	}
	if supplied.PlainKey != "bob-custom-key" || echoed != "bob-custom-key" {
		t.Fatalf("expected supplied key persisted recoverable, got %q", supplied.PlainKey)
	}
}

func TestRequireUser_AudienceIsolationAndRevocation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, secret, errCreate := svc.CreateUserKey(ctx, "Alice", "")
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	userToken, _, errLogin := svc.LoginUserWithKey(ctx, secret)
	if errLogin != nil {
		t.Fatalf("login: %v", errLogin)
	}

	req := httptest.NewRequest("GET", "/models", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	resolved, errRequire := svc.RequireUser(ctx, req)
	if errRequire != nil {
		t.Fatalf("require user: %v", errRequire)
	}
	if resolved.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, resolved.ID)
	}

	// A valid admin token must not pass user checks, and vice versa.
	adminLogin, errBoot := svc.BootstrapOrLoginAdmin(ctx, "admin-pass")
	if errBoot != nil {
		t.Fatalf("bootstrap: %v", errBoot)
	}
	crossReq := httptest.NewRequest("GET", "/models", nil)
	crossReq.Header.Set("Authorization", "Bearer "+adminLogin.Token)
	if _, errCross := svc.RequireUser(ctx, crossReq); statusOf(t, errCross) != 403 {
		t.Fatalf("expected 403 for admin token on user check")
	}
	userAsAdmin := httptest.NewRequest("GET", "/admin/users", nil)
	userAsAdmin.Header.Set("Authorization", "Bearer "+userToken)
	if errCross := svc.RequireAdmin(userAsAdmin); statusOf(t, errCross) != 403 {
		t.Fatalf("expected 403 for user token on admin check")
	}

	// Deactivation takes effect immediately even though the token is valid.
	inactive := false
	if _, errDisable := svc.UpdateUserKey(ctx, user.ID, UserKeyUpdate{IsActive: &inactive}); errDisable != nil {
		t.Fatalf("disable: %v", errDisable)
	}
	if _, errDisabled := svc.RequireUser(ctx, req); statusOf(t, errDisabled) != 403 {
		t.Fatalf("expected 403 after deactivation")
	}

	if errDelete := svc.DeleteUserKey(ctx, user.ID); errDelete != nil {
		t.Fatalf("delete: %v", errDelete)
	}
	if _, errGone := svc.RequireUser(ctx, req); statusOf(t, errGone) != 401 {
		t.Fatalf("expected 401 after deletion")
	}
}

func TestUpdateUserKey_ReplacesKeyMaterial(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, _, errCreate := svc.CreateUserKey(ctx, "Alice", "old-key")
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}

	newKey := "fresh-key"
	updated, errUpdate := svc.UpdateUserKey(ctx, user.ID, UserKeyUpdate{PlainKey: &newKey})
	if errUpdate != nil {
		t.Fatalf("update: %v", errUpdate)
	}
	if updated.KeyID != security.HashForLookup(newKey) {
		t.Fatalf("expected lookup hash recomputed")
	}
	if _, _, errOld := svc.LoginUserWithKey(ctx, "old-key"); statusOf(t, errOld) != 401 {
		t.Fatalf("expected old key rejected")
	}
	if _, _, errNew := svc.LoginUserWithKey(ctx, newKey); errNew != nil {
		t.Fatalf("expected new key accepted, got %v", errNew)
	}

	if _, errEmpty := svc.UpdateUserKey(ctx, user.ID, UserKeyUpdate{}); statusOf(t, errEmpty) != 400 {
		t.Fatalf("expected 400 for empty update")
	}
}

func TestRecordGeneration_AtomicCounters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, _, errCreate := svc.CreateUserKey(ctx, "Alice", "alice-key")
	if errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}

	usage, errRecord := svc.RecordGeneration(ctx, user.ID, "Nano Banana")
	if errRecord != nil {
		t.Fatalf("record: %v", errRecord)
	}
	if usage.UsageCount != 1 {
		t.Fatalf("expected usage count 1, got %d", usage.UsageCount)
	}
	if usage.LastUsedAt.IsZero() || time.Since(usage.LastUsedAt) > time.Minute {
		t.Fatalf("unexpected last used at %v", usage.LastUsedAt)
	}

	if _, errAgain := svc.RecordGeneration(ctx, user.ID, "Nano Banana"); errAgain != nil {
		t.Fatalf("record again: %v", errAgain)
	}
	if _, errOther := svc.RecordGeneration(ctx, user.ID, "Other Model"); errOther != nil {
		t.Fatalf("record other: %v", errOther)
	}

	users, errList := svc.ListUserKeys(ctx)
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(users) != 1 {
		t.Fatalf("expected one user, got %d", len(users))
	}
	if users[0].UsageCount != 3 {
		t.Fatalf("expected usage count 3, got %d", users[0].UsageCount)
	}
	counts := map[string]int64{}
	for _, row := range users[0].Usages {
		counts[row.ModelName] = row.Count
	}
	if counts["Nano Banana"] != 2 || counts["Other Model"] != 1 {
		t.Fatalf("unexpected per-model counts %v", counts)
	}
}
