// Package auth implements admin and end-user authentication on top of the
// session codec and the record store.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/pixelwork/pixelwork/internal/httperr"
	"github.com/pixelwork/pixelwork/internal/models"
	"github.com/pixelwork/pixelwork/internal/security"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service performs identity-bound operations against the record store.
type Service struct {
	db    *gorm.DB
	codec *security.Codec
}

// NewService constructs a Service.
func NewService(db *gorm.DB, codec *security.Codec) *Service {
	return &Service{db: db, codec: codec}
}

// AdminLoginResult carries the outcome of an admin login attempt.
type AdminLoginResult struct {
	Token        string
	Bootstrapped bool
}

// BootstrapOrLoginAdmin authenticates the admin account, creating it from the
// supplied password if none exists yet. The first successful call with any
// password becomes the permanent admin password. The creation path is guarded
// by the singleton unique index: a losing racer falls through to comparison
// against the winner's hash.
func (s *Service) BootstrapOrLoginAdmin(ctx context.Context, password string) (AdminLoginResult, error) {
	admin, errFind := s.findAdmin(ctx)
	if errFind != nil && !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return AdminLoginResult{}, errFind
	}

	bootstrapped := false
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		hashed, errHash := security.HashPassword(password)
		if errHash != nil {
			return AdminLoginResult{}, errHash
		}
		row := models.AdminConfig{Slot: 1, PasswordHash: hashed}
		errCreate := s.db.WithContext(ctx).Create(&row).Error
		if errCreate == nil {
			bootstrapped = true
			admin = &row
		} else {
			// Lost the bootstrap race; compare against the stored hash.
			admin, errFind = s.findAdmin(ctx)
			if errFind != nil {
				return AdminLoginResult{}, errFind
			}
		}
	}

	if !bootstrapped && !security.CheckPassword(admin.PasswordHash, password) {
		return AdminLoginResult{}, httperr.Unauthorized("invalid password")
	}

	token, errSign := s.codec.Sign(security.AudienceAdmin, "admin", security.AdminTokenTTL)
	if errSign != nil {
		return AdminLoginResult{}, errSign
	}
	return AdminLoginResult{Token: token, Bootstrapped: bootstrapped}, nil
}

// UpdateAdminPassword replaces the stored admin hash after verifying the
// current password. Already-issued admin tokens stay valid until their
// natural expiry.
func (s *Service) UpdateAdminPassword(ctx context.Context, current, next string) error {
	admin, errFind := s.findAdmin(ctx)
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return httperr.NotFound("admin account not found")
	}
	if errFind != nil {
		return errFind
	}
	if !security.CheckPassword(admin.PasswordHash, current) {
		return httperr.Unauthorized("current password incorrect")
	}

	hashed, errHash := security.HashPassword(next)
	if errHash != nil {
		return errHash
	}
	return s.db.WithContext(ctx).Model(&models.AdminConfig{}).
		Where("id = ?", admin.ID).
		Updates(map[string]any{
			"password_hash": hashed,
			"updated_at":    time.Now().UTC(),
		}).Error
}

// findAdmin loads the canonical admin row, lowest ID first.
func (s *Service) findAdmin(ctx context.Context) (*models.AdminConfig, error) {
	var admin models.AdminConfig
	if errFind := s.db.WithContext(ctx).Order("id ASC").First(&admin).Error; errFind != nil {
		return nil, errFind
	}
	return &admin, nil
}

// LoginUserWithKey authenticates an end user by access key and issues a user
// session token bound to the key's ID. An unknown key and a known key with a
// mismatched plaintext are deliberately indistinguishable to the caller.
func (s *Service) LoginUserWithKey(ctx context.Context, plainKey string) (string, *models.UserKey, error) {
	keyID := security.HashForLookup(plainKey)

	var user models.UserKey
	errFind := s.db.WithContext(ctx).Where("key_id = ?", keyID).First(&user).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return "", nil, httperr.Unauthorized("invalid key")
	}
	if errFind != nil {
		return "", nil, errFind
	}
	if !user.IsActive {
		return "", nil, httperr.Forbidden("user disabled")
	}
	if !security.CheckPassword(user.Key, plainKey) {
		return "", nil, httperr.Unauthorized("invalid key")
	}

	token, errSign := s.codec.Sign(security.AudienceUser, strconv.FormatUint(user.ID, 10), security.UserTokenTTL)
	if errSign != nil {
		return "", nil, errSign
	}
	return token, &user, nil
}

// RequireUser resolves and verifies a user session from the request, then
// re-fetches the key so post-issuance deactivation or deletion takes effect
// immediately. This re-check is the only revocation mechanism for otherwise
// stateless tokens.
func (s *Service) RequireUser(ctx context.Context, r *http.Request) (*models.UserKey, error) {
	claims, errSession := s.requireSession(r, security.UserSessionCookie, security.AudienceUser)
	if errSession != nil {
		return nil, errSession
	}

	id, errParse := strconv.ParseUint(claims.Subject, 10, 64)
	if errParse != nil {
		return nil, httperr.Unauthorized("invalid session token")
	}

	var user models.UserKey
	errFind := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, httperr.Unauthorized("user not found")
	}
	if errFind != nil {
		return nil, errFind
	}
	if !user.IsActive {
		return nil, httperr.Forbidden("user disabled")
	}
	return &user, nil
}

// RequireAdmin resolves and verifies an admin session from the request.
func (s *Service) RequireAdmin(r *http.Request) error {
	_, errSession := s.requireSession(r, security.AdminSessionCookie, security.AudienceAdmin)
	return errSession
}

// requireSession extracts and verifies a token for the expected audience.
func (s *Service) requireSession(r *http.Request, cookieName, audience string) (security.SessionClaims, error) {
	token := security.TokenFromRequest(r, cookieName)
	if token == "" {
		return security.SessionClaims{}, httperr.Unauthorized("missing session token")
	}
	claims, errVerify := s.codec.Verify(token)
	if errVerify != nil {
		return security.SessionClaims{}, httperr.Unauthorized("invalid session token")
	}
	if claims.Type != audience {
		return security.SessionClaims{}, httperr.Forbidden("forbidden")
	}
	return claims, nil
}

// CreateUserKey issues a new access key. When plainKey is empty a random
// high-entropy secret is generated and returned once without a recoverable
// copy; an admin-supplied plaintext is persisted for later re-display. Key
// material must be globally unique across all users.
func (s *Service) CreateUserKey(ctx context.Context, name, plainKey string) (*models.UserKey, string, error) {
	generated := plainKey == ""
	if generated {
		secret, errGenerate := security.GenerateUserKeySecret()
		if errGenerate != nil {
			return nil, "", errGenerate
		}
		plainKey = secret
	}

	keyID := security.HashForLookup(plainKey)
	var existing models.UserKey
	errFind := s.db.WithContext(ctx).Select("id").Where("key_id = ?", keyID).First(&existing).Error
	if errFind == nil {
		return nil, "", httperr.BadRequest("key already exists")
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, "", errFind
	}

	hashed, errHash := security.HashPassword(plainKey)
	if errHash != nil {
		return nil, "", errHash
	}

	row := models.UserKey{
		Name:     name,
		KeyID:    keyID,
		Key:      hashed,
		IsActive: true,
	}
	if !generated {
		row.PlainKey = plainKey
	}
	if errCreate := s.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		return nil, "", errCreate
	}
	return &row, plainKey, nil
}

// UserKeyUpdate holds the optional fields of a user key edit.
type UserKeyUpdate struct {
	Name     *string
	PlainKey *string
	IsActive *bool
}

// UpdateUserKey applies a partial edit to a user key. Replacing the key
// material recomputes both hashes and the recoverable copy.
func (s *Service) UpdateUserKey(ctx context.Context, id uint64, update UserKeyUpdate) (*models.UserKey, error) {
	changes := map[string]any{}
	if update.Name != nil {
		changes["name"] = *update.Name
	}
	if update.IsActive != nil {
		changes["is_active"] = *update.IsActive
	}
	if update.PlainKey != nil {
		keyID := security.HashForLookup(*update.PlainKey)

		var existing models.UserKey
		errFind := s.db.WithContext(ctx).Select("id").Where("key_id = ? AND id <> ?", keyID, id).First(&existing).Error
		if errFind == nil {
			return nil, httperr.BadRequest("key already exists")
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, errFind
		}

		hashed, errHash := security.HashPassword(*update.PlainKey)
		if errHash != nil {
			return nil, errHash
		}
		changes["key_id"] = keyID
		changes["key"] = hashed
		changes["plain_key"] = *update.PlainKey
	}
	if len(changes) == 0 {
		return nil, httperr.BadRequest("no fields to update")
	}
	changes["updated_at"] = time.Now().UTC()

	res := s.db.WithContext(ctx).Model(&models.UserKey{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, httperr.NotFound("user not found")
	}

	var user models.UserKey
	if errFind := s.db.WithContext(ctx).First(&user, id).Error; errFind != nil {
		return nil, errFind
	}
	return &user, nil
}

// DeleteUserKey removes a user key and its usage rows. The delete is hard and
// irreversible.
func (s *Service) DeleteUserKey(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.UserKey{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return httperr.NotFound("user not found")
		}
		return tx.Where("user_id = ?", id).Delete(&models.UserUsage{}).Error
	})
}

// GenerationUsage reports a user's counters after a recorded generation.
type GenerationUsage struct {
	UsageCount int64
	LastUsedAt time.Time
}

// RecordGeneration increments the user's usage counter and upserts the
// per-model usage row as one atomic unit.
func (s *Service) RecordGeneration(ctx context.Context, userID uint64, modelName string) (GenerationUsage, error) {
	now := time.Now().UTC()
	var usage GenerationUsage
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.UserKey{}).
			Where("id = ?", userID).
			Updates(map[string]any{
				"usage_count":  gorm.Expr("usage_count + 1"),
				"last_used_at": now,
				"updated_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return httperr.NotFound("user not found")
		}

		if errUpsert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "model_name"}},
			DoUpdates: clause.Assignments(map[string]any{
				"count":      gorm.Expr("count + 1"),
				"updated_at": now,
			}),
		}).Create(&models.UserUsage{
			UserID:    userID,
			ModelName: modelName,
			Count:     1,
			CreatedAt: now,
			UpdatedAt: now,
		}).Error; errUpsert != nil {
			return errUpsert
		}

		var user models.UserKey
		if errFind := tx.Select("usage_count", "last_used_at").First(&user, userID).Error; errFind != nil {
			return errFind
		}
		usage = GenerationUsage{UsageCount: user.UsageCount, LastUsedAt: now}
		return nil
	})
	if errTx != nil {
		return GenerationUsage{}, errTx
	}
	return usage, nil
}

// ListUserKeys returns all user keys with their per-model usage rows, newest
// first.
func (s *Service) ListUserKeys(ctx context.Context) ([]models.UserKey, error) {
	var users []models.UserKey
	if errFind := s.db.WithContext(ctx).
		Preload("Usages").
		Order("created_at DESC").
		Find(&users).Error; errFind != nil {
		return nil, errFind
	}
	return users, nil
}
