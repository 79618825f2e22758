package sqlite

import (
	"context"
	"errors"

	"github.com/frahmantamala/filehub/internal/auth"
	userDatamodel "github.com/frahmantamala/filehub/internal/core/datamodel/user"
	"github.com/frahmantamala/filehub/internal/database"
	"gorm.io/gorm"
)

type AuthRepository struct {
	conns database.Conns
}

func NewAuthRepository(conns database.Conns) *AuthRepository {
	return &AuthRepository{conns: conns}
}

func (r *AuthRepository) GetCredentials(ctx context.Context, username string) (*auth.Credentials, error) {
	db, release, err := r.conns.Conn(ctx, database.Users)
	if err != nil {
		return nil, err
	}
	defer release()

	var u userDatamodel.User
	err = db.Select("id", "username", "password_hash", "user_role", "department").
		Where("username = ?", username).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &auth.Credentials{
		UserID:       u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Department:   u.Department,
	}, nil
}

// CurrentRole reads the role stored for userID; found is false once the
// account is gone.
func (r *AuthRepository) CurrentRole(ctx context.Context, userID int64) (string, bool, error) {
	db, release, err := r.conns.Conn(ctx, database.Users)
	if err != nil {
		return "", false, err
	}
	defer release()

	var u userDatamodel.User
	err = db.Select("id", "user_role").Where("id = ?", userID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return u.Role, true, nil
}
