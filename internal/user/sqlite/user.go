package sqlite

import (
	"context"
	"errors"

	userDatamodel "github.com/frahmantamala/filehub/internal/core/datamodel/user"
	"github.com/frahmantamala/filehub/internal/database"
	"github.com/frahmantamala/filehub/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	conns database.Conns
}

func NewUserRepository(conns database.Conns) user.Repository {
	return &UserRepository{conns: conns}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return user.ErrDuplicateUsername
	}
	return err
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	db, release, err := r.conns.Conn(ctx, database.Users)
	if err != nil {
		return err
	}
	defer release()

	return translate(db.Create(u).Error)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepository) first(ctx context.Context, query string, arg interface{}) (*userDatamodel.User, error) {
	db, release, err := r.conns.Conn(ctx, database.Users)
	if err != nil {
		return nil, err
	}
	defer release()

	var u userDatamodel.User
	err = db.Where(query, arg).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*userDatamodel.User, error) {
	db, release, err := r.conns.Conn(ctx, database.Users)
	if err != nil {
		return nil, err
	}
	defer release()

	var users []*userDatamodel.User
	err = db.Order("username ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) Update(ctx context.Context, u *userDatamodel.User) error {
	db, release, err := r.conns.Conn(ctx, database.Users)
	if err != nil {
		return err
	}
	defer release()

	return translate(db.Save(u).Error)
}

func (r *UserRepository) Delete(ctx context.Context, id int64) (bool, error) {
	db, release, err := r.conns.Conn(ctx, database.Users)
	if err != nil {
		return false, err
	}
	defer release()

	result := db.Delete(&userDatamodel.User{}, id)
	return result.RowsAffected > 0, result.Error
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	db, release, err := r.conns.Conn(ctx, database.Users)
	if err != nil {
		return 0, err
	}
	defer release()

	var count int64
	err = db.Model(&userDatamodel.User{}).Count(&count).Error
	return count, err
}
