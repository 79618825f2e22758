package sqlite

import (
	"context"
	"errors"
	"strings"

	filemodel "github.com/frahmantamala/filehub/internal/core/datamodel/file"
	"github.com/frahmantamala/filehub/internal/database"
	"github.com/frahmantamala/filehub/internal/file"
	"gorm.io/gorm"
)

type FileRepository struct {
	conns database.Conns
}

func NewFileRepository(conns database.Conns) file.Repository {
	return &FileRepository{conns: conns}
}

// txConns pins every lookup to one open transaction.
type txConns struct {
	tx *gorm.DB
}

func (c txConns) Conn(ctx context.Context, _ database.Name) (*gorm.DB, func(), error) {
	return c.tx.WithContext(ctx), func() {}, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return file.ErrDuplicateName
	}
	return err
}

func (r *FileRepository) Create(ctx context.Context, f *filemodel.File) error {
	db, release, err := r.conns.Conn(ctx, database.Files)
	if err != nil {
		return err
	}
	defer release()

	return translate(db.Create(f).Error)
}

func (r *FileRepository) GetByID(ctx context.Context, id int64) (*filemodel.File, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *FileRepository) GetByName(ctx context.Context, name string) (*filemodel.File, error) {
	return r.first(ctx, "file_name = ?", name)
}

func (r *FileRepository) first(ctx context.Context, query string, arg interface{}) (*filemodel.File, error) {
	db, release, err := r.conns.Conn(ctx, database.Files)
	if err != nil {
		return nil, err
	}
	defer release()

	var f filemodel.File
	if err := db.Where(query, arg).First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func (r *FileRepository) NameExists(ctx context.Context, name string) (bool, error) {
	db, release, err := r.conns.Conn(ctx, database.Files)
	if err != nil {
		return false, err
	}
	defer release()

	var count int64
	err = db.Model(&filemodel.File{}).Where("file_name = ?", name).Count(&count).Error
	return count > 0, err
}

// List applies department equality and a literal file name substring match.
func (r *FileRepository) List(ctx context.Context, filter file.ListFilter) ([]*filemodel.File, error) {
	db, release, err := r.conns.Conn(ctx, database.Files)
	if err != nil {
		return nil, err
	}
	defer release()

	query := db.Model(&filemodel.File{})
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.Search != "" {
		query = query.Where(`file_name LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(filter.Search)+"%")
	}

	var files []*filemodel.File
	err = query.Order("created_at DESC").Order("id DESC").Find(&files).Error
	return files, err
}

func (r *FileRepository) Update(ctx context.Context, f *filemodel.File) error {
	db, release, err := r.conns.Conn(ctx, database.Files)
	if err != nil {
		return err
	}
	defer release()

	return translate(db.Save(f).Error)
}

func (r *FileRepository) Delete(ctx context.Context, id int64) (bool, error) {
	db, release, err := r.conns.Conn(ctx, database.Files)
	if err != nil {
		return false, err
	}
	defer release()

	result := db.Delete(&filemodel.File{}, id)
	return result.RowsAffected > 0, result.Error
}

func (r *FileRepository) Transaction(ctx context.Context, fn func(tx file.Repository) error) error {
	db, release, err := r.conns.Conn(ctx, database.Files)
	if err != nil {
		return err
	}
	defer release()

	return db.Transaction(func(tx *gorm.DB) error {
		return fn(&FileRepository{conns: txConns{tx: tx}})
	})
}
