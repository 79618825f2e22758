package sqlite

import (
	"context"
	"errors"

	departmentDatamodel "github.com/frahmantamala/filehub/internal/core/datamodel/department"
	"github.com/frahmantamala/filehub/internal/database"
	"github.com/frahmantamala/filehub/internal/department"
	"gorm.io/gorm"
)

type DepartmentRepository struct {
	conns database.Conns
}

func NewDepartmentRepository(conns database.Conns) department.RepositoryAPI {
	return &DepartmentRepository{conns: conns}
}

func (r *DepartmentRepository) GetAll(ctx context.Context) ([]*departmentDatamodel.Department, error) {
	db, release, err := r.conns.Conn(ctx, database.Users)
	if err != nil {
		return nil, err
	}
	defer release()

	var departments []*departmentDatamodel.Department
	err = db.Order("name ASC").Find(&departments).Error
	return departments, err
}

func (r *DepartmentRepository) GetByName(ctx context.Context, name string) (*departmentDatamodel.Department, error) {
	db, release, err := r.conns.Conn(ctx, database.Users)
	if err != nil {
		return nil, err
	}
	defer release()

	var d departmentDatamodel.Department
	err = db.Where("name = ?", name).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}
