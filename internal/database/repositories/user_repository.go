package repositories

import (
	"gorm.io/gorm"

	db_models "github.com/chainballot/chainballot/internal/database/models"
	mapping "github.com/chainballot/chainballot/internal/mapping"
	models "github.com/chainballot/chainballot/internal/models"
)

type UserRepository interface {
	Create(user *models.User) error
	GetById(id uint64) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
}

type UserRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepositoryImpl(db *gorm.DB) *UserRepositoryImpl {
	return &UserRepositoryImpl{db: db}
}

func (repo *UserRepositoryImpl) Create(user *models.User) error {
	userDB := mapping.UserToUserDB(user)

	if err := repo.db.Create(userDB).Error; err != nil {
		return translateError(err)
	}

	user.Id = userDB.Id
	user.CreatedAt = userDB.CreatedAt
	return nil
}

func (repo *UserRepositoryImpl) GetById(id uint64) (*models.User, error) {
	var userDB db_models.UserDB
	result := repo.db.Where("id = ?", id).First(&userDB)

	if result.Error != nil {
		return nil, translateError(result.Error)
	}

	return mapping.UserDBToUser(&userDB), nil
}

func (repo *UserRepositoryImpl) GetByEmail(email string) (*models.User, error) {
	var userDB db_models.UserDB
	result := repo.db.Where("email = ?", email).First(&userDB)

	if result.Error != nil {
		return nil, translateError(result.Error)
	}

	return mapping.UserDBToUser(&userDB), nil
}
