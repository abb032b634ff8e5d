package db_models

import "time"

type UserDB struct {
	Id            uint64    `gorm:"primaryKey;column:id;autoIncrement"`
	Email         string    `gorm:"column:email;not null;uniqueIndex"`
	Username      string    `gorm:"column:username;not null"`
	PasswordHash  []byte    `gorm:"column:password_hash;not null"`
	Role          string    `gorm:"column:role;not null"`
	WalletAddress string    `gorm:"column:wallet_address"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`

	Elections  []ElectionDB  `gorm:"foreignKey:CreatedBy;references:Id;constraint:OnDelete:RESTRICT"`
	Candidates []CandidateDB `gorm:"foreignKey:UserId;references:Id;constraint:OnDelete:CASCADE"`
	Votes      []VoteDB      `gorm:"foreignKey:VoterId;references:Id;constraint:OnDelete:CASCADE"`
}

func (UserDB) TableName() string {
	return "users"
}
