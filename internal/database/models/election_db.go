package db_models

import "time"

type ElectionDB struct {
	Id           uint64    `gorm:"primaryKey;column:id;autoIncrement"`
	Title        string    `gorm:"column:title;not null"`
	Description  string    `gorm:"column:description;not null"`
	StartTime    time.Time `gorm:"column:start_time;not null"`
	EndTime      time.Time `gorm:"column:end_time;not null"`
	Blockchain   string    `gorm:"column:blockchain;not null;index:idx_elections_chain_id"`
	OnChainId    string    `gorm:"column:on_chain_id;index:idx_elections_chain_id"`
	MetadataHash string    `gorm:"column:metadata_hash"`
	CreatedBy    uint64    `gorm:"column:created_by;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	Approved     bool      `gorm:"column:approved;not null"`

	Candidates []CandidateDB `gorm:"foreignKey:ElectionId;references:Id;constraint:OnDelete:CASCADE"`
	Votes      []VoteDB      `gorm:"foreignKey:ElectionId;references:Id;constraint:OnDelete:CASCADE"`
}

func (ElectionDB) TableName() string {
	return "elections"
}
