package models

import "time"

type Election struct {
	Id           uint64
	Title        string
	Description  string
	StartTime    time.Time
	EndTime      time.Time
	Blockchain   Blockchain
	OnChainId    string //backend specific, set only after ledger confirmation
	MetadataHash string //content hash of the election metadata blob
	CreatedBy    uint64
	CreatedAt    time.Time
	Approved     bool
}

// Usable reports whether the election may be exposed through the read
// API. An election without an on-chain id failed mid-creation and must
// stay invisible.
func (election *Election) Usable() bool {
	return election.OnChainId != "" && election.Approved
}

func (election *Election) IsActive(now time.Time) bool {
	return !now.Before(election.StartTime) && !now.After(election.EndTime)
}

// RegistrationOpen reports whether candidates may still register.
// The window closes the moment voting opens.
func (election *Election) RegistrationOpen(now time.Time) bool {
	return now.Before(election.StartTime)
}

func (election *Election) Ended(now time.Time) bool {
	return !now.Before(election.EndTime)
}

// ElectionMetadata is the immutable blob stored content-addressed at
// election creation.
type ElectionMetadata struct {
	Description string            `json:"description"`
	Rules       string            `json:"rules"`
	Options     map[string]string `json:"options"`
}
