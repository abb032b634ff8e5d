package models

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleNone      Role = "none"
	RoleElector   Role = "elector"
	RoleCandidate Role = "candidate"
)

// ParseRole validates the mutually exclusive role flags. A user may hold
// the elector role, the candidate role, or neither, never both.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleNone, "":
		return RoleNone, nil
	case RoleElector:
		return RoleElector, nil
	case RoleCandidate:
		return RoleCandidate, nil
	}

	return "", fmt.Errorf("unknown role %q", s)
}

type User struct {
	Id            uint64
	Email         string
	Username      string
	PasswordHash  []byte
	Role          Role
	WalletAddress string //0x-prefixed, 42 characters, empty when unset
	CreatedAt     time.Time
}

func (user *User) IsElector() bool {
	return user.Role == RoleElector
}

func (user *User) IsCandidate() bool {
	return user.Role == RoleCandidate
}

func (user *User) HasWallet() bool {
	return user.WalletAddress != ""
}

// ValidWalletAddress reports whether addr has the EVM wallet shape
// required by the Ethereum backend.
func ValidWalletAddress(addr string) bool {
	if len(addr) != 42 || !strings.HasPrefix(addr, "0x") {
		return false
	}

	for _, c := range addr[2:] {
		ok := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !ok {
			return false
		}
	}

	return true
}
