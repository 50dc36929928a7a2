package auth

import (
	"fmt"

	"aprspass/entity"
)

type Database interface {
	GetAdmin(token string) (*entity.Admin, error)
}

type Auth struct {
	db Database
}

func New(db Database) *Auth {
	return &Auth{db: db}
}

func (a *Auth) AdminByToken(token string) (*entity.Admin, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	return a.db.GetAdmin(token)
}
