package cont

import (
	"context"

	"aprspass/entity"
)

type ctxKey string

const AdminDataKey ctxKey = "adminData"

func PutAdmin(c context.Context, admin *entity.Admin) context.Context {
	return context.WithValue(c, AdminDataKey, *admin)
}

func GetAdmin(c context.Context) *entity.Admin {
	admin, ok := c.Value(AdminDataKey).(entity.Admin)
	if !ok {
		return &entity.Admin{}
	}
	return &admin
}
