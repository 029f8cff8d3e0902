package domain

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Credential is the bearer token of a logged in shopper together with the
// role it was issued for.
type Credential struct {
	Token  string
	Role   Role
	UserID int64
	Email  string
}

func (c Credential) Empty() bool {
	return c.Token == ""
}
