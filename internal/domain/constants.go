package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)
