package auth

// Role описывает результат классификации вызывающего.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
)

// Identity — классифицированный вызывающий: Anonymous, User или Admin.
// Сервисы получают его явным аргументом и никогда не смотрят в креденшелы напрямую.
type Identity struct {
	Role   Role
	UserID int
	Email  string
}

// Anonymous возвращает identity неаутентифицированного вызывающего.
func Anonymous() Identity {
	return Identity{Role: RoleAnonymous}
}

func (i Identity) IsAuthenticated() bool {
	return i.Role == RoleUser || i.Role == RoleAdmin
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
