package auth

import (
	"strings"

	"github.com/Dosada05/tournament-signup/models"
)

// Classifier относит аутентифицированного пользователя к роли admin или user
// по настроенному списку админских email-адресов.
type Classifier struct {
	adminEmails map[string]struct{}
}

// NewClassifier принимает список админских email (регистр не учитывается,
// пробелы по краям обрезаются, пустые элементы игнорируются).
func NewClassifier(adminEmails []string) *Classifier {
	set := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		set[e] = struct{}{}
	}
	return &Classifier{adminEmails: set}
}

// Classify превращает пользователя (или его отсутствие) в Identity.
func (c *Classifier) Classify(user *models.User) Identity {
	if user == nil {
		return Anonymous()
	}
	role := RoleUser
	if _, ok := c.adminEmails[strings.ToLower(user.Email)]; ok {
		role = RoleAdmin
	}
	return Identity{
		Role:   role,
		UserID: user.ID,
		Email:  user.Email,
	}
}
