package auth

import "github.com/taskhub-dev/taskhub/internal/domain/user"

// CanAccessTask is the single ownership rule: admins may touch any task,
// everyone else only tasks they created. Read-single, update and delete
// all go through this; list queries filter rows instead.
func (c *Claims) CanAccessTask(ownerID int64) bool {
	return c.Role == user.RoleAdmin || c.UserID == ownerID
}

func (c *Claims) IsAdmin() bool {
	return c.Role == user.RoleAdmin
}
