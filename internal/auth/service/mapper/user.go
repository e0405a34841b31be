package mapper

import (
	userdomain "github.com/devnla/backend-express/internal/user/domain"
)

// UserToView is the single projection of a stored user that callers see.
func UserToView(user userdomain.User) userdomain.View {
	return userdomain.View{
		ID:        string(user.ID),
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
