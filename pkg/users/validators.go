package users

// RegisterPayload is the body of both self-registration and the first-admin
// bootstrap.
type RegisterPayload struct {
	Email    string  `json:"email" mod:"trim,lcase" validate:"required,email,max=255"`
	Username string  `json:"username" mod:"trim" validate:"required,min=3,max=50"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=100"`
}

// UpdateUserPayload represents the request body for updating a user.
type UpdateUserPayload struct {
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=admin user"`
	IsActive *bool   `json:"is_active,omitempty"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=100"`
}

// ListUsersQuery represents the query parameters for listing users.
type ListUsersQuery struct {
	Limit  int `query:"limit" default:"50" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}
