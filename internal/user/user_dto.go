package user

type UserResponse struct {
	ID           string  `json:"id"`
	FullName     string  `json:"full_name"`
	Email        string  `json:"email"`
	Gender       string  `json:"gender,omitempty"`
	Role         string  `json:"role"`
	DepartmentID *string `json:"department_id,omitempty"`
	Active       bool    `json:"active"`
}
