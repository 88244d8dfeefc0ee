package model

// User roles.
const (
	RoleAdmin          = "Admin"
	RoleProjectManager = "Project Manager"
	RoleViewer         = "Viewer"
)

// User is a tracker account. Passwords are stored in plaintext — an
// inherited weakness of the system being tracked, kept as-is.
type User struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	Password  string  `json:"password"`
	Theme     string  `json:"theme"`
	Disabled  bool    `json:"disabled"`
	CreatedAt string  `json:"createdAt"`
	LastLogin *string `json:"lastLogin"`
}
