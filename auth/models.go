package auth

type Role string

const (
	RoleBroker Role = "broker"
	RoleAdmin  Role = "admin"
)

// AuthStorageKey is the fixed key the identity blob is persisted under.
const AuthStorageKey = "demo_app_auth"

// User is a credential-store entry.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
}

// Identity is the blob persisted for the signed-in user: {id, email, role, name}.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Name  string `json:"name"`
}

// Identity projects the user onto the persisted identity shape.
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Role: u.Role, Name: u.FullName}
}

// LoginRequest contains user login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Credential is a plaintext seed entry for the static store.
type Credential struct {
	Email    string
	Password string
	User     User
}

// DemoCredentials are the hard-coded broker and admin logins.
func DemoCredentials() []Credential {
	return []Credential{
		{
			Email:    "broker@gmail.com",
			Password: "B123456",
			User: User{
				ID:       "broker-1",
				Email:    "broker@gmail.com",
				FullName: "Robert Turner",
				Role:     RoleBroker,
			},
		},
		{
			Email:    "admin@gmail.com",
			Password: "A123456",
			User: User{
				ID:       "admin-1",
				Email:    "admin@gmail.com",
				FullName: "Admin User",
				Role:     RoleAdmin,
			},
		},
	}
}
