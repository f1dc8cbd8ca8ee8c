package users

// User is an account that can sell and bid. PasswordHash is the encoded
// Argon2id hash, never the plaintext.
type User struct {
	ID            int64
	FirstName     string
	LastName      string
	Email         string
	PasswordHash  string
	ImageFilename *string
}

// Profile is the externally visible view of a user. Email is only populated
// when the viewer is the profile owner.
type Profile struct {
	FirstName string
	LastName  string
	Email     string
}
