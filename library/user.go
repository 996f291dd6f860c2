package library

// User is a registered library member.
//
// Email is the unique key; a User is immutable after registration.
type User struct {
	Email EmailString
	Name  string
}

// BuildUser is a factory method for User.
//
// Returns an error if the email or name is empty.
func BuildUser(email EmailString, name string) (User, error) {
	if email == "" {
		return User{}, ErrEmptyEmail
	}

	if name == "" {
		return User{}, ErrEmptyName
	}

	return User{
		Email: email,
		Name:  name,
	}, nil
}
