package feedback

import "strings"

// User is the identity of a caller for the duration of one request.
// It is built from optional credentials and never persisted.
type User struct {
	username  string
	secret    string
	signature string
}

// NewUser builds a User. The signature is derived only when both username
// and secret are non-blank; otherwise the user is anonymous.
func NewUser(username, secret string) *User {
	return NewUserWithSeparator(username, secret, DefaultSeparator)
}

// NewUserWithSeparator is NewUser with a custom signature separator.
func NewUserWithSeparator(username, secret, separator string) *User {
	u := &User{username: username, secret: secret}
	if strings.TrimSpace(username) != "" && strings.TrimSpace(secret) != "" {
		u.signature = DeriveSignatureWith(username, secret, separator)
	}
	return u
}

// Anonymous returns a User without credentials.
func Anonymous() *User {
	return &User{}
}

// Username returns the username as supplied, which may be empty.
func (u *User) Username() string {
	if u == nil {
		return ""
	}
	return u.username
}

// Signature returns the derived signature, or "" for anonymous users.
func (u *User) Signature() string {
	if u == nil {
		return ""
	}
	return u.signature
}

// IsAnonymous reports whether the user has no signature.
func (u *User) IsAnonymous() bool {
	return u.Signature() == ""
}
