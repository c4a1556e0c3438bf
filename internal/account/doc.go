// Package account provides signup and login for abra.
//
// Register trims and validates credentials, hashes the password with bcrypt,
// and persists the user. Login resolves the name and compares the digest;
// an unknown name and a wrong password both return ErrInvalidCredentials,
// so responses do not reveal which names exist. See the auth package for
// the hashing and dummy-compare details.
package account
