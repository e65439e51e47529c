// Package auth holds accounts and credentials for the session audit service.
//
// It provides:
//   - The user store (SQLite) with predicate lookup used by the audit gate
//   - Argon2id password hashing, with bcrypt verification for legacy hashes
//   - Stateless HS256 bearer tokens whose subject is the user ID
//   - The account management service behind the user CRUD routes
//
// Two roles exist. Standard accounts can log in and out; Auditor accounts
// can also read session history. Password hashes never leave the package:
// every service result is a Profile with the hash cleared.
package auth
