// Package auth implements the authentication and authorization core of the
// LMS: password hashing, JWT issuance and validation, credential
// verification, and the per-resource access control policy.
//
// The package is storage-agnostic. It consumes a CredentialStore and exposes
// decisions (tokens, principals, allow/deny) to the HTTP layer.
//
// Tokens are stateless: validity is determined solely by signature integrity
// and the expiry claim. There is no server-side session state and no
// revocation list.
package auth
