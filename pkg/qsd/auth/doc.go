// Package auth manages user identities: bcrypt password hashes, cookie
// sessions for the browser admin, and JWT bearer tokens for the JSON API.
// Both transports resolve to the same *qsd.User actor in the request
// context.
package auth
