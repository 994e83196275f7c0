// Package api is the HTTP surface of the lending workflow, built on echo.
//
// Identity is carried in a cookie holding an HS256 JWT whose subject is the member id; the cookie is issued by an
// external authenticator. Every response uses the same envelope: {success, message, data} on success and
// {success: false, message, errors?} on failure.
package api
