// Package client holds the HTTP clients regkeeper uses to talk to the two
// external systems it depends on.
//
// # Overview
//
//  1. LMSClient exchanges staff credentials for an LMS token and reads the
//     signed-in user's profile.
//  2. RegistryAuthClient exchanges service-account credentials for a registry
//     access token. The password is encrypted with the registry's public key
//     before it is sent.
//  3. RegistryAPIClient calls the student registration endpoints, reading
//     the bearer token through a BearerSource on every request.
//
// # Error Handling
//
// Every authentication failure is an *AuthError, which matches
// common.ErrAuthFailed with errors.Is. Non-2xx answers from the registry API
// are *APIError values.
//
// All operations accept context.Context and honor cancellation. The
// underlying http.Client carries the configured timeout.
package client
