// Package hash signs short payloads, such as email unsubscribe links, with
// HMAC-SHA256 so they can be verified later without server-side state.
package hash
