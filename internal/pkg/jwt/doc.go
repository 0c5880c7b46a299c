// Package jwt verifies the HS512 access tokens issued by the EmuReady web app
// and carries the verified claims through request contexts.
package jwt
