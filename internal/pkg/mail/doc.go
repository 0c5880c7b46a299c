// Package mail sends notification emails through SMTP, Postmark or Resend,
// selected by config, optionally behind a send-rate throttle.
package mail
