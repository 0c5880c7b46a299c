// Package clock is the time source for the notification pipeline. Windows,
// batch deadlines and heartbeats read Now from a Clocker so tests can move
// time with Fake instead of sleeping.
package clock
