// Package api publishes its handles through alias chains.
package api

import "example.com/aliases/refs"

// Mailer sends templated mail.
type Mailer interface {
	// Send delivers one message.
	Send(to, body string) error
}

var mailer = refs.New[Mailer](refs.Config{ID: "core.mailer"})

// MailerAPI re-exports the internally built mailer handle.
var MailerAPI = mailer

// LegacyMailerAPI is an older export path kept for callers that have
// not migrated yet.
//
// Deprecated: use MailerAPI.
var LegacyMailerAPI = MailerAPI

// Clock reports the current time.
type Clock interface {
	// Now returns the current wall-clock time in Unix seconds.
	Now() int64
}

// ClockAPI is the published clock handle.
var ClockAPI = refs.New[Clock](refs.Config{ID: "core.clock"})

// TimeAPI is an additional export path for ClockAPI; it names the same
// handle and must not produce a second page.
var TimeAPI = ClockAPI
