// Package app is the composition root of petdesk.
//
// # Wiring
//
//  1. Load config (file, environment, then Options.APIURL)
//  2. Open the credential backend (file, sqlite, redis or memory)
//  3. Restore credentials and build the session controller
//  4. Wrap a plain http.Client in the request pipeline
//  5. Build the pet and tutor accessors and their collections
//
// The login and refresh endpoints use the plain client; every other call goes
// through the pipeline.
//
// # Poller
//
// When refresh_seconds is set, Run starts a poller that re-lists the visible
// collection. Failures back off exponentially up to 30s and ticks are skipped
// while no session exists.
package app
