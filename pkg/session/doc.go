/*
Package session owns the set of open views and the settings they share.

A Session replaces the "current view" singleton: the active view is an explicit id
that may be empty, and lookups return ErrNoActiveView instead of failing hard.
Settings live in the session and are handed to the orchestrator per request.

Response application is serialised per view through Locks, a reference-counted map of
mutexes that frees an entry as soon as nobody holds or waits for it.
*/
package session
