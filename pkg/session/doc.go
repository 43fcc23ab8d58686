/*
Package session keeps chat transcripts for the surfaces that need them.

The turn pipeline is stateless; the HTTP and terminal surfaces use a Manager to
load the transcript of a session, run one turn with it as history and append
the exchange. Turns of the same session are serialized (in-process, and across
replicas when a DistributedLocker is configured) so transcripts stay ordered.
*/
package session
