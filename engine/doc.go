/*
Package engine decides which plays get a reaction, and drives the polling loop which feeds it.

Each play fetched from a Feed passes through the same sequence of gates:

  - identity resolution (see play.ResolveIdentity)
  - the session Ledger, so no play is handled twice
  - the Classifier cascade, which decides whether the play is noteworthy
  - the Drought tracker, for subject-side plate appearances, which triggers an escalation
    message after too many uneventful ones
  - the RateLimiter, the last gate before compose and publish

All session state (ledger, drought counter, rate window) lives in a Session owned by a single
Driver goroutine, and is mutated without locks. Anything else wanting to look at the driver
reads the Status snapshot, which may be slightly stale.
*/
package engine
