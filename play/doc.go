/*
Package play holds the immutable play-by-play record type shared by the feed adapters and the
reaction engine, along with the logic for deriving a stable identity for each record.

A Record is one discrete game event as seen by the bot: a completed at-bat, a stolen base, or
a still-updating in-progress play. Feeds do not always assign identifiers to plays (most often
for brand-new or still-updating plays), so ResolveIdentity falls back to a synthetic identity
composed from the fields which stay stable across re-fetches.
*/
package play
