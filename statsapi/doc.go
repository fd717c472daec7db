// Package statsapi adapts the MLB Stats API (schedule and live game feed) to the engine's Feed
// interface, and provides the offline pieces used for replays: saved game files and a static
// season schedule.
package statsapi
