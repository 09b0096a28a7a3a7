// Package tts turns comment-feed events into spoken announcements.
//
// Manager filters events by the enabled-kind set, formats them (built-in
// per-kind formatter or custom templates) and feeds the bounded Queue,
// which serializes speak calls against the bound Adapter. Concrete
// adapters speak through BouyomiChan or a VOICEVOX engine.
package tts
