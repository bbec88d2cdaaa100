// Package events provides types and interfaces for an event-driven architecture.
//
// The study controller emits a StudyEvent at every meaningful transition
// (session started, answer graded, checkpoint written, ...). It never knows
// which handlers consume them: the gateway and the terminal client register a
// structured-log handler and a metrics handler at startup.
//
// The primary components are:
// - StudyEvent: a typed, timestamped record of one transition
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
