// Package queue provides the blocking primitives underneath flowkit pipelines.
//
// Bounded is a fixed-capacity FIFO queue with backpressure: Put suspends the
// producer while the buffer is full, Get suspends the consumer while it is
// empty, and Close transmits an end-of-stream marker so consumers terminate
// without losing in-flight work. TaskDone and Join give the orchestrator
// completion tracking: Join returns only when every enqueued item has been
// processed, not merely dequeued.
//
// Polling is the contrasting design point: an unbounded, mutex-guarded queue
// whose TryGet never blocks. Consumers sleep-poll for work, spending CPU even
// when idle and accepting unbounded growth in exchange for never suspending.
//
// All suspension points accept a context so a stuck pipeline surfaces as a
// timeout instead of an undiagnosable hang.
package queue
