// Package dispatch gates and schedules validated intents.
//
// The Dispatcher runs the full link pipeline (normalize, extract, validate)
// and then applies the dispatch protocol:
//
//   - Session gate: with no authenticated session the intent is dropped.
//     Nothing is closed, nothing is scheduled, no error is returned.
//   - Teardown: every active UI surface is closed synchronously.
//   - Schedule: the kind's Handler is invoked after a fixed delay (500ms by
//     default) so the new surface does not race the teardown. Closers that
//     implement TeardownAwaiter replace the fixed delay with their completion
//     signal, bounded by the teardown timeout.
//
// State per link:
//
//	Idle → Normalizing → Extracting → NoIntent
//	                                 → Validating → Dropped
//	                                              → Scheduled → Dispatched
//
// Limitations:
//   - A scheduled dispatch cannot be cancelled.
//   - The same link delivered twice produces two dispatches.
//   - Failed handler invocations are not retried.
package dispatch
