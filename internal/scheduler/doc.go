/*
Package scheduler runs background work for the application on a small bounded
pool of goroutines.

Three entry points are offered: SubmitNow for immediate execution, ScheduleOnce
for a single delayed run and ScheduleAtFixedRate for recurring work. Each
returns a *Handle that the caller owns and may cancel.

Every unit of work runs inside a recover/log boundary on a worker goroutine, so
a failing or panicking occurrence of a recurring task never stops the
occurrences after it. Timer goroutines only decide when work becomes eligible
and hand it to the pool; they never execute work themselves.

A Scheduler moves through Running, ShuttingDown and Terminated exactly once.
Scheduling calls made after Shutdown has begun fail with ErrSchedulerClosed.
*/
package scheduler
