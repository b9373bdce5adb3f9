// Package retry repeats idempotent AWX API calls that failed transiently.
//
// [Do] backs off exponentially between attempts. An error wrapped with
// [Fatal] (an AWX 4xx other than 408 and 429) stops the loop at once, and an
// error wrapped with [After] carries the wait the server asked for.
package retry
