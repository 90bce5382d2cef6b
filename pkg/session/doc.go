/*
Package session hosts wizard instances between requests.

A session is a workflow instance stored under a generated id. The Manager
serializes every operation on one session with a reference-counted local
mutex and, when configured, a distributed lock, so that two replicas never
run the same session (and therefore never issue its commit) at the same time.
*/
package session
