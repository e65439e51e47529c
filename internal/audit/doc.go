// Package audit holds the session log and the gate in front of it.
//
// Every successful login appends an open SessionLogEntry; logout closes
// one with a conditional update so an entry is closed at most once, even
// when two logouts race. Reading the log goes through Gate, which only
// serves callers holding the Auditor role.
package audit
