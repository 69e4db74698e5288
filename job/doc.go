// Package job defines the coordinator-side job entity and the job table.
//
// # Job Entity
//
// A [Job] is one unit of work handed to a worker. It is identified by a
// frame-local uint32 id and carries the [Callback] that receives its
// result. A job lives in the [Table] from submission until its result is
// delivered:
//
//	submitted → (worker) → completed (callback invoked, removed)
//
// # Table
//
// [Table] maps outstanding job ids to jobs and owns the id counter. Ids
// are unique only among outstanding jobs: the counter is reset at each
// frame barrier, and [Table.Reset] refuses to do so while any job is still
// outstanding.
//
// Table is not safe for concurrent use. It is owned by the coordinator
// goroutine.
package job
