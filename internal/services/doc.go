// Package services implements the business logic layer for the threadpool service.
//
// Services sit between the HTTP handlers (or the CLI) and the thread pool and
// store, so that neither handlers nor the pool know about persistence.
//
// # Service Dependency Graph
//
//	Handlers (HTTP endpoints)       cmd/threadpool run
//	    │                                 │
//	    ▼                                 ▼
//	Services Layer
//	    └── JobService ──► threadpool.Pool, Store
//
// # JobService
//
// JobService submits script jobs and keeps their history in the store.
//
// Job lifecycle as recorded:
//
//	┌─────────┐    ┌─────────┐    ┌──────┐
//	│ pending │───►│ running │───►│ done │
//	└─────────┘    └─────────┘    └──────┘
//	     │              │         ┌────────┐
//	     │              └────────►│ failed │
//	     └───────────────────────►└────────┘
//	     (rejected by the pool)
//
// Submit:
//  1. Builds the job (InvalidJobSpecError when unusable, nothing is recorded)
//  2. Saves a pending record
//  3. Registers done and error listeners on the job
//  4. Hands the job to the pool; a PoolTerminatedError marks the record failed
//
// The running state is never written. Get and List overlay the live state of
// jobs still held by the pool, which also covers the short window between a
// job finishing and its outcome reaching the store.
//
// Listeners run on the pool's control goroutine, so outcomes are written from
// a separate goroutine. Wait blocks until every write started so far is done.
//
// Usage:
//
//	jobSrv := services.NewJobService(pool, store)
//	rec, err := jobSrv.Submit(ctx, services.SubmitParams{
//	    Script: "echo",
//	    Param:  json.RawMessage(`{"hello":"world"}`),
//	})
//	rec, err = jobSrv.Get(ctx, rec.ID)
//	page, err := jobSrv.List(ctx, services.JobListParams{Limit: 20})
//
// # Thread Safety
//
// JobService:
//   - Live jobs protected by sync.Mutex
//   - Store writes tracked by a sync.WaitGroup
package services
