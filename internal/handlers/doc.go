// Package handlers implements the HTTP API layer for the threadpool service.
//
// Handlers delegate to the services layer and focus on request validation,
// response formatting, and HTTP semantics.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                     HTTP Request (Gin)                          │
//	└─────────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│                      Handler (this package)                     │
//	│  - Request validation                                           │
//	│  - Error mapping to HTTP status codes                           │
//	│  - Model-to-API conversion                                      │
//	└─────────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│                      JobService                                 │
//	└─────────────────────────────────────────────────────────────────┘
//
// The Handler implements v1.ServerInterface and is mounted with:
//
//	v1.RegisterHandlers(router, handler)
//
// # API Endpoints
//
//	┌────────┬─────────────┬──────────────────────────────────────────┐
//	│ Method │ Endpoint    │ Description                              │
//	├────────┼─────────────┼──────────────────────────────────────────┤
//	│ POST   │ /jobs       │ Submit a script job (202 Accepted)       │
//	│ GET    │ /jobs       │ List job history with pagination         │
//	│ GET    │ /jobs/{id}  │ Get one job                              │
//	│ GET    │ /pool       │ Pool statistics                          │
//	└────────┴─────────────┴──────────────────────────────────────────┘
//
// POST /jobs request:
//
//	{
//	    "script": "sha256",
//	    "param": {},
//	    "buffers": ["YWJj"]      // base64, transferred to the worker
//	}
//
// GET /jobs query parameters:
//
//	┌────────────────┬──────────┬─────────────────────────────────────────┐
//	│ Parameter      │ Type     │ Description                             │
//	├────────────────┼──────────┼─────────────────────────────────────────┤
//	│ state          │ []string │ pending, running, done, failed          │
//	│ script         │ []string │ Filter by script name                   │
//	│ worker         │ string   │ Filter by worker id                     │
//	│ page           │ int      │ Page number (default: 1)                │
//	│ pageSize       │ int      │ Items per page (default: 20, max: 100)  │
//	└────────────────┴──────────┴─────────────────────────────────────────┘
//
// The state filter applies to recorded states. A job is recorded as pending
// until it finishes, so filtering on running matches nothing; the running
// state only shows up on jobs still held by the pool.
//
// # Error Handling
//
//	┌─────────────────────────────┬────────┬──────────────────────────────┐
//	│ Error Type                  │ Status │ When                         │
//	├─────────────────────────────┼────────┼──────────────────────────────┤
//	│ Validation error            │ 400    │ Invalid body or parameters   │
//	│ InvalidJobSpecError         │ 400    │ Unusable job description     │
//	│ ResourceNotFoundError       │ 404    │ Job doesn't exist            │
//	│ PoolTerminatedError         │ 503    │ Pool is shutting down        │
//	│ Internal error              │ 500    │ Unexpected service errors    │
//	└─────────────────────────────┴────────┴──────────────────────────────┘
//
// All errors use the same body:
//
//	{ "error": "error message" }
package handlers
