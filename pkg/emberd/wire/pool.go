package wire

import "sync"

// requestPool recycles *Request values across connections. The reactor runs
// a single goroutine, so this trades a little indirection for fewer
// allocations per request rather than for reduced lock contention — there
// is no contention to eliminate in a single-threaded loop.
var requestPool = sync.Pool{
	New: func() interface{} { return &Request{} },
}

// GetRequest returns a zeroed Request from the pool.
func GetRequest() *Request {
	return requestPool.Get().(*Request)
}

// PutRequest returns req to the pool after resetting it. Callers must not
// retain req or any of its byte-slice views afterward.
func PutRequest(req *Request) {
	req.Reset()
	requestPool.Put(req)
}
