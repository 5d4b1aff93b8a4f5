// Package anydo provides a client for the Any.do task management API.
//
// The API is a proprietary JSON-over-HTTPS surface. Authentication is a
// credential form POST that sets a session cookie; the client logs in lazily
// on first use and transparently re-authenticates once when a call comes
// back 401. GET requests are retried on server errors, every call is bounded
// by a timeout, and non-2xx responses map to a small typed error taxonomy.
//
// Server-side entities (User, Task, Category, Label) are dirty-tracking
// resources: attribute reads go against the raw JSON record and fail loudly
// on missing keys, writes mark keys dirty, and Save pushes only the changed
// subset back.
//
// Example usage:
//
//	client, err := anydo.NewClient("me@example.com", "secret")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	user, err := client.GetUser(ctx, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tasks, err := user.Tasks(ctx, anydo.TaskQuery{})
//	if err != nil {
//	    log.Fatal(err)
//	}
package anydo
