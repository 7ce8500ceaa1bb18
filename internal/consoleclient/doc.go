// Package consoleclient provides an HTTP client for the admin console's
// configuration API.
//
// The client covers the four collaborator endpoints the config engine needs:
// fetching the initial schema tree for an (app slug, sequence) pair, the
// liveconfig round trip that recomputes visibility and validation as the user
// edits, saving the edited tree, and downloading previously uploaded files.
//
// # Usage Example
//
//	client := consoleclient.New("http://localhost:3000")
//	client.SetAuth("admin", password)
//
//	resp, err := client.GetConfig(ctx, "my-app", 4)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Edit resp.ConfigGroups, then revalidate:
//	live, err := client.LiveConfig(ctx, "my-app", 4, resp.ConfigGroups)
//
// # Cancellation
//
// Every method takes a context. The liveconfig path in particular is issued
// from a debounced loop that cancels a superseded in-flight request before
// dispatching the next one, so requests must honour ctx promptly.
//
// # Retries
//
// Fetch, save and download retry transient failures with exponential
// backoff. Liveconfig never retries: a newer edit supersedes the request
// before a retry could be useful.
//
// # Error Handling
//
// All errors are *ClientError values wrapped with %w for error-chain
// inspection. Network, auth, HTTP, parse and validation failures are
// distinguished, and IsRetryable reports whether an operation may be retried.
package consoleclient
