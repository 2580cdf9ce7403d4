// Package fetch retrieves HTML pages and hands them back as goquery documents.
//
// A Fetcher bounds the work it performs in two ways: the HTTP transport
// keeps at most MaxConnections connections per host, and a weighted
// semaphore keeps at most MaxInFlight fetches running at once. Callers that
// fan out (FetchAll) simply issue everything and let those limits queue the
// excess.
//
// Fetch never retries. A failed request, a non-2xx response or an
// unparsable body is returned to the caller, which is expected to fail the
// whole crawl.
package fetch
