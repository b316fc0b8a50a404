/*
Package trizvuk documents the zvuk download worker of the TRI
media-retrieval pipeline. The binary lives in cmd/.

Given a media identifier, a cache hash and an authenticated session cookie,
the worker resolves per-quality stream URLs through the zvuk GraphQL API,
downloads each available quality tier and commits the files into a
deterministic cache layout:

	<cacheRoot>/<hash>/zvuk/best[.<ext>]
	<cacheRoot>/<hash>/zvuk/mid[.<ext>]

The extension is inferred from the response content type and omitted when
nothing maps.

Requests arrive over HTTP:

	POST /dl
	{"id": "123", "hash": "abc", "auth_cookie": "..."}

and are always answered with exactly one JSON outcome within the request
deadline (five minutes by default):

	{"ok": true, "error": ""}        → 200
	{"ok": false, "error": "<msg>"}  → 500

Every run executes inside a supervisor chain that recovers panics, enforces
the deadline and records structured logs and Prometheus metrics, so a
single bad request can never take the process down or leave the caller
hanging. Per-tier failures are contained: the run succeeds as long as at
least one resolved tier was stored, with the failed tiers reported in the
result payload.

The cache backend is pluggable: a local filesystem directory (default) or
an S3 bucket sharing the same key layout. The worker can also run on AWS
Lambda, consuming direct invocations or SQS batches.

Configuration is environment-based (TRI_CACHE, TRI_ZVUK_PORT,
TRI_ZVUK_TIMEOUT, TRI_CACHE_BACKEND, ...), loaded once at startup into an
immutable record.
*/
package trizvuk
