// Package fetcher downloads schedule and box-score pages from
// pro-football-reference.com and saves them verbatim under the data directory.
//
// Requests are spaced by a fixed delay so a season crawl stays under the site's
// rate limit. Network errors, 429 and 5xx responses are retried with exponential
// backoff; any other non-200 status fails the page immediately. Failures of a
// single game are reported without stopping the rest of the season.
package fetcher
