// Package domain models geotagged incident reports and the analytics derived
// from them: aggregate breakdowns, spatial hotspot clusters, a daily series
// with a short forecast, per-record risk scores, and the exported report.
//
// # Data Source
//
// Incident reports arrive either as flat JSON messages on the Kafka source
// topic (published by an upstream collector) or as CSV text handled by the
// ingest package. Both paths normalize into [IncidentRecord] through
// [NormalizeRawIncident], which applies the ingestion defaults below. The
// analytics functions in this package assume already-defaulted input.
//
// # Field Conventions
//
// Date format:
//
//	"2006-01-02" is canonical. "2006/01/02", "01/02/2006" and RFC 3339
//	timestamps are accepted and truncated to the calendar day in UTC.
//
// Time format:
//
//	"HH:MM" in 24-hour notation, e.g. "22:15". The hour is the integer before
//	the colon; a value without a colon uses its leading two digits ("2215").
//	Hours outside 0–23 are malformed and only affect hourly aggregation.
//
// Defaults applied at ingestion:
//
//	id          → deterministic hash (stream) or "imported_N" (CSV)
//	date        → message timestamp date, or the as-of date
//	time        → "00:00"
//	category    → "Unknown"
//	description → "No description"
//	lat/lng     → 40.7128, -74.0060 when missing or unparseable
//	severity    → Medium
//
// # Cluster Severity Tiers
//
// A hotspot's tier depends only on its member count:
//
//	> 50 High | 21–50 Medium | ≤ 20 Low
//
// # Risk Model
//
// Each record scores the sum of three bucketed contributions, capped at 1:
//
//	Time:     22:00–05:59 0.3 | 18:00–21:59, 06:00–08:59 0.2 | else 0.1
//	Category: Assault, Robbery, Burglary 0.4 | Theft, Vandalism 0.2 | else 0.1
//	Severity: High 0.3 | Medium 0.2 | Low 0.1
//
// # Randomness
//
// Centroid seeding, forecast noise and the classifier stub draw from an
// injected *rand.Rand. Seed it in tests; results are otherwise not
// reproducible across invocations.
package domain
