// Package domain models the UK coronavirus dashboard NHS trust feed.
//
// # Data Source
//
// The feed is the public v2 CSV export of https://coronavirus.data.gov.uk/
// requested for areaType=nhsTrust with three metrics:
//
//	date,areaType,areaCode,areaName,hospitalCases,newAdmissions,covidOccupiedMVBeds
//	2021-01-20,nhsTrust,RWP,Worcestershire Acute Hospitals NHS Trust,206,21,14
//
// Columns are matched by header name, so the order may change upstream without
// breaking the parser. A missing column is a [SchemaError].
//
// # Feed Conventions
//
// Area codes:
//
//	NHS trusts carry 3-character ODS codes ("RWP", "E10" in tests). Other
//	geographies in the same export (regions "E40000010", nations "E92000001")
//	use longer codes and are dropped before anything else happens.
//
// Blank cells:
//
//	A blank metric cell means the trust did not report that figure for the day.
//	It is kept as a missing [Count], never as zero. Maxima skip missing values
//	and a rolling window touching a missing value is itself missing.
//
// Acute trusts:
//
//	Only trusts that have ever reported a COVID patient on mechanical
//	ventilation are kept. The test is made on a trust's full history
//	(see [Prepare]), so a trust qualifies or not as a whole.
//
// # Duplicates
//
// The feed is expected to hold one row per trust per date. A second row for
// the same (trust, date) is rejected with a [SchemaError] rather than folded
// into the maxima.
package domain
