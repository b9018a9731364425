// Package domain models historical daily-weather records from the Veritable
// Records of the Joseon Dynasty (조선왕조실록) and selects the record most
// relevant to a target calendar date.
//
// # Data Source
//
// Archive tables are compiled by hand from digitized annal entries and arrive
// in whatever shape the compiler used: delimited text exports, Excel workbooks
// (including legacy .xls files that are really HTML tables), or JSON arrays.
// Column naming is untrusted and mixes Latin and Korean headers, so the
// normalizer resolves column roles heuristically instead of relying on a
// schema. See [Normalize].
//
// # Column Conventions
//
// Date columns:
//
//	Single column: date, 날짜, 양력, 양력날짜, 양력일자, gregorian_date, solar_date.
//	Split columns: a (year, month, day) triple such as 서기년/서기월/서기일, or
//	headers containing both a calendar token (서기력, 양력) and a part token
//	(년, 월, 일) in any order. Triples are synthesized into a date per row
//	from the leading integer of each of the three cells.
//
// Date cell formats, tried in order:
//
//	A value that already carries a calendar date, then the strict layouts
//	YYYY-MM-DD, YYYY/MM/DD, YYYY.MM.DD and YYYYMMDD, then a permissive
//	last-resort parse. Rows whose date cannot be resolved are dropped and
//	counted, never kept as partial records.
//
// Description fallback:
//
//	When no description column is identified, each row independently takes
//	the first cell that is a string of at least 10 characters containing
//	Hangul. Different rows may draw their description from different columns.
//
// # Matching
//
// Four policies select at most one record for a target date: exact (same
// date, optional day tolerance), monthday (same month/day in any year),
// yearshift (same month/day a fixed number of years earlier), and doy
// (nearest day-of-year ordinal). Ties are broken by a total order: records
// whose location contains the location hint sort first, then records with
// longer descriptions. Repeated runs on identical input yield identical
// output; the record slice is never mutated after normalization and is safe
// to share across concurrent lookups.
package domain
