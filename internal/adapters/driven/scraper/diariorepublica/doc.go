// Package diariorepublica scrapes recently published diplomas from the
// Diário da República (https://diariodarepublica.pt).
//
// For each day in a range the scraper visits the day listing, reads the
// title, number, summary and link of each diploma, then fetches the diploma
// page and extracts its full text. Requests go through colly with a
// per-domain delay; pages are parsed with goquery. The resulting raw
// documents carry legal hints (type, number, publication date, title and
// summary) for the ingest pipeline.
package diariorepublica
