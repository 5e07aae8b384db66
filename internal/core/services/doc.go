// Package services implements the driving ports. Each service holds the
// use-case logic for one concern (ingest, search, ask, scrape, documents,
// settings, scheduling) and reaches storage, scrapers and AI providers
// only through the driven ports, so adapters can be swapped in tests.
package services
