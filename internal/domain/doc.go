// Package domain models trip log data exported by the truck simulation game.
//
// # Data Source
//
// Trip logs come from the game's job-history export, one CSV row per
// completed delivery. The export is produced under the game's French locale,
// which fixes both the column headers (Depuis, Vers, Chargement, ...) and the
// textual formatting of every quantity column.
//
// # Export Conventions
//
// Quantity with trailing unit (thousands separated by spaces):
//
//	"1 234 km"  →  1234
//	Applies to: Distance planifiée, Distance acceptée, Ravitaillé,
//	Coût du carburant, Vitesse maximale atteinte.
//
// Currency amount (euro glyph, spaced thousands):
//
//	"45 678 €"  →  45678
//	Applies to: Bénéfice, Amendes. Negative amounts keep their sign.
//
// Cargo mass (kilograms, trailing unit, spaced thousands):
//
//	"17 587 kg"  →  17587
//
// Average consumption (only the leading numeric token is meaningful):
//
//	"32.4 l/100km"  →  32.4
//
// Truck plate (embedded in a composite field, one trailing parenthesis):
//
//	"ID:AB-123-CD)"  →  "AB-123-CD"
//
// Date/time:
//
//	"02/01/2026 18:45" (day first), at a fixed column position in the row.
//
// A field that does not match its expected shape rejects the whole batch; no
// partially parsed row is ever admitted into the accumulated dataset.
//
// # Enrichment
//
// Every admitted trip carries resolved WGS-84 coordinates for both its origin
// and destination city. City coordinates are append-only: once resolved, a
// city is never re-geocoded or updated.
package domain
