package mysql

const hotelColumns = `id, name, city, price_per_night, rating, description,
  total_rooms, available_rooms, version, updated_at`

const loadHotelSQL = `SELECT ` + hotelColumns + ` FROM hotels WHERE id = ?`

// The version predicate is the compare half of the compare-and-swap; the
// bump always changes the row, so RowsAffected is 1 exactly when it matched.
const conditionalSaveSQL = `
UPDATE hotels
SET available_rooms = ?,
    version         = ?,
    updated_at      = ?
WHERE id = ? AND version = ?
`

const hotelExistsSQL = `SELECT COUNT(*) FROM hotels WHERE id = ?`

// city uses a case-insensitive collation, so equality already ignores case.
const queryByCitySQL = `SELECT ` + hotelColumns + `
FROM hotels
WHERE city = ? AND available_rooms >= ?
ORDER BY price_per_night ASC, id ASC
LIMIT ? OFFSET ?
`

const countByCitySQL = `
SELECT COUNT(*) FROM hotels
WHERE city = ? AND available_rooms >= ?
`

// Re-seeding refreshes catalog fields only; available_rooms belongs to the
// reservation path.
const upsertHotelSQL = `
INSERT INTO hotels
  (id, name, city, price_per_night, rating, description, total_rooms, available_rooms, version, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
ON DUPLICATE KEY UPDATE
  name            = VALUES(name),
  city            = VALUES(city),
  price_per_night = VALUES(price_per_night),
  rating          = VALUES(rating),
  description     = VALUES(description),
  total_rooms     = VALUES(total_rooms),
  version         = version + 1,
  updated_at      = VALUES(updated_at)
`

const insertReservationSQL = `
INSERT INTO reservations
  (reference, hotel_id, guest_name, guest_email, check_in, check_out, guests, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
`

const countReservationsSQL = `SELECT COUNT(*) FROM reservations WHERE hotel_id = ?`
