package activation

const activationColumns = `
    activation_id,
    license_id,
    host_identifier,
    host_name,
    host_ip,
    activated_at,
    last_seen_at,
    is_active,
    metadata`

const getActivationSQL = `
SELECT` + activationColumns + `
FROM activation
WHERE license_id = ? AND host_identifier = ?
`

const listForLicenseSQL = `
SELECT` + activationColumns + `
FROM activation
WHERE license_id = ?
ORDER BY activated_at DESC, activation_id
`

const countActiveSQL = `
SELECT COUNT(*) FROM activation
WHERE license_id = ? AND is_active = 1
`

// The "count active hosts, then admit" step must be race-free per license, so
// both admit statements carry the ceiling check in their WHERE clause and
// SQLite evaluates count-and-write as one indivisible statement. The first
// placeholder in the guard disables the ceiling for unlimited licenses.
const insertIfBelowLimitSQL = `
INSERT INTO activation (
    activation_id,
    license_id,
    host_identifier,
    host_name,
    host_ip,
    activated_at,
    last_seen_at,
    is_active,
    metadata
)
SELECT ?, ?, ?, ?, ?, ?, ?, 1, ?
WHERE ? = 1
   OR (SELECT COUNT(*) FROM activation WHERE license_id = ? AND is_active = 1) < ?
`

const reactivateIfBelowLimitSQL = `
UPDATE activation
SET is_active = 1,
    last_seen_at = ?,
    host_name = COALESCE(NULLIF(?, ''), host_name),
    host_ip = COALESCE(NULLIF(?, ''), host_ip),
    metadata = COALESCE(NULLIF(?, '{}'), metadata)
WHERE license_id = ? AND host_identifier = ? AND is_active = 0
  AND (? = 1
   OR (SELECT COUNT(*) FROM activation WHERE license_id = ? AND is_active = 1) < ?)
`

const touchActiveSQL = `
UPDATE activation
SET last_seen_at = ?
WHERE license_id = ? AND host_identifier = ? AND is_active = 1
`

const deactivateSQL = `
UPDATE activation
SET is_active = 0, last_seen_at = ?
WHERE license_id = ? AND host_identifier = ?
`
