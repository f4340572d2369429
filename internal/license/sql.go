package license

const licenseColumns = `
    license_id,
    license_key,
    product_name,
    tier_name,
    status,
    seats,
    max_hosts,
    allowed_networks,
    concurrent_sessions,
    usage_hours_limit,
    expiry_date,
    features,
    addons,
    last_active_at`

const getLicenseByKeySQL = `
SELECT` + licenseColumns + `
FROM license
WHERE license_key = ?
`

const getLicenseByKeyAndProductSQL = `
SELECT` + licenseColumns + `
FROM license
WHERE license_key = ? AND product_name = ?
`

const getLicenseByIDSQL = `
SELECT` + licenseColumns + `
FROM license
WHERE license_id = ?
`

const listLicensesSQL = `
SELECT` + licenseColumns + `
FROM license
ORDER BY product_name, license_key
`

const createLicenseSQL = `
INSERT INTO license (
    license_key,
    product_name,
    tier_name,
    status,
    seats,
    max_hosts,
    allowed_networks,
    concurrent_sessions,
    usage_hours_limit,
    expiry_date,
    features,
    addons
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateLicenseSQL = `
UPDATE license
SET
    product_name = ?,
    tier_name = ?,
    status = ?,
    seats = ?,
    max_hosts = ?,
    allowed_networks = ?,
    concurrent_sessions = ?,
    usage_hours_limit = ?,
    expiry_date = ?,
    features = ?,
    addons = ?
WHERE license_key = ?
`

const deleteLicenseSQL = `
DELETE FROM license
WHERE license_key = ?
`

// Guarded by the status check so the active->expired transition happens at
// most once per crossing, regardless of how many validators race it.
const markExpiredSQL = `
UPDATE license
SET status = 'expired'
WHERE license_id = ? AND status = 'active'
`

const touchLastActiveSQL = `
UPDATE license
SET last_active_at = ?
WHERE license_id = ?
`
