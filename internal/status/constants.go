// internal/status/constants.go
package status

// ---- HEALTH CODES ----

// HealthUnknown: nothing has been exchanged yet.
const HealthUnknown uint16 = 0

// HealthOK: the last request succeeded.
const HealthOK uint16 = 1

// HealthError: the last request failed.
const HealthError uint16 = 2

// ---- ERROR CODES ----

// ErrorGeneric is reported when a failure carries no Modbus exception code.
const ErrorGeneric uint16 = 1

// ---- METRICS ----

const metricsNamespace = "mbpoll"
