// Package transcript records finished conversations and persists them in
// memory, a SQL database through GORM, or redis.
package transcript
