// Package domain defines core data models and interfaces shared across
// the crypto core. It contains plain types (wire/state), contracts
// (interfaces) and the error taxonomy only.
package domain
